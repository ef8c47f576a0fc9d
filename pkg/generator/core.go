package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/couplai/pkg/domain"
	"github.com/shouni/couplai/pkg/imgutil"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GeminiImageCore は画像生成リクエストの組み立て、通信、応答の判定を担う基盤クラスです。
type GeminiImageCore struct {
	aiClient GenerativeModel
	opts     CoreOptions
	logger   *slog.Logger
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore を初期化します。
func NewGeminiImageCore(aiClient GenerativeModel, opts CoreOptions) (*GeminiImageCore, error) {
	if aiClient == nil {
		return nil, errors.New("aiClient is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.CompressionQuality == 0 {
		opts.CompressionQuality = DefaultCompressionQuality
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GeminiImageCore{
		aiClient: aiClient,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Generate はプロンプトと元画像を Gemini に送り、応答を domain.Output に変換します。
func (c *GeminiImageCore) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Output, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		{Text: req.Prompt},
		c.sourcePart(req.Image, req.MimeType),
	}

	gOpts := gemini.GenerateOptions{
		AspectRatio:  c.opts.AspectRatio,
		SystemPrompt: c.opts.SystemPrompt,
	}

	c.logger.DebugContext(ctx, "Geminiに画像生成をリクエストします", "model", c.opts.Model, "style", req.StyleLabel)
	resp, err := c.aiClient.GenerateWithParts(ctx, c.opts.Model, parts, gOpts)
	if err != nil {
		return nil, fmt.Errorf("Gemini画像生成エラー: %w", err)
	}

	return parseToOutput(resp)
}

// sourcePart は元画像を InlineData パーツに変換します。
// 圧縮が有効で、かつ小さくなる場合だけ JPEG に置き換えます。
func (c *GeminiImageCore) sourcePart(data []byte, mimeType string) *genai.Part {
	if mimeType == "" {
		mimeType = imgutil.DetectImageMIME(data)
	}
	if c.opts.CompressSource {
		data, mimeType = imgutil.CompressIfSmaller(data, mimeType, c.opts.CompressionQuality)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}
