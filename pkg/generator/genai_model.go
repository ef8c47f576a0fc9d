package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

var _ GenerativeModel = (*GenaiModel)(nil)

// GenaiModel は google.golang.org/genai を使った GenerativeModel の実装です。
// プロセス起動時に一度だけ生成し、各コンポーネントへ注入します。
// gemini.Client は失敗時に必ず1回以上リトライし、ResponseModalities も設定しないため、ここでは型だけを使います。
type GenaiModel struct {
	client *genai.Client
}

// NewGenaiModel は API キーから Gemini API 用のクライアントを作成します。
// httpClient が nil の場合は SDK の既定クライアントを使います。
func NewGenaiModel(ctx context.Context, apiKey string, httpClient *http.Client) (*GenaiModel, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenaiModel{client: client}, nil
}

// GenerateWithParts はパーツ群を1つのユーザーコンテンツとして送信します。
func (m *GenaiModel) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := m.client.Models.GenerateContent(ctx, model, contents, buildConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	return &gemini.Response{RawResponse: resp}, nil
}

func buildConfig(opts gemini.GenerateOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if opts.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: opts.AspectRatio}
	}
	if opts.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}
	return cfg
}
