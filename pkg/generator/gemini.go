package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/couplai/pkg/domain"
	"github.com/shouni/couplai/pkg/imgutil"
)

// ErrTextInsteadOfImage は画像の代わりにテキストが返されたことを表します。
var ErrTextInsteadOfImage = errors.New("model returned text instead of an image")

// GeminiGenerator は ImageExecutor の結果を GenerationResult に変換する窓口です。
// API エラーはここでログに残して失敗値に変換し、呼び出し元へは伝播させません。
type GeminiGenerator struct {
	executor ImageExecutor
	logger   *slog.Logger
	timeout  time.Duration
}

// GeneratorOption は GeminiGenerator の設定を変更します。
type GeneratorOption func(*GeminiGenerator)

// WithRequestTimeout は1回の生成呼び出しごとの期限を設定します。0 以下なら期限を付けません。
func WithRequestTimeout(d time.Duration) GeneratorOption {
	return func(g *GeminiGenerator) {
		g.timeout = d
	}
}

// NewGeminiGenerator は GeminiGenerator を初期化します。
func NewGeminiGenerator(executor ImageExecutor, logger *slog.Logger, opts ...GeneratorOption) (*GeminiGenerator, error) {
	if executor == nil {
		return nil, errors.New("executor (ImageExecutor) is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &GeminiGenerator{executor: executor, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// GenerateImage は1回だけ生成を試み、結果を返します。
// 期限は呼び出し単位で付くため、遅い1件が後続の生成を巻き込むことはありません。
func (g *GeminiGenerator) GenerateImage(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.executor.Generate(ctx, req)
	if err != nil {
		g.logger.ErrorContext(ctx, "画像生成に失敗しました", "style", req.StyleLabel, "error", err)
		return domain.Failure(err)
	}

	switch o := out.(type) {
	case domain.ImageOutput:
		return domain.Success(imgutil.EncodeDataURI(o.MimeType, o.Data))
	case domain.TextOutput:
		g.logger.WarnContext(ctx, "画像の代わりにテキストが返されました", "style", req.StyleLabel, "text", truncate(o.Text, maxTextPreview))
		return domain.Failure(fmt.Errorf("%w: %s", ErrTextInsteadOfImage, truncate(o.Text, maxTextPreview)))
	default:
		return domain.Failure(fmt.Errorf("unexpected output type %T", out))
	}
}
