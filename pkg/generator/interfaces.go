package generator

import (
	"context"

	"github.com/shouni/couplai/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenerativeModel は Gemini との通信を抽象化するインターフェースです。
// テストではモックに差し替えます。
type GenerativeModel interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// ImageExecutor は生成リクエストを実行し、応答を画像かテキストかに判定して返します。
type ImageExecutor interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.Output, error)
}

// ImageGenerator はオーケストレーターが利用する統合窓口です。
// 失敗はエラーではなく domain.GenerationResult の失敗値として返します。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult
}
