package generator

import "log/slog"

const (
	// DefaultModel は画像入力からの画像生成に使うモデルです。
	DefaultModel = "gemini-2.5-flash-image"

	DefaultCompressionQuality = 75

	// テキスト応答をエラーメッセージに含める際の最大文字数
	maxTextPreview = 100
)

// CoreOptions は GeminiImageCore の動作設定です。
type CoreOptions struct {
	Model              string
	AspectRatio        string
	SystemPrompt       string
	CompressSource     bool
	CompressionQuality int
	Logger             *slog.Logger
}
