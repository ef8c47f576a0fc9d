package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidInput はネットワーク呼び出し前の入力検証に失敗したことを表します。
var ErrInvalidInput = errors.New("invalid input")

// SourceImage はユーザーがアップロードした元画像です。
type SourceImage struct {
	FileName string
	MimeType string
	Data     []byte
}

// NewSourceImage は宣言された MIME タイプが空または application/octet-stream の場合に
// 中身から判定し直した SourceImage を作成します。
func NewSourceImage(fileName, declaredMIME string, data []byte) (SourceImage, error) {
	mimeType := strings.TrimSpace(declaredMIME)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			mimeType = strings.TrimSpace(mimeType[:i])
		}
	}

	src := SourceImage{FileName: fileName, MimeType: mimeType, Data: data}
	if err := src.Validate(); err != nil {
		return SourceImage{}, err
	}
	return src, nil
}

// Validate は画像データが空でなく、画像の MIME タイプを持つことを確認します。
func (s SourceImage) Validate() error {
	if len(s.Data) == 0 {
		return fmt.Errorf("%w: source image is empty", ErrInvalidInput)
	}
	if !strings.HasPrefix(s.MimeType, "image/") {
		return fmt.Errorf("%w: source is not an image (%s)", ErrInvalidInput, s.MimeType)
	}
	return nil
}

// GenerationRequest は1回の画像生成呼び出しに必要な値です。永続化はされません。
type GenerationRequest struct {
	Image      []byte
	MimeType   string
	Prompt     string
	StyleLabel string
}

// Validate は画像とプロンプトが揃っているかを確認します。
func (r GenerationRequest) Validate() error {
	if len(r.Image) == 0 {
		return fmt.Errorf("%w: missing image", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: missing prompt", ErrInvalidInput)
	}
	return nil
}

// Output は生成APIの応答をアダプター境界で一度だけ判定した結果です。
// ImageOutput か TextOutput のどちらかになります。
type Output interface {
	isOutput()
}

// ImageOutput は画像が返ってきた場合の応答です。
type ImageOutput struct {
	MimeType string
	Data     []byte
}

// TextOutput は画像の代わりにテキストが返ってきた場合の応答です。
// コンテンツポリシー等による拒否のシグナルとして扱います。
type TextOutput struct {
	Text string
}

func (ImageOutput) isOutput() {}
func (TextOutput) isOutput()  {}

// GenerationResult は成功（ImageURI）か失敗（Err）のいずれか一方を保持します。
type GenerationResult struct {
	ImageURI string
	Err      error
}

// Succeeded は生成結果に画像が含まれているかを返します。
func (r GenerationResult) Succeeded() bool {
	return r.Err == nil && r.ImageURI != ""
}

// Success は成功結果を作成します。
func Success(imageURI string) GenerationResult {
	return GenerationResult{ImageURI: imageURI}
}

// Failure は失敗結果を作成します。
func Failure(err error) GenerationResult {
	if err == nil {
		err = errors.New("image generation failed")
	}
	return GenerationResult{Err: err}
}
