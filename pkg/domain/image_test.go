package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var minimalPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

func TestNewSourceImage(t *testing.T) {
	t.Run("宣言がoctet-streamなら中身からMIMEを判定するのだ", func(t *testing.T) {
		src, err := NewSourceImage("me.png", "application/octet-stream", minimalPNG)
		require.NoError(t, err)
		assert.Equal(t, "image/png", src.MimeType)
	})

	t.Run("宣言されたMIMEのパラメータは取り除く", func(t *testing.T) {
		src, err := NewSourceImage("me.jpg", "image/jpeg; charset=binary", []byte{0xFF, 0xD8, 0xFF})
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", src.MimeType)
	})

	t.Run("空データは入力エラー", func(t *testing.T) {
		_, err := NewSourceImage("empty.png", "image/png", nil)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("画像でないデータは入力エラー", func(t *testing.T) {
		_, err := NewSourceImage("note.txt", "", []byte("hello world"))
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestGenerationRequest_Validate(t *testing.T) {
	assert.NoError(t, GenerationRequest{Image: minimalPNG, Prompt: "p"}.Validate())
	assert.ErrorIs(t, GenerationRequest{Prompt: "p"}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, GenerationRequest{Image: minimalPNG, Prompt: "  "}.Validate(), ErrInvalidInput)
}

func TestGenerationResult(t *testing.T) {
	ok := Success("data:image/png;base64,AAAA")
	assert.True(t, ok.Succeeded())
	assert.NoError(t, ok.Err)

	ng := Failure(nil)
	assert.False(t, ng.Succeeded())
	assert.Error(t, ng.Err)
	assert.Empty(t, ng.ImageURI)
}

func TestStyleCategory(t *testing.T) {
	t.Run("StyleIDは英数字以外の連続をハイフンにする", func(t *testing.T) {
		assert.Equal(t, "kawaii-pop-", StyleID("Kawaii & Pop!"))
		assert.Equal(t, "retro-80s", StyleID("Retro 80s"))
	})

	t.Run("IsUsableはプロンプトが揃っている場合だけtrue", func(t *testing.T) {
		assert.True(t, StyleCategory{ProfilePrompt: "p", GalleryPrompts: []string{"g"}}.IsUsable())
		assert.False(t, StyleCategory{ProfilePrompt: "p", GalleryPrompts: []string{" "}}.IsUsable())
		assert.False(t, StyleCategory{GalleryPrompts: []string{"g"}}.IsUsable())
	})

	t.Run("LabelはNameがなければIDを返す", func(t *testing.T) {
		assert.Equal(t, "neon", StyleCategory{ID: "neon"}.Label())
		assert.Equal(t, "Neon", StyleCategory{ID: "neon", Name: "Neon"}.Label())
	})
}
