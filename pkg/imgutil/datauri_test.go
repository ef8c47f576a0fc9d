package imgutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURI(t *testing.T) {
	t.Run("エンコードしたものをデコードすると元に戻る", func(t *testing.T) {
		uri := EncodeDataURI("image/webp", []byte("webp-bytes"))
		assert.Equal(t, "data:image/webp;base64,d2VicC1ieXRlcw==", uri)

		mimeType, data, err := DecodeDataURI(uri)
		require.NoError(t, err)
		assert.Equal(t, "image/webp", mimeType)
		assert.Equal(t, []byte("webp-bytes"), data)
	})

	t.Run("MIMEが空ならimage/pngとして扱う", func(t *testing.T) {
		assert.Equal(t, "data:image/png;base64,", EncodeDataURI("", nil))
	})

	t.Run("data URIでなければErrNotDataURI", func(t *testing.T) {
		_, _, err := DecodeDataURI("https://example.com/a.png")
		assert.ErrorIs(t, err, ErrNotDataURI)
	})

	t.Run("カンマのないdata URIはエラー", func(t *testing.T) {
		_, _, err := DecodeDataURI("data:image/png;base64")
		assert.Error(t, err)
	})

	t.Run("base64でないdata URIはエラー", func(t *testing.T) {
		_, _, err := DecodeDataURI("data:text/plain,hello")
		assert.Error(t, err)
	})

	t.Run("壊れたbase64はエラー", func(t *testing.T) {
		_, _, err := DecodeDataURI("data:image/png;base64,@@@")
		assert.Error(t, err)
	})
}

func TestDetectImageMIME(t *testing.T) {
	assert.Equal(t, "image/png", DetectImageMIME([]byte("\x89PNG\r\n\x1a\n0000")))
	assert.Equal(t, "image/jpeg", DetectImageMIME([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, "image/png", DetectImageMIME([]byte("plain text")))
}
