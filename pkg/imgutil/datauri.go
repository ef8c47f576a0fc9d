package imgutil

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const defaultImageMIME = "image/png"

// ErrNotDataURI は data URI 形式でない文字列を渡された場合のエラーです。
var ErrNotDataURI = errors.New("not a data URI")

// IsDataURI は文字列が data: スキームかどうかを返します。
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// EncodeDataURI は画像データを data:<mime>;base64,<payload> 形式に変換します。
// MIME タイプが空の場合は image/png とみなします。
func EncodeDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = defaultImageMIME
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURI は data URI を MIME タイプとバイト列に戻します。
// base64 以外のエンコーディングには対応していません。
func DecodeDataURI(ref string) (string, []byte, error) {
	if !IsDataURI(ref) {
		return "", nil, ErrNotDataURI
	}

	header, payload, found := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !found {
		return "", nil, fmt.Errorf("data URI にペイロードがありません")
	}

	mimeType, params, _ := strings.Cut(header, ";")
	if !strings.Contains(params, "base64") {
		return "", nil, fmt.Errorf("base64 以外の data URI は未対応です: %q", header)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data URI のデコードに失敗しました: %w", err)
	}
	if mimeType == "" {
		mimeType = DetectImageMIME(data)
	}
	return mimeType, data, nil
}

// DetectImageMIME はバイト列から画像の MIME タイプを推定します。
// 画像と判定できない場合は image/png を返します。
func DetectImageMIME(data []byte) string {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return defaultImageMIME
	}
	return mimeType
}
