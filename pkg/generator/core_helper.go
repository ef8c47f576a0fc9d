package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/couplai/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// parseToOutput は最初の候補 (Candidate) から画像パーツを探し、
// 見つからなければテキストパーツを TextOutput として返します。
func parseToOutput(resp *gemini.Response) (domain.Output, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, errors.New("Geminiからの有効な応答がありませんでした")
	}

	candidate := resp.RawResponse.Candidates[0]

	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return domain.ImageOutput{MimeType: mimeType, Data: part.InlineData.Data}, nil
			}
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
	}

	if s := strings.TrimSpace(text.String()); s != "" {
		return domain.TextOutput{Text: s}, nil
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("画像生成が異常終了しました (FinishReason: %s)", candidate.FinishReason)
	}

	return nil, errors.New("画像データが見つかりませんでした")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
