package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shouni/couplai/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiGenerator(t *testing.T) {
	_, err := NewGeminiGenerator(nil, nil)
	assert.Error(t, err, "executorがnilならエラー")
}

func TestGeminiGenerator_GenerateImage(t *testing.T) {
	ctx := context.Background()
	req := domain.GenerationRequest{Image: validPNG, MimeType: "image/png", Prompt: "p", StyleLabel: "Neon"}

	t.Run("画像はdata URIとして返すのだ", func(t *testing.T) {
		gen, err := NewGeminiGenerator(&mockExecutor{out: domain.ImageOutput{MimeType: "image/png", Data: []byte("png")}}, nil)
		require.NoError(t, err)

		res := gen.GenerateImage(ctx, req)
		require.True(t, res.Succeeded())
		assert.Equal(t, "data:image/png;base64,cG5n", res.ImageURI)
	})

	t.Run("テキスト応答は失敗扱いで先頭100文字だけ含める", func(t *testing.T) {
		long := strings.Repeat("x", 150)
		gen, _ := NewGeminiGenerator(&mockExecutor{out: domain.TextOutput{Text: long}}, nil)

		res := gen.GenerateImage(ctx, req)
		assert.False(t, res.Succeeded())
		assert.Empty(t, res.ImageURI)
		assert.ErrorIs(t, res.Err, ErrTextInsteadOfImage)
		assert.Contains(t, res.Err.Error(), strings.Repeat("x", 100))
		assert.NotContains(t, res.Err.Error(), strings.Repeat("x", 101))
	})

	t.Run("エラーは失敗値に変換する", func(t *testing.T) {
		want := errors.New("network down")
		gen, _ := NewGeminiGenerator(&mockExecutor{err: want}, nil)

		res := gen.GenerateImage(ctx, req)
		assert.False(t, res.Succeeded())
		assert.ErrorIs(t, res.Err, want)
	})

	t.Run("出力がnilなら失敗", func(t *testing.T) {
		gen, _ := NewGeminiGenerator(&mockExecutor{}, nil)
		res := gen.GenerateImage(ctx, req)
		assert.False(t, res.Succeeded())
	})
}

func TestGeminiGenerator_RequestTimeout(t *testing.T) {
	req := domain.GenerationRequest{Image: validPNG, MimeType: "image/png", Prompt: "p", StyleLabel: "Neon"}

	t.Run("期限は呼び出しごとに付く", func(t *testing.T) {
		var deadlines []time.Time
		exec := &mockExecutor{generateFunc: func(ctx context.Context, _ domain.GenerationRequest) (domain.Output, error) {
			d, ok := ctx.Deadline()
			require.True(t, ok, "呼び出しには期限が必要")
			deadlines = append(deadlines, d)
			return domain.ImageOutput{MimeType: "image/png", Data: []byte("png")}, nil
		}}
		gen, err := NewGeminiGenerator(exec, nil, WithRequestTimeout(time.Minute))
		require.NoError(t, err)

		parent := context.Background()
		require.True(t, gen.GenerateImage(parent, req).Succeeded())
		time.Sleep(5 * time.Millisecond)
		require.True(t, gen.GenerateImage(parent, req).Succeeded())

		require.Len(t, deadlines, 2)
		assert.True(t, deadlines[1].After(deadlines[0]), "2回目は新しい期限を持つ")
		_, parentHasDeadline := parent.Deadline()
		assert.False(t, parentHasDeadline)
	})

	t.Run("遅い1件が期限切れでも次の呼び出しは成功する", func(t *testing.T) {
		calls := 0
		exec := &mockExecutor{generateFunc: func(ctx context.Context, _ domain.GenerationRequest) (domain.Output, error) {
			calls++
			if calls == 1 {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return domain.ImageOutput{MimeType: "image/png", Data: []byte("png")}, nil
		}}
		gen, _ := NewGeminiGenerator(exec, nil, WithRequestTimeout(20*time.Millisecond))

		slow := gen.GenerateImage(context.Background(), req)
		assert.False(t, slow.Succeeded())
		assert.ErrorIs(t, slow.Err, context.DeadlineExceeded)

		next := gen.GenerateImage(context.Background(), req)
		assert.True(t, next.Succeeded())
	})

	t.Run("0なら期限を付けない", func(t *testing.T) {
		exec := &mockExecutor{generateFunc: func(ctx context.Context, _ domain.GenerationRequest) (domain.Output, error) {
			_, ok := ctx.Deadline()
			assert.False(t, ok)
			return domain.ImageOutput{MimeType: "image/png", Data: []byte("png")}, nil
		}}
		gen, _ := NewGeminiGenerator(exec, nil)
		assert.True(t, gen.GenerateImage(context.Background(), req).Succeeded())
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "こん", truncate("こんにちは", 2))
}
