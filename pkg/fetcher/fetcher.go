package fetcher

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shouni/couplai/pkg/imgutil"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// HTTPClient は URL からバイト列を取得するためのインターフェースです。
// httpkit.Client がこれを満たします。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Fetcher は画像参照（data URI、http(s) URL、ストレージ URI）をバイト列に解決します。
// data URI と http(s) 以外は reader に委ねます。remoteio.UniversalInputReader なら
// gs:// と s3:// 以外をローカルパスとして開きます。
type Fetcher struct {
	httpClient HTTPClient
	reader     remoteio.InputReader
	urlCheck   func(rawURL string) (bool, error)
}

// Option は Fetcher の設定を変更します。
type Option func(*Fetcher)

// WithURLCheck は http(s) URL の検証関数を差し替えます。
func WithURLCheck(check func(rawURL string) (bool, error)) Option {
	return func(f *Fetcher) {
		f.urlCheck = check
	}
}

// New は依存関係を注入して Fetcher を初期化します。
// httpClient と reader はどちらも nil を許容し、その場合は該当するスキームの取得がエラーになります。
func New(httpClient HTTPClient, reader remoteio.InputReader, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: httpClient,
		reader:     reader,
		urlCheck:   IsSafeURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch は参照先の画像データを取得します。
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("画像の参照が空です")
	}

	if imgutil.IsDataURI(ref) {
		_, data, err := imgutil.DecodeDataURI(ref)
		return data, err
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		safe, err := f.urlCheck(ref)
		if err != nil {
			return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
		}
		if !safe {
			return nil, fmt.Errorf("安全ではないURLが指定されました: %s", ref)
		}
		if f.httpClient == nil {
			return nil, fmt.Errorf("http client is not configured: %s", ref)
		}
		return f.httpClient.FetchBytes(ctx, ref)
	}

	if f.reader == nil {
		return nil, fmt.Errorf("reader is not configured: %s", ref)
	}
	rc, err := f.reader.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
