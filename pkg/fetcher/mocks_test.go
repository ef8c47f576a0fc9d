package fetcher

import (
	"context"
	"io"
	"strings"
)

type mockHTTPClient struct {
	data    []byte
	err     error
	lastURL string
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.lastURL = url
	return m.data, m.err
}

type mockReader struct {
	files   map[string]string
	openErr error
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return io.NopCloser(strings.NewReader(m.files[uri])), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	for name := range m.files {
		if err := fn(name); err != nil {
			return err
		}
	}
	return nil
}
