package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DiskSaver は ZIP をディレクトリに保存します。
// 一時ファイルに書き込んでからリネームするため、途中の状態のファイルは残りません。
type DiskSaver struct {
	Dir string
}

func (s DiskSaver) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("出力ディレクトリを作成できませんでした: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+name+"-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}

	dest := filepath.Join(dir, filepath.Base(name))
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return dest, nil
}
