package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shouni/couplai/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"gopkg.in/yaml.v3"
)

// Loader はスタイル定義の読み込み元です。
// 読み込めたレコードだけを正規化済みの StyleCategory として返します。
type Loader interface {
	Load(ctx context.Context) ([]domain.StyleCategory, error)
}

// readAll は reader 経由でカタログファイルを読み込みます。
func readAll(ctx context.Context, reader remoteio.InputReader, path string) ([]byte, error) {
	if reader == nil {
		return nil, errors.New("カタログの読み込み元が設定されていません")
	}
	rc, err := reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("カタログを開けませんでした (%s): %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("カタログの読み込みに失敗しました (%s): %w", path, err)
	}
	return data, nil
}

// TSVLoader は1行目をスタイル名、2行目以降の各セルをギャラリー用プロンプトとする
// 旧形式のカタログを読み込みます。この形式にはプロフィール用プロンプトがないため、
// DefaultProfilePrompt を全スタイルに使います。
type TSVLoader struct {
	Reader               remoteio.InputReader
	Path                 string
	DefaultProfilePrompt string
	Logger               *slog.Logger
}

func (l *TSVLoader) Load(ctx context.Context) ([]domain.StyleCategory, error) {
	data, err := readAll(ctx, l.Reader, l.Path)
	if err != nil {
		return nil, err
	}
	return parseTSV(data, l.DefaultProfilePrompt, loggerOrDefault(l.Logger)), nil
}

func parseTSV(data []byte, profilePrompt string, logger *slog.Logger) []domain.StyleCategory {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		logger.Warn("TSVカタログの解析に失敗しました。空のカタログとして扱います", "error", err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	header := rows[0]
	styles := make([]domain.StyleCategory, 0, len(header))
	for col, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var prompts []string
		for _, row := range rows[1:] {
			if col >= len(row) {
				continue
			}
			if p := strings.TrimSpace(row[col]); p != "" {
				prompts = append(prompts, p)
			}
		}
		styles = append(styles, domain.StyleCategory{
			ID:             domain.StyleID(name),
			Name:           name,
			Type:           domain.StyleTypeCouple,
			ProfilePrompt:  profilePrompt,
			GalleryPrompts: prompts,
		})
	}
	return styles
}

// record は構造化カタログの1レコードです。
// 旧形式の {id, name, prompts} も受け付け、prompts をギャラリー用プロンプトとして扱います。
type record struct {
	domain.StyleCategory `yaml:",inline"`
	Prompts              []string `json:"prompts,omitempty" yaml:"prompts,omitempty"`
}

func fromRecords(records []record, defaultProfilePrompt string) []domain.StyleCategory {
	styles := make([]domain.StyleCategory, 0, len(records))
	for _, r := range records {
		s := r.StyleCategory
		if len(s.GalleryPrompts) == 0 && len(r.Prompts) > 0 {
			s.GalleryPrompts = r.Prompts
			if strings.TrimSpace(s.ProfilePrompt) == "" {
				s.ProfilePrompt = defaultProfilePrompt
			}
		}
		styles = append(styles, s)
	}
	return styles
}

// JSONLoader は構造化された JSON 配列のカタログを読み込みます。
type JSONLoader struct {
	Reader               remoteio.InputReader
	Path                 string
	DefaultProfilePrompt string
	Logger               *slog.Logger
}

func (l *JSONLoader) Load(ctx context.Context) ([]domain.StyleCategory, error) {
	data, err := readAll(ctx, l.Reader, l.Path)
	if err != nil {
		return nil, err
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		loggerOrDefault(l.Logger).Warn("JSONカタログの解析に失敗しました。空のカタログとして扱います", "path", l.Path, "error", err)
		return nil, nil
	}
	return fromRecords(records, l.DefaultProfilePrompt), nil
}

// YAMLLoader は構造化された YAML シーケンスのカタログを読み込みます。
type YAMLLoader struct {
	Reader               remoteio.InputReader
	Path                 string
	DefaultProfilePrompt string
	Logger               *slog.Logger
}

func (l *YAMLLoader) Load(ctx context.Context) ([]domain.StyleCategory, error) {
	data, err := readAll(ctx, l.Reader, l.Path)
	if err != nil {
		return nil, err
	}
	var records []record
	if err := yaml.Unmarshal(data, &records); err != nil {
		loggerOrDefault(l.Logger).Warn("YAMLカタログの解析に失敗しました。空のカタログとして扱います", "path", l.Path, "error", err)
		return nil, nil
	}
	return fromRecords(records, l.DefaultProfilePrompt), nil
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
