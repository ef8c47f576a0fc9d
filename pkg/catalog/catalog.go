package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/shouni/couplai/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// Format はカタログファイルの形式です。
type Format string

const (
	FormatAuto Format = "auto"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Config はカタログの読み込み設定です。
type Config struct {
	Format               Format
	Path                 string
	DefaultProfilePrompt string
	Reader               remoteio.InputReader
	Logger               *slog.Logger
}

// DetectFormat は拡張子からカタログ形式を判定します。
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		return FormatTSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("カタログ形式を判定できません: %s", path)
}

// NewLoader は設定された形式に対応する Loader を返します。
func NewLoader(cfg Config) (Loader, error) {
	format := Format(strings.ToLower(string(cfg.Format)))
	if format == "" || format == FormatAuto {
		f, err := DetectFormat(cfg.Path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	switch format {
	case FormatTSV:
		return &TSVLoader{Reader: cfg.Reader, Path: cfg.Path, DefaultProfilePrompt: cfg.DefaultProfilePrompt, Logger: cfg.Logger}, nil
	case FormatJSON:
		return &JSONLoader{Reader: cfg.Reader, Path: cfg.Path, DefaultProfilePrompt: cfg.DefaultProfilePrompt, Logger: cfg.Logger}, nil
	case FormatYAML:
		return &YAMLLoader{Reader: cfg.Reader, Path: cfg.Path, DefaultProfilePrompt: cfg.DefaultProfilePrompt, Logger: cfg.Logger}, nil
	}
	return nil, fmt.Errorf("未対応のカタログ形式です: %s", cfg.Format)
}

// Catalog は読み込み後に変更されないスタイルの一覧です。
type Catalog struct {
	styles []domain.StyleCategory
	byID   map[string]int
}

// New は設定に従ってカタログを読み込みます。
func New(ctx context.Context, cfg Config) (*Catalog, error) {
	loader, err := NewLoader(cfg)
	if err != nil {
		return nil, err
	}
	return Load(ctx, loader, cfg.Logger)
}

// Load は Loader から読み込んだスタイルを正規化してカタログにします。
// プロンプトの揃っていないレコードは除外し、ID の重複は先勝ちです。
func Load(ctx context.Context, loader Loader, logger *slog.Logger) (*Catalog, error) {
	logger = loggerOrDefault(logger)
	raw, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	c := &Catalog{byID: make(map[string]int, len(raw))}
	for _, s := range raw {
		s = normalize(s)
		if !s.IsUsable() {
			logger.Warn("プロンプトが不足しているスタイルをスキップします", "id", s.ID, "name", s.Name)
			continue
		}
		if _, dup := c.byID[s.ID]; dup {
			logger.Warn("IDが重複しているスタイルをスキップします", "id", s.ID)
			continue
		}
		c.byID[s.ID] = len(c.styles)
		c.styles = append(c.styles, s)
	}
	logger.Info("スタイルカタログを読み込みました", "styles", len(c.styles))
	return c, nil
}

func normalize(s domain.StyleCategory) domain.StyleCategory {
	s.Name = strings.TrimSpace(s.Name)
	s.ID = strings.TrimSpace(s.ID)
	if s.ID == "" {
		s.ID = domain.StyleID(s.Name)
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.Type == "" {
		s.Type = domain.StyleTypeCouple
	}
	s.ProfilePrompt = strings.TrimSpace(s.ProfilePrompt)

	prompts := make([]string, 0, len(s.GalleryPrompts))
	for _, p := range s.GalleryPrompts {
		if p = strings.TrimSpace(p); p != "" {
			prompts = append(prompts, p)
		}
	}
	s.GalleryPrompts = prompts
	return s
}

// Find は ID でスタイルを検索します。
func (c *Catalog) Find(id string) (domain.StyleCategory, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.StyleCategory{}, false
	}
	return c.styles[i], true
}

// All は読み込み順のスタイル一覧のコピーを返します。
func (c *Catalog) All() []domain.StyleCategory {
	return append([]domain.StyleCategory(nil), c.styles...)
}

// Shuffled はシャッフルしたスタイル一覧を返します。r が nil の場合は既定の乱数源を使います。
func (c *Catalog) Shuffled(r *rand.Rand) []domain.StyleCategory {
	out := c.All()
	shuffle := rand.Shuffle
	if r != nil {
		shuffle = r.Shuffle
	}
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Len はスタイル数を返します。
func (c *Catalog) Len() int {
	return len(c.styles)
}
