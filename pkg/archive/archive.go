package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shouni/couplai/pkg/domain"
	"github.com/shouni/couplai/pkg/gallery"
)

const (
	fallbackName        = "couplai"
	profileFileName     = "profile-generated.png"
	lightViewerFileName = "profile-light.html"
	darkViewerFileName  = "profile-dark.html"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeName は英数字以外を "-" に置き換えて小文字化します。
// 結果が空の場合は "couplai" を返します。
func SanitizeName(name string) string {
	s := strings.ToLower(unsafeNameChars.ReplaceAllString(name, "-"))
	if s == "" {
		return fallbackName
	}
	return s
}

// ImageFetcher は画像参照をバイト列に解決します。fetcher.Fetcher がこれを満たします。
type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Input はアーカイブ作成に必要な生成結果一式です。
// Histories と Active はスロット順に対応します。
type Input struct {
	ProfileImage string
	Histories    [][]string
	Active       []int
	Source       domain.SourceImage
	StyleName    string
	SubjectName  string
}

// InputFromGallery はギャラリーの現在の状態から Input を組み立てます。
func InputFromGallery(g *gallery.Gallery, profile string, src domain.SourceImage, styleName, subjectName string) Input {
	in := Input{
		ProfileImage: profile,
		Source:       src,
		StyleName:    styleName,
		SubjectName:  subjectName,
	}
	for _, v := range g.Snapshot() {
		in.Histories = append(in.Histories, v.History)
		in.Active = append(in.Active, v.Active)
	}
	return in
}

func (in Input) validate() error {
	if strings.TrimSpace(in.ProfileImage) == "" {
		return fmt.Errorf("%w: profile image is missing", domain.ErrInvalidInput)
	}
	if len(in.Source.Data) == 0 {
		return fmt.Errorf("%w: source image is missing", domain.ErrInvalidInput)
	}
	if len(in.Active) != len(in.Histories) {
		return fmt.Errorf("%w: histories (%d) and active indices (%d) differ in length", domain.ErrInvalidInput, len(in.Histories), len(in.Active))
	}
	for i, h := range in.Histories {
		if len(h) == 0 {
			return fmt.Errorf("%w: slot %d has empty history", domain.ErrInvalidInput, i)
		}
		if in.Active[i] < 0 || in.Active[i] >= len(h) {
			return fmt.Errorf("%w: slot %d active index %d out of range", domain.ErrInvalidInput, i, in.Active[i])
		}
	}
	return nil
}

// File はアーカイブ内の1ファイルです。Name はフォルダからの相対パスです。
type File struct {
	Name string
	Data []byte
}

// Bundle は書き出し前の完成したアーカイブ内容です。
type Bundle struct {
	FolderName string
	ZipName    string
	Files      []File
	ModTime    time.Time
}

// WriteZip はフォルダエントリを先頭に置いた ZIP を w に書き出します。
func (b *Bundle) WriteZip(w io.Writer) error {
	zw := zip.NewWriter(w)

	if _, err := zw.CreateHeader(&zip.FileHeader{
		Name:     b.FolderName + "/",
		Modified: b.ModTime,
	}); err != nil {
		return fmt.Errorf("フォルダエントリの作成に失敗しました: %w", err)
	}

	for _, f := range b.Files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     path.Join(b.FolderName, f.Name),
			Method:   zip.Deflate,
			Modified: b.ModTime,
		})
		if err != nil {
			return fmt.Errorf("ZIPエントリの作成に失敗しました (%s): %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("ZIPエントリの書き込みに失敗しました (%s): %w", f.Name, err)
		}
	}
	return zw.Close()
}

// Bytes は ZIP 全体をメモリ上に作成して返します。
func (b *Bundle) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.WriteZip(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Saver は完成した ZIP を保存し、保存先を返します。
type Saver interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Builder は画像参照を取得してアーカイブを組み立てます。
type Builder struct {
	fetcher ImageFetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewBuilder は ImageFetcher を注入して Builder を作成します。
func NewBuilder(fetcher ImageFetcher, logger *slog.Logger) (*Builder, error) {
	if fetcher == nil {
		return nil, errors.New("image fetcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{fetcher: fetcher, logger: logger, now: time.Now}, nil
}

// Build は全ての画像を取得してから Bundle を作成します。
// 1件でも取得に失敗した場合は何も返さずエラーになります。
func (b *Builder) Build(ctx context.Context, in Input) (*Bundle, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	name := SanitizeName(in.SubjectName)
	bundle := &Bundle{
		FolderName: name + "-profile",
		ZipName:    name + "-profile.zip",
		ModTime:    b.now(),
	}

	bundle.Files = append(bundle.Files, File{Name: sourceFileName(in.Source.FileName), Data: in.Source.Data})

	profile, err := b.fetcher.Fetch(ctx, in.ProfileImage)
	if err != nil {
		return nil, fmt.Errorf("プロフィール画像の取得に失敗しました: %w", err)
	}
	bundle.Files = append(bundle.Files, File{Name: profileFileName, Data: profile})

	activePaths := make([]string, 0, len(in.Histories))
	for i, history := range in.Histories {
		for v, ref := range history {
			fileName := fmt.Sprintf("gallery-%d-v%d.png", i+1, v+1)
			data, err := b.fetcher.Fetch(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("ギャラリー画像の取得に失敗しました (%s): %w", fileName, err)
			}
			bundle.Files = append(bundle.Files, File{Name: fileName, Data: data})
			if v == in.Active[i] {
				activePaths = append(activePaths, fileName)
			}
		}
	}

	page := viewerPage{
		Title:        headingOrDefault(in.SubjectName),
		Subtitle:     strings.TrimSpace(in.StyleName) + " Collection",
		ProfilePath:  profileFileName,
		GalleryPaths: activePaths,
	}
	for _, v := range []struct {
		name  string
		theme Theme
	}{
		{lightViewerFileName, ThemeLight},
		{darkViewerFileName, ThemeDark},
	} {
		html, err := renderViewer(page, v.theme)
		if err != nil {
			return nil, err
		}
		bundle.Files = append(bundle.Files, File{Name: v.name, Data: html})
	}

	b.logger.InfoContext(ctx, "アーカイブを作成しました", "zip", bundle.ZipName, "files", len(bundle.Files))
	return bundle, nil
}

// Export はアーカイブを作成して Saver に渡します。
// 保存は ZIP 全体が完成した後に1回だけ行われます。
func (b *Builder) Export(ctx context.Context, in Input, saver Saver) (string, error) {
	if saver == nil {
		return "", errors.New("saver is required")
	}
	bundle, err := b.Build(ctx, in)
	if err != nil {
		return "", err
	}
	data, err := bundle.Bytes()
	if err != nil {
		return "", err
	}
	location, err := saver.Save(ctx, bundle.ZipName, data)
	if err != nil {
		return "", fmt.Errorf("アーカイブの保存に失敗しました: %w", err)
	}
	return location, nil
}

func sourceFileName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	return "source-" + base
}

func headingOrDefault(name string) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	return "Lovers"
}
