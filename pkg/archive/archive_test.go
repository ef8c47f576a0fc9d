package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/couplai/pkg/domain"
	"github.com/shouni/couplai/pkg/gallery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapFetcher は参照文字列をそのまま中身として返すフェッチャーです。
type mapFetcher struct {
	fail    map[string]bool
	fetched []string
}

func (f *mapFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	f.fetched = append(f.fetched, ref)
	if f.fail[ref] {
		return nil, errors.New("fetch failed: " + ref)
	}
	return []byte("bytes-of-" + ref), nil
}

type recordingSaver struct {
	calls int
	name  string
	data  []byte
}

func (s *recordingSaver) Save(ctx context.Context, name string, data []byte) (string, error) {
	s.calls++
	s.name = name
	s.data = data
	return "mem://" + name, nil
}

func testInput() Input {
	return Input{
		ProfileImage: "profile",
		Histories:    [][]string{{"a1", "a2", "a3"}, {"b1"}},
		Active:       []int{1, 0},
		Source:       domain.SourceImage{FileName: "us.jpg", MimeType: "image/jpeg", Data: []byte("raw")},
		StyleName:    "Kawaii",
		SubjectName:  "Ana & Li!",
	}
}

func newTestBuilder(t *testing.T, f ImageFetcher) *Builder {
	t.Helper()
	b, err := NewBuilder(f, nil)
	require.NoError(t, err)
	return b
}

func zipEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = b
	}
	return out
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "ana---li-", SanitizeName("Ana & Li!"))
	assert.Equal(t, "couplai", SanitizeName(""))
	assert.Equal(t, "ren-mio", SanitizeName("Ren_Mio"))
	assert.Equal(t, "--", SanitizeName("愛の"), "非ASCIIも置き換える")
}

func TestBuilder_Build(t *testing.T) {
	f := &mapFetcher{}
	b := newTestBuilder(t, f)

	bundle, err := b.Build(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, "ana---li--profile", bundle.FolderName)
	assert.Equal(t, "ana---li--profile.zip", bundle.ZipName)

	var names []string
	for _, file := range bundle.Files {
		names = append(names, file.Name)
	}
	assert.Equal(t, []string{
		"source-us.jpg",
		"profile-generated.png",
		"gallery-1-v1.png",
		"gallery-1-v2.png",
		"gallery-1-v3.png",
		"gallery-2-v1.png",
		"profile-light.html",
		"profile-dark.html",
	}, names, "全スロットの全バージョンが含まれるのだ")
	assert.Equal(t, []byte("raw"), bundle.Files[0].Data)
	assert.Equal(t, []byte("bytes-of-a3"), bundle.Files[4].Data)
}

func TestBuilder_ViewerReferencesActiveVersions(t *testing.T) {
	bundle, err := newTestBuilder(t, &mapFetcher{}).Build(context.Background(), testInput())
	require.NoError(t, err)

	light := string(bundle.Files[6].Data)
	dark := string(bundle.Files[7].Data)

	for _, html := range []string{light, dark} {
		assert.Contains(t, html, `src="gallery-1-v2.png"`)
		assert.Contains(t, html, `src="gallery-2-v1.png"`)
		assert.NotContains(t, html, "gallery-1-v1.png")
		assert.NotContains(t, html, "gallery-1-v3.png")
		assert.Contains(t, html, `src="profile-generated.png"`)
		assert.Contains(t, html, "Ana &amp; Li!")
		assert.Contains(t, html, "Kawaii Collection")
		assert.Less(t, strings.Index(html, "gallery-1-v2.png"), strings.Index(html, "gallery-2-v1.png"), "スロット順に並ぶ")
	}
	assert.Contains(t, light, "#f8f9fa")
	assert.Contains(t, light, "#ffffff")
	assert.Contains(t, dark, "#1a1a1a")
	assert.Contains(t, dark, "#262626")
	assert.Contains(t, dark, "#f3f4f6")
}

func TestBuilder_HeadingFallback(t *testing.T) {
	in := testInput()
	in.SubjectName = ""
	bundle, err := newTestBuilder(t, &mapFetcher{}).Build(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "couplai-profile", bundle.FolderName)
	assert.Contains(t, string(bundle.Files[6].Data), "<h1>Lovers</h1>")
}

func TestBuilder_AllOrNothing(t *testing.T) {
	f := &mapFetcher{fail: map[string]bool{"b1": true}}
	saver := &recordingSaver{}

	_, err := newTestBuilder(t, f).Export(context.Background(), testInput(), saver)
	require.Error(t, err)
	assert.Equal(t, 0, saver.calls, "取得に失敗したら何も保存しない")
}

func TestBuilder_InvalidInput(t *testing.T) {
	b := newTestBuilder(t, &mapFetcher{})

	in := testInput()
	in.Active = []int{3, 0}
	_, err := b.Build(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = testInput()
	in.ProfileImage = ""
	_, err = b.Build(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewBuilder(nil, nil)
	assert.Error(t, err)
}

func TestBuilder_Export(t *testing.T) {
	saver := &recordingSaver{}
	loc, err := newTestBuilder(t, &mapFetcher{}).Export(context.Background(), testInput(), saver)
	require.NoError(t, err)

	assert.Equal(t, "mem://ana---li--profile.zip", loc)
	assert.Equal(t, 1, saver.calls)

	entries := zipEntries(t, saver.data)
	assert.Contains(t, entries, "ana---li--profile/", "フォルダエントリがある")
	assert.Equal(t, []byte("bytes-of-profile"), entries["ana---li--profile/profile-generated.png"])
	assert.Equal(t, []byte("bytes-of-a1"), entries["ana---li--profile/gallery-1-v1.png"])
	assert.Len(t, entries, 9)
}

func TestInputFromGallery(t *testing.T) {
	g := gallery.New()
	g.AddSlot(0, "a1")
	_, err := g.AddVersion(0, "a2")
	require.NoError(t, err)
	g.AddSlot(2, "c1")

	in := InputFromGallery(g, "p", domain.SourceImage{}, "Neon", "Sam")
	assert.Equal(t, [][]string{{"a1", "a2"}, {"c1"}}, in.Histories)
	assert.Equal(t, []int{1, 0}, in.Active)
}

func TestDiskSaver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	loc, err := DiskSaver{Dir: dir}.Save(context.Background(), "x-profile.zip", []byte("zip"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x-profile.zip"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, []byte("zip"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "一時ファイルが残らない")
}

func TestSourceFileName(t *testing.T) {
	assert.Equal(t, "source-us.png", sourceFileName("../../us.png"))
	assert.Equal(t, "source-us.png", sourceFileName(`C:\photos\us.png`))
	assert.Equal(t, "source-image", sourceFileName(""))
}
