package archive

import (
	"bytes"
	"fmt"
	"html/template"
)

// Theme は閲覧用HTMLの配色です。
// 値は信頼済みの定数なので template.CSS としてそのまま埋め込みます。
type Theme struct {
	Name       string
	Background template.CSS
	CardBG     template.CSS
	TextMain   template.CSS
	TextSub    template.CSS
	Shadow     template.CSS
	Border     template.CSS
}

var (
	ThemeLight = Theme{
		Name:       "Light",
		Background: "#f8f9fa",
		CardBG:     "#ffffff",
		TextMain:   "#333333",
		TextSub:    "#718096",
		Shadow:     "rgba(0,0,0,0.1)",
		Border:     "#edf2f7",
	}
	ThemeDark = Theme{
		Name:       "Dark",
		Background: "#1a1a1a",
		CardBG:     "#262626",
		TextMain:   "#f3f4f6",
		TextSub:    "#a0aec0",
		Shadow:     "rgba(0,0,0,0.5)",
		Border:     "#404040",
	}
)

type viewerPage struct {
	Title        string
	Subtitle     string
	ProfilePath  string
	GalleryPaths []string
	Theme        Theme
}

// renderViewer はアーカイブ同梱の単体で開けるHTMLを生成します。
// 配色以外は light / dark で共通です。
func renderViewer(page viewerPage, theme Theme) ([]byte, error) {
	var buf bytes.Buffer
	page.Theme = theme
	err := viewerTemplate.Execute(&buf, page)
	if err != nil {
		return nil, fmt.Errorf("閲覧用HTMLの生成に失敗しました (%s): %w", theme.Name, err)
	}
	return buf.Bytes(), nil
}

var viewerTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - {{.Subtitle}} ({{.Theme.Name}})</title>
    <style>
        :root {
            --primary: #FF69B4;
            --bg: {{.Theme.Background}};
            --card-bg: {{.Theme.CardBG}};
            --text-main: {{.Theme.TextMain}};
            --text-sub: {{.Theme.TextSub}};
            --card-shadow: {{.Theme.Shadow}};
            --border-color: {{.Theme.Border}};
        }
        body { font-family: 'Segoe UI', system-ui, sans-serif; background: var(--bg); margin: 0; padding: 0; color: var(--text-main); }
        .container { max-width: 1000px; margin: 40px auto; background: var(--card-bg); border-radius: 30px; overflow: hidden; box-shadow: 0 20px 60px var(--card-shadow); }
        .header-bg { height: 200px; background: linear-gradient(135deg, #FFB7C5, #E0BBE4, #A0D8EF); }
        .profile-section { text-align: center; margin-top: -100px; padding-bottom: 40px; }
        .profile-img-container { width: 200px; height: 200px; margin: 0 auto; border-radius: 50%; padding: 5px; background: var(--card-bg); box-shadow: 0 10px 30px rgba(0,0,0,0.15); }
        .profile-img { width: 100%; height: 100%; border-radius: 50%; object-fit: cover; border: 4px solid var(--primary); }
        .info { margin-top: 20px; padding: 0 20px; }
        h1 { margin: 0; font-size: 2.5em; color: var(--text-main); letter-spacing: -1px; }
        .subtitle { color: var(--primary); font-weight: bold; text-transform: uppercase; letter-spacing: 2px; font-size: 0.9em; margin-top: 5px; }
        .bio { color: var(--text-sub); margin: 10px auto 0; max-width: 500px; line-height: 1.6; }
        .gallery-section { background: var(--bg); padding: 60px 40px; border-top: 1px solid var(--border-color); }
        .gallery-title { text-align: center; color: #cbd5e0; font-weight: bold; letter-spacing: 4px; font-size: 0.8em; margin-bottom: 40px; text-transform: uppercase; }
        .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)); gap: 30px; }
        .card { border-radius: 20px; overflow: hidden; background: var(--card-bg); box-shadow: 0 4px 6px rgba(0,0,0,0.05); border: 1px solid var(--border-color); }
        .card-img { width: 100%; aspect-ratio: 4/5; object-fit: cover; display: block; }
        @media (max-width: 768px) {
            .container { margin: 0; border-radius: 0; }
            .grid { grid-template-columns: 1fr; }
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header-bg"></div>
        <div class="profile-section">
            <div class="profile-img-container">
                <img src="{{.ProfilePath}}" alt="Profile" class="profile-img">
            </div>
            <div class="info">
                <h1>{{.Title}}</h1>
                <div class="subtitle">{{.Subtitle}}</div>
                <div class="bio">✨ A celebration of love, reimagined through the lens of AI art. Generated with CouplAI.</div>
            </div>
        </div>
        <div class="gallery-section">
            <div class="gallery-title">Gallery Highlights</div>
            <div class="grid">
{{- range .GalleryPaths}}
                <div class="card"><img src="{{.}}" class="card-img" loading="lazy"></div>
{{- end}}
            </div>
        </div>
    </div>
</body>
</html>
`))
