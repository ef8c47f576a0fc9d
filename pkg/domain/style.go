package domain

import (
	"regexp"
	"strings"
)

// StyleType はスタイルが一人用かカップル用かを区別します。
type StyleType string

const (
	StyleTypeSingle StyleType = "single"
	StyleTypeCouple StyleType = "couple"
)

// StyleCategory は選択可能なテーマ（画風）の定義です。
// カタログから一度だけ読み込まれ、以降は変更されません。
type StyleCategory struct {
	ID             string       `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name"`
	Type           StyleType    `json:"type" yaml:"type"`
	Gender         string       `json:"gender,omitempty" yaml:"gender,omitempty"`
	Title          string       `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle       string       `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	ProfilePrompt  string       `json:"profilePrompt" yaml:"profilePrompt"`
	GalleryPrompts []string     `json:"galleryPrompts" yaml:"galleryPrompts"`
	Details        StyleDetails `json:"details" yaml:"details"`
}

// StyleDetails はタグや雰囲気、配色などの表示用メタデータです。
type StyleDetails struct {
	Tags  []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Vibe  string     `json:"vibe,omitempty" yaml:"vibe,omitempty"`
	Theme StyleTheme `json:"theme" yaml:"theme"`
}

// StyleTheme はテーマカラー、グラデーション、装飾用の絵文字セットです。
type StyleTheme struct {
	Color    string   `json:"color,omitempty" yaml:"color,omitempty"`
	Gradient string   `json:"gradient,omitempty" yaml:"gradient,omitempty"`
	Emojis   []string `json:"emojis,omitempty" yaml:"emojis,omitempty"`
}

// IsUsable はプロフィール用プロンプトとギャラリー用プロンプトが揃っているかを返します。
func (s StyleCategory) IsUsable() bool {
	if strings.TrimSpace(s.ProfilePrompt) == "" {
		return false
	}
	for _, p := range s.GalleryPrompts {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

// Label は生成リクエストに付与するスタイル名を返します。
func (s StyleCategory) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// StyleID は表示名からスタイルIDを導出します。
// 小文字化した上で英数字以外の連続を "-" に置き換えます。
func StyleID(name string) string {
	return nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
}
