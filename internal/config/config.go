package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultModel              = "gemini-2.5-flash-image"
	DefaultCatalogPath        = "styles.yaml"
	DefaultProfilePrompt      = "Create a Kawaii couple portrait of A and B. Intimate close-up framing, warm tones, romantic atmosphere perfect for celebration."
	defaultBatchSize          = 2
	defaultBatchDelayMS       = 2000
	defaultTimeoutSeconds     = 180
	defaultCompressionQuality = 75
	defaultWebAddr            = ":8080"
)

// ErrMissingAPIKey は GEMINI_API_KEY が設定されていないことを表します。
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is required")

// Config は環境変数から読み込むアプリケーション設定です。
type Config struct {
	GeminiAPIKey       string
	GeminiModel        string
	GeminiAspectRatio  string
	GeminiSystemPrompt string

	CatalogPath          string
	CatalogFormat        string
	DefaultProfilePrompt string

	BatchSize      int
	BatchDelay     time.Duration
	HTTPTimeout    time.Duration
	RequestTimeout time.Duration

	CompressSource     bool
	CompressionQuality int

	WebAddr   string
	OutputDir string
	LogLevel  string
}

// Load は .env があれば読み込んだ上で環境変数から設定を組み立てます。
// 数値の不正な値は既定値に戻します。API キーの有無はここでは検証しません。
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		GeminiAPIKey:         strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:          getEnv("GEMINI_MODEL", DefaultModel),
		GeminiAspectRatio:    getEnv("GEMINI_ASPECT_RATIO", ""),
		GeminiSystemPrompt:   getEnv("GEMINI_SYSTEM_PROMPT", ""),
		CatalogPath:          getEnv("CATALOG_PATH", DefaultCatalogPath),
		CatalogFormat:        strings.ToLower(getEnv("CATALOG_FORMAT", "auto")),
		DefaultProfilePrompt: getEnv("DEFAULT_PROFILE_PROMPT", DefaultProfilePrompt),
		BatchSize:            getEnvInt("BATCH_SIZE", defaultBatchSize),
		BatchDelay:           time.Duration(getEnvInt("BATCH_DELAY_MS", defaultBatchDelayMS)) * time.Millisecond,
		HTTPTimeout:          time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second,
		RequestTimeout:       time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second,
		CompressSource:       getEnvBool("COMPRESS_SOURCE", false),
		CompressionQuality:   getEnvInt("COMPRESSION_QUALITY", defaultCompressionQuality),
		WebAddr:              getEnv("WEB_ADDR", defaultWebAddr),
		OutputDir:            getEnv("OUTPUT_DIR", "."),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if cfg.BatchSize < 1 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = defaultBatchDelayMS * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.CompressionQuality < 1 || cfg.CompressionQuality > 100 {
		cfg.CompressionQuality = defaultCompressionQuality
	}
	return cfg
}

// RequireAPIKey は生成を行うコマンドの前に API キーの有無を確認します。
func (c Config) RequireAPIKey() error {
	if c.GeminiAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// LogAttrs は秘密情報を含まない形で設定内容をログ用の属性にします。
// API キーは有無と長さだけを出力します。
func (c Config) LogAttrs() []any {
	return []any{
		"api_key_set", c.GeminiAPIKey != "",
		"api_key_len", len(c.GeminiAPIKey),
		"model", c.GeminiModel,
		"aspect_ratio", c.GeminiAspectRatio,
		"system_prompt_set", c.GeminiSystemPrompt != "",
		"catalog", c.CatalogPath,
		"catalog_format", c.CatalogFormat,
		"batch_size", c.BatchSize,
		"batch_delay", c.BatchDelay,
	}
}

// SlogLevel は LOG_LEVEL を slog.Level に変換します。
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger はサーバーでは JSON、CLI ではテキスト形式のロガーを作成します。
func (c Config) NewLogger(w io.Writer, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
