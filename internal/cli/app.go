package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/couplai/internal/config"
	"github.com/shouni/couplai/pkg/archive"
	"github.com/shouni/couplai/pkg/catalog"
	"github.com/shouni/couplai/pkg/fetcher"
	"github.com/shouni/couplai/pkg/generator"
	"github.com/shouni/couplai/pkg/orchestrator"
)

// app はコマンド間で共有する依存関係一式です。
type app struct {
	cfg          config.Config
	logger       *slog.Logger
	catalog      *catalog.Catalog
	orchestrator *orchestrator.Orchestrator
	builder      *archive.Builder
}

// newReader はカタログと画像参照で共有する読み込み元を作成します。
// クラウドのクライアントは持たないため、gs:// と s3:// はエラーになり、それ以外はローカルパスとして開きます。
func newReader() remoteio.InputReader {
	return remoteio.NewUniversalInputReader(nil, nil)
}

func loadCatalog(ctx context.Context, cfg config.Config, reader remoteio.InputReader, logger *slog.Logger) (*catalog.Catalog, error) {
	return catalog.New(ctx, catalog.Config{
		Format:               catalog.Format(cfg.CatalogFormat),
		Path:                 cfg.CatalogPath,
		DefaultProfilePrompt: cfg.DefaultProfilePrompt,
		Reader:               reader,
		Logger:               logger,
	})
}

func coreOptions(cfg config.Config, logger *slog.Logger) generator.CoreOptions {
	return generator.CoreOptions{
		Model:              cfg.GeminiModel,
		AspectRatio:        cfg.GeminiAspectRatio,
		SystemPrompt:       cfg.GeminiSystemPrompt,
		CompressSource:     cfg.CompressSource,
		CompressionQuality: cfg.CompressionQuality,
		Logger:             logger,
	}
}

// newApp は設定から Gemini クライアントなどを一度だけ組み立てます。
func newApp(ctx context.Context, logOut io.Writer, jsonLog bool) (*app, error) {
	cfg := config.Load()
	logger := cfg.NewLogger(logOut, jsonLog)
	slog.SetDefault(logger)
	logger.Info("設定を読み込みました", cfg.LogAttrs()...)

	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	reader := newReader()
	cat, err := loadCatalog(ctx, cfg, reader, logger)
	if err != nil {
		return nil, fmt.Errorf("スタイルカタログの読み込みに失敗しました: %w", err)
	}

	model, err := generator.NewGenaiModel(ctx, cfg.GeminiAPIKey, &http.Client{Timeout: cfg.HTTPTimeout})
	if err != nil {
		return nil, err
	}
	core, err := generator.NewGeminiImageCore(model, coreOptions(cfg, logger))
	if err != nil {
		return nil, err
	}
	gen, err := generator.NewGeminiGenerator(core, logger, generator.WithRequestTimeout(cfg.RequestTimeout))
	if err != nil {
		return nil, err
	}
	orch, err := orchestrator.New(gen, orchestrator.Options{
		BatchSize:  cfg.BatchSize,
		BatchDelay: cfg.BatchDelay,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	f := fetcher.New(httpkit.New(cfg.HTTPTimeout), reader)
	builder, err := archive.NewBuilder(f, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:          cfg,
		logger:       logger,
		catalog:      cat,
		orchestrator: orch,
		builder:      builder,
	}, nil
}
