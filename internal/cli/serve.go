package cli

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/couplai/internal/server"
	"github.com/shouni/couplai/pkg/domain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP wizard API",
		Long:  "Serve the generation wizard over HTTP on $WEB_ADDR (default :8080).",
		Run:   runServe,
	}
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, os.Stdout, true)
	if err != nil {
		exitErr("init", err)
	}

	h, err := server.NewHandler(server.Options{
		Generator:   a.orchestrator,
		Styles:      a.catalog,
		Builder:     a.builder,
		Logger:      a.logger,
		BaseContext: ctx,
		Shuffle: func(styles []domain.StyleCategory) {
			rand.Shuffle(len(styles), func(i, j int) { styles[i], styles[j] = styles[j], styles[i] })
		},
	})
	if err != nil {
		exitErr("init", err)
	}

	srv := &http.Server{
		Addr:              a.cfg.WebAddr,
		Handler:           server.NewRouter(h, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("web started", "addr", a.cfg.WebAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
