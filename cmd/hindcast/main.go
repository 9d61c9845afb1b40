package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/rainfall-hindcast/internal/adapter/http"
	"github.com/couchcryptid/rainfall-hindcast/internal/analysis"
	"github.com/couchcryptid/rainfall-hindcast/internal/config"
	"github.com/couchcryptid/rainfall-hindcast/internal/observability"
	"github.com/couchcryptid/rainfall-hindcast/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store := repository.NewStore(cfg.DataDir, cfg.YearPolicy, cfg.LoadCacheSize, logger, metrics)
	svc := analysis.New(store, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := svc.CheckReadiness(ctx); err != nil {
		logger.Warn("dataset not ready at startup", "dir", cfg.DataDir, "error", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
