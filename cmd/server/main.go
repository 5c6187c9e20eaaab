package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/config"
	"github.com/JonMunkholm/scentadmin/internal/core"
	"github.com/JonMunkholm/scentadmin/internal/history"
	"github.com/JonMunkholm/scentadmin/internal/logging"
	"github.com/JonMunkholm/scentadmin/internal/web"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"backend", cfg.Backend.BaseURL,
		"export_batch_size", cfg.Export.BatchSize,
		"export_batch_delay", cfg.Export.BatchDelay,
		"history_persistent", cfg.History.Persistent(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	// Each request authenticates with the token from its session cookie.
	client, err := api.NewClient(cfg.Backend.BaseURL, api.ContextAuth{}, api.Options{
		Timeout:   cfg.Backend.Timeout,
		UserAgent: cfg.Backend.UserAgent,
		CacheTTL:  cfg.Backend.CacheTTL,
	})
	if err != nil {
		slog.Error("failed to create backend client", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var store history.Store = history.NewMemoryStore()
	if cfg.History.Persistent() {
		pool, err := history.Connect(ctx, cfg.History.DatabaseURL, history.PoolConfig{
			MaxConns:        int32(cfg.History.MaxConns),
			MinConns:        int32(cfg.History.MinConns),
			MaxConnLifetime: cfg.History.MaxConnLifetime,
			MaxConnIdleTime: cfg.History.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg, err := history.NewPostgresStore(ctx, pool)
		if err != nil {
			slog.Error("failed to prepare job history", "error", err)
			os.Exit(1)
		}
		store = pg
		slog.Info("job history stored in postgres")
	} else {
		slog.Info("job history kept in memory; set DATABASE_URL to persist it")
	}

	service := core.NewService(client, store, core.Config{
		BatchSize:         cfg.Export.BatchSize,
		Delay:             cfg.Export.BatchDelay,
		DownloadTTL:       cfg.Export.DownloadTTL,
		MaxFileSize:       cfg.Import.MaxFileSize,
		MaxConcurrentJobs: cfg.Export.MaxConcurrent,
	})

	slog.Info("resources registered",
		"count", len(catalog.All()),
		"exportable", len(service.Entities()),
	)

	server := web.NewServer(cfg, client, service)

	bgCtx, cancelBackground := context.WithCancel(ctx)
	defer cancelBackground()

	go history.StartPruner(bgCtx, store, history.PruneConfig{
		RetentionDays: cfg.History.RetentionDays,
		Interval:      cfg.History.PruneInterval,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelBackground()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if n := service.Busy().ActiveCount(); n > 0 {
			slog.Info("cancelling running jobs", "active", n)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
