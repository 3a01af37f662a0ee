package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"magnate/internal/api"
	"magnate/internal/auth"
	"magnate/internal/config"
	"magnate/internal/corp"
	"magnate/internal/db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	authSvc := auth.NewService(pool, logger, cfg.TokenTTL)
	corpSvc := corp.NewService(pool, logger, corp.WithNegotiationDelay(cfg.NegotiationDelay))

	if cfg.StartupSeedTargets {
		if err := corpSvc.SeedTargets(ctx); err != nil {
			logger.Error("seed targets failed", "err", err)
			os.Exit(1)
		}
	}

	server := api.New(cfg, logger, authSvc, corpSvc)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("magnate api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
