package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

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

	svc := corp.NewService(pool, logger)
	if cfg.StartupSeedTargets {
		if err := svc.SeedTargets(ctx); err != nil {
			logger.Error("seed targets failed", "err", err)
			os.Exit(1)
		}
	}

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("MAGNATE_WORKER_RUN_ONCE")), "true")
	if runOnce {
		if err := svc.RunDailyTick(ctx, cfg.DriftMode); err != nil {
			logger.Error("tick failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.TickEvery)
	defer ticker.Stop()

	logger.Info("worker started", "tick_every", cfg.TickEvery.String(), "drift_mode", cfg.DriftMode)
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			if err := svc.RunDailyTick(ctx, cfg.DriftMode); err != nil {
				logger.Error("daily tick failed", "err", err)
				continue
			}
		}
	}
}
