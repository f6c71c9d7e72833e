package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"intake/internal/application/factories/infrastructure"
	"intake/internal/config"
	"intake/internal/infrastructure/postgres"
	"intake/internal/retention"
)

func main() {
	window := flag.Duration("window", 0, "override the ledger retention window")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	infraFactory := infrastructure.NewFactory(cfg, logger)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	w := cfg.Retention.LedgerWindow
	if *window > 0 {
		w = *window
	}

	job := retention.NewJob(postgres.NewLedgerRepository(pgPool), w, logger)
	if _, err := job.Run(ctx); err != nil {
		logger.Error("retention failed", "error", err)
		infraFactory.Close()
		os.Exit(1)
	}
}
