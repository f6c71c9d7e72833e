package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intake/internal/api"
	"intake/internal/application/factories/infrastructure"
	"intake/internal/config"
	"intake/internal/infrastructure/kafka"
	"intake/internal/infrastructure/postgres"
	"intake/internal/metrics"
	"intake/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize structured JSON logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Infrastructure
	infraFactory := infrastructure.NewFactory(cfg, logger)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	workItemRepo := postgres.NewWorkItemRepository(pgPool)
	if n, err := workItemRepo.ReleaseStale(ctx); err != nil {
		logger.Warn("failed to release stale work items", "error", err)
	} else if n > 0 {
		logger.Info("released stale work items", "count", n)
	}

	kafkaProd := kafka.NewProducer(kafka.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.WorkItemTopic,
	})
	defer kafkaProd.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	sink := metrics.NewPrometheus(reg)

	poller := worker.NewWorkItemPoller(workItemRepo, kafkaProd, worker.Config{
		PollInterval: cfg.Relay.PollInterval,
		BatchSize:    cfg.Relay.BatchSize,
	}, sink, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           api.NewRouter(nil, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return poller.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("relay stopped with error", "error", err)
	}

	logger.Info("relay exited")
}
