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
	"intake/internal/casesystem"
	"intake/internal/config"
	"intake/internal/consumer"
	"intake/internal/domain/event"
	"intake/internal/domain/ledger"
	"intake/internal/emitter"
	"intake/internal/infrastructure/kafka"
	"intake/internal/infrastructure/postgres"
	redisInfra "intake/internal/infrastructure/redis"
	"intake/internal/metrics"
	"intake/internal/ownership"
	"intake/internal/routing"
	"intake/internal/usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

type family struct {
	handler routing.Handler
	topic   string
	groupID string
}

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

	cutover, err := cfg.Routing.Cutover()
	if err != nil {
		logger.Error("invalid routing config", "error", err)
		os.Exit(1)
	}
	homeZone, err := cfg.Routing.Location()
	if err != nil {
		logger.Error("invalid routing config", "error", err)
		os.Exit(1)
	}

	// Infrastructure
	infraFactory := infrastructure.NewFactory(cfg, logger)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	ledgerRepo := postgres.NewLedgerRepository(pgPool)
	workItemRepo := postgres.NewWorkItemRepository(pgPool)
	txManager := postgres.NewTxManager(pgPool)

	var ledgerStore ledger.Store = ledgerRepo
	if cfg.Redis.Enabled {
		redisClient, err := infraFactory.Redis(ctx)
		if err != nil {
			logger.Warn("redis unavailable, ledger reads go to postgres", "error", err)
		} else {
			ledgerStore = redisInfra.NewLedgerCache(ledgerRepo, redisClient, cfg.Redis.LedgerTTL, logger)
		}
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sink := metrics.NewPrometheus(reg)

	// Case systems
	clientCfg := func(baseURL string) casesystem.Config {
		return casesystem.Config{
			BaseURL:  baseURL,
			Timeout:  cfg.CaseSystems.Timeout,
			Attempts: cfg.CaseSystems.Attempts,
			Backoff:  cfg.CaseSystems.Backoff,
		}
	}
	modern := casesystem.NewModernClient(clientCfg(cfg.CaseSystems.ModernURL), logger)
	legacy := casesystem.NewLegacyClient(clientCfg(cfg.CaseSystems.LegacyURL), logger)
	documents := casesystem.NewDocumentClient(clientCfg(cfg.CaseSystems.DocumentURL), logger)

	resolver := ownership.NewResolver(modern, legacy, cutover, sink, logger)
	em := emitter.New(workItemRepo, cfg.Routing.LifeEventDelay, logger)

	// Routers
	lifeEvents := routing.NewLifeEventStrategy(routing.LifeEventConfig{
		BirthAgeLimitMonths: cfg.Routing.BirthAgeLimitMonths,
		HomeCountry:         cfg.Routing.HomeCountry,
		Location:            homeZone,
	}, resolver, em)

	families := []family{
		{
			handler: routing.NewRouter[event.PersonRecord](lifeEvents, ledgerStore, em, txManager, sink, logger),
			topic:   cfg.Kafka.LifeEventTopic,
			groupID: cfg.Kafka.LifeEventGroupID,
		},
		{
			handler: routing.NewRouter[event.DocumentRecord](routing.NewDocumentStrategy(documents, resolver), ledgerStore, em, txManager, sink, logger),
			topic:   cfg.Kafka.DocumentTopic,
			groupID: cfg.Kafka.DocumentGroupID,
		},
		{
			handler: routing.NewRouter[event.DecisionRecord](routing.NewPartnerDecisionStrategy(resolver), ledgerStore, em, txManager, sink, logger),
			topic:   cfg.Kafka.PartnerDecisionTopic,
			groupID: cfg.Kafka.PartnerDecisionGroupID,
		},
		{
			handler: routing.NewRouter[event.LegacyDecisionRecord](routing.NewLegacyPartnerDecisionStrategy(resolver), ledgerStore, em, txManager, sink, logger),
			topic:   cfg.Kafka.LegacyPartnerDecisionTopic,
			groupID: cfg.Kafka.LegacyPartnerDecisionGroupID,
		},
	}

	deadLetter := kafka.NewProducer(kafka.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.DeadLetterTopic,
	})
	defer deadLetter.Close()

	// Ops API
	handlers := api.NewHandlers(usecase.NewGetEventTrail(ledgerRepo, workItemRepo), logger)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           api.NewRouter(handlers, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("ops server starting", "port", cfg.HTTP.Port)
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

	runnerCfg := consumer.Config{
		InitialBackoff: cfg.Kafka.RetryInitialBackoff,
		MaxBackoff:     cfg.Kafka.RetryMaxBackoff,
	}
	for _, f := range families {
		source := kafka.NewConsumer(cfg.Kafka.Brokers, f.topic, f.groupID, cfg.Kafka.StartOffset)
		defer source.Close()

		runner := consumer.NewRunner(source, f.handler, deadLetter, runnerCfg, logger.With("topic", f.topic, "group_id", f.groupID))
		g.Go(func() error {
			return runner.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("intake stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("intake exited")
}
