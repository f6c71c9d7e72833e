package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"intake/internal/config"
	"intake/internal/infrastructure/postgres"
	"intake/internal/infrastructure/redis"

	pgxpool "github.com/jackc/pgx/v5/pgxpool"
	go_redis "github.com/redis/go-redis/v9"
)

type Factory struct {
	cfg      *config.Config
	logger   *slog.Logger
	pgPool   *pgxpool.Pool
	redisCli *go_redis.Client
}

func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

func (f *Factory) PostgresConfig() postgres.Config {
	return postgres.Config{
		Host:     f.cfg.Postgres.Host,
		Port:     f.cfg.Postgres.Port,
		User:     f.cfg.Postgres.User,
		Password: f.cfg.Postgres.Password,
		DBName:   f.cfg.Postgres.DBName,
		SSLMode:  f.cfg.Postgres.SSLMode,
		MaxConns: f.cfg.Postgres.MaxConns,
	}
}

// Postgres connects lazily, retrying up to 5 times, and applies
// migrations when enabled.
func (f *Factory) Postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if f.pgPool != nil {
		return f.pgPool, nil
	}

	var pool *pgxpool.Pool
	var err error

	for i := 0; i < 5; i++ {
		pool, err = postgres.NewClient(ctx, f.PostgresConfig())
		if err == nil {
			break
		}
		f.logger.Warn("failed to connect to postgres, retrying", "attempt", i+1, "max", 5, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to init postgres after retries: %w", err)
	}

	if f.cfg.Postgres.Migrate {
		if err := postgres.Migrate(f.PostgresConfig()); err != nil {
			pool.Close()
			return nil, err
		}
		f.logger.Info("database migrations applied")
	}

	f.pgPool = pool
	return pool, nil
}

func (f *Factory) Redis(ctx context.Context) (*go_redis.Client, error) {
	if f.redisCli != nil {
		return f.redisCli, nil
	}

	client, err := redis.NewClient(ctx, redis.Config{
		Addr:     f.cfg.Redis.Addr,
		Password: f.cfg.Redis.Password,
		DB:       f.cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	f.redisCli = client
	return client, nil
}

func (f *Factory) Close() {
	if f.pgPool != nil {
		f.pgPool.Close()
	}
	if f.redisCli != nil {
		f.redisCli.Close()
	}
}
