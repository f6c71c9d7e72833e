package redis

import (
	"context"
	"log/slog"
	"time"

	"intake/internal/domain/ledger"

	"github.com/redis/go-redis/v9"
)

// LedgerCache answers Exists from Redis when it can. Only positive answers
// read from the store are cached, and Record never writes to the cache
// because the surrounding transaction may still roll back.
type LedgerCache struct {
	next   ledger.Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewLedgerCache(next ledger.Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *LedgerCache {
	return &LedgerCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func ledgerKey(eventID string, consumer ledger.Consumer) string {
	return "ledger:" + string(consumer) + ":" + eventID
}

func (c *LedgerCache) Exists(ctx context.Context, eventID string, consumer ledger.Consumer) (bool, error) {
	key := ledgerKey(eventID, consumer)

	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Warn("ledger cache unavailable, reading store", "consumer", string(consumer), "event_id", eventID, "error", err)
	} else if n > 0 {
		return true, nil
	}

	exists, err := c.next.Exists(ctx, eventID, consumer)
	if err != nil || !exists {
		return exists, err
	}

	if err := c.client.Set(ctx, key, 1, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache ledger entry", "consumer", string(consumer), "event_id", eventID, "error", err)
	}
	return true, nil
}

func (c *LedgerCache) Record(ctx context.Context, e *ledger.Entry) (*ledger.Entry, error) {
	return c.next.Record(ctx, e)
}

var _ ledger.Store = (*LedgerCache)(nil)
