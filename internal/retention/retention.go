// Package retention prunes old ledger entries.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"intake/internal/domain/ledger"
)

type Deleter interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time, keep []ledger.Consumer) (int64, error)
}

// Kept lists the consumers whose entries are never pruned. Legacy partner
// decisions may be replayed from the legacy system at any time.
var Kept = []ledger.Consumer{ledger.ConsumerLegacyPartnerDecision}

type Job struct {
	store  Deleter
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewJob(store Deleter, window time.Duration, logger *slog.Logger) *Job {
	return &Job{
		store:  store,
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// Run deletes entries recorded before now minus the window.
func (j *Job) Run(ctx context.Context) (int64, error) {
	if j.window <= 0 {
		return 0, fmt.Errorf("retention window must be positive, got %s", j.window)
	}
	cutoff := j.now().Add(-j.window).UTC()
	n, err := j.store.DeleteOlderThan(ctx, cutoff, Kept)
	if err != nil {
		return 0, err
	}
	j.logger.Info("ledger entries pruned", "count", n, "cutoff", cutoff)
	return n, nil
}
