// Package consumer drives one event family from the transport through its
// router and acknowledges deliveries according to the routing result.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"intake/internal/domain/event"
	"intake/internal/routing"
)

// Source is a partitioned log with explicit acknowledgement.
type Source interface {
	Fetch(ctx context.Context) (event.Message, error)
	Commit(ctx context.Context, msg event.Message) error
}

// DeadLetter parks deliveries that can never be processed.
type DeadLetter interface {
	Publish(ctx context.Context, msg event.Message, reason string) error
}

type Config struct {
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	FetchErrorDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = time.Minute
	}
	if c.FetchErrorDelay <= 0 {
		c.FetchErrorDelay = time.Second
	}
	return c
}

// Runner processes one delivery at a time. A delivery is committed only
// when its result allows it, or once it has been dead-lettered.
type Runner struct {
	source     Source
	handler    routing.Handler
	deadLetter DeadLetter
	cfg        Config
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewRunner(source Source, handler routing.Handler, deadLetter DeadLetter, cfg Config, logger *slog.Logger) *Runner {
	return &Runner{
		source:     source,
		handler:    handler,
		deadLetter: deadLetter,
		cfg:        cfg.withDefaults(),
		logger:     logger.With("family", handler.Family()),
		sleep:      sleep,
	}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("consumer started")
	for {
		msg, err := r.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Info("consumer stopped")
				return nil
			}
			r.logger.Error("failed to fetch message", "error", err)
			if err := r.sleep(ctx, r.cfg.FetchErrorDelay); err != nil {
				return nil
			}
			continue
		}

		if err := r.deliver(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				r.logger.Info("consumer stopped")
				return nil
			}
			return err
		}
	}
}

// deliver routes msg until it may be committed. It only fails when ctx
// ends first.
func (r *Runner) deliver(ctx context.Context, msg event.Message) error {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			backoff := r.backoff(attempt)
			r.logger.Info("retrying delivery", "attempt", attempt, "backoff", backoff, "partition", msg.Partition, "offset", msg.Offset)
			if err := r.sleep(ctx, backoff); err != nil {
				return err
			}
		}

		res := r.handler.Route(ctx, msg)
		switch res.Kind {
		case routing.Handled, routing.Ignored:
			r.commit(ctx, msg)
			return nil
		case routing.Fatal:
			reason := "unprocessable"
			if res.Err != nil {
				reason = res.Err.Error()
			}
			if err := r.deadLetter.Publish(ctx, msg, reason); err != nil {
				r.logger.Error("failed to dead-letter message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
				continue
			}
			r.logger.Warn("message dead-lettered", "event_id", res.EventID, "partition", msg.Partition, "offset", msg.Offset)
			r.commit(ctx, msg)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// commit failures are only logged: the delivery comes again and the
// ledger turns it into a no-op.
func (r *Runner) commit(ctx context.Context, msg event.Message) {
	if err := r.source.Commit(ctx, msg); err != nil {
		r.logger.Error("failed to commit message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
	}
}

func (r *Runner) backoff(attempt int) time.Duration {
	d := r.cfg.InitialBackoff
	for i := 1; i < attempt && d < r.cfg.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, r.cfg.MaxBackoff)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
