// Package routing runs inbound events through classification,
// deduplication, ownership resolution and follow-up emission.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"intake/internal/domain/event"
	"intake/internal/domain/ledger"
	"intake/internal/domain/workitem"
	"intake/internal/emitter"
	"intake/internal/metrics"
)

// Strategy is what differs between event families.
type Strategy[T any] interface {
	Family() string
	Consumer() ledger.Consumer
	// Decode fails with ErrMalformed when the delivery does not fit.
	Decode(msg event.Message) (event.Event[T], error)
	Classify(ev event.Event[T]) bool
	// Decide may fail with ErrInvariant or ErrMalformed; any other error
	// is treated as transient.
	Decide(ctx context.Context, ev event.Event[T]) (Decision, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Emitter interface {
	Emit(ctx context.Context, req emitter.Request) (*workitem.Item, error)
	Void(ctx context.Context, correlationID string, types []string) (int, error)
}

// Handler routes raw deliveries of one family.
type Handler interface {
	Family() string
	Route(ctx context.Context, msg event.Message) Result
}

type Router[T any] struct {
	strategy Strategy[T]
	ledger   ledger.Store
	emitter  Emitter
	tx       Transactor
	metrics  metrics.Sink
	logger   *slog.Logger
}

func NewRouter[T any](strategy Strategy[T], store ledger.Store, em Emitter, tx Transactor, sink metrics.Sink, logger *slog.Logger) *Router[T] {
	return &Router[T]{
		strategy: strategy,
		ledger:   store,
		emitter:  em,
		tx:       tx,
		metrics:  sink,
		logger:   logger.With("family", strategy.Family(), "consumer", string(strategy.Consumer())),
	}
}

func (r *Router[T]) Family() string {
	return r.strategy.Family()
}

// Route processes one delivery to completion. The ledger entry is written
// after every side effect, in the same transaction.
func (r *Router[T]) Route(ctx context.Context, msg event.Message) Result {
	started := time.Now()
	family := r.strategy.Family()
	r.metrics.Delivered(family)

	res := r.route(ctx, msg)

	outcome := res.Outcome
	r.metrics.Outcome(family, outcome)
	r.metrics.ProcessingDuration(family, time.Since(started))
	return res
}

func (r *Router[T]) route(ctx context.Context, msg event.Message) Result {
	ev, err := r.strategy.Decode(msg)
	if err != nil {
		r.logger.Error("failed to decode event", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "key_bytes", len(msg.Key), "error", err)
		return Result{Kind: Fatal, Outcome: OutcomeFatal, Err: err}
	}
	log := r.logger.With("event_id", ev.ID, "subtype", string(ev.Subtype), "offset", ev.Offset)

	if !r.strategy.Classify(ev) {
		log.Debug("event not relevant")
		return Result{Kind: Ignored, Outcome: OutcomeIrrelevant, EventID: ev.ID}
	}

	exists, err := r.ledger.Exists(ctx, ev.ID, r.strategy.Consumer())
	if err != nil {
		return r.retryable(log, ev.ID, fmt.Errorf("check ledger: %w", err))
	}
	if exists {
		log.Info("event already processed")
		return Result{Kind: Ignored, Outcome: OutcomeDuplicate, EventID: ev.ID}
	}

	dec, err := r.strategy.Decide(ctx, ev)
	switch {
	case errors.Is(err, ErrInvariant):
		log.Error("dropping event", "error", err)
		return Result{Kind: Ignored, Outcome: OutcomeDropped, EventID: ev.ID, Err: err}
	case errors.Is(err, ErrMalformed):
		log.Error("event payload is malformed", "topic", msg.Topic, "partition", msg.Partition, "error", err)
		return Result{Kind: Fatal, Outcome: OutcomeFatal, EventID: ev.ID, Err: err}
	case err != nil:
		return r.retryable(log, ev.ID, err)
	}

	entry := &ledger.Entry{
		Offset:   ev.Offset,
		EventID:  ev.ID,
		Consumer: r.strategy.Consumer(),
		Metadata: dec.Metadata,
		Subject:  dec.Subject,
	}

	var voided int
	err = r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		n, err := r.apply(ctx, log, dec)
		if err != nil {
			return err
		}
		voided = n
		if _, err := r.ledger.Record(ctx, entry); err != nil {
			return err
		}
		return nil
	})
	switch {
	case errors.Is(err, ledger.ErrConflict):
		log.Info("event completed by a concurrent delivery")
		return Result{Kind: Ignored, Outcome: OutcomeConflict, EventID: ev.ID}
	case err != nil:
		return r.retryable(log, ev.ID, err)
	}

	// Counted after commit.
	switch dec.Action {
	case Act:
		r.metrics.WorkItemEmitted(dec.Work.Type)
	case Void:
		if voided > 0 {
			r.metrics.WorkItemsVoided(voided)
		}
	}

	log.Info("event routed", "action", dec.Action.String(), "reason", dec.Reason)
	return Result{Kind: Handled, Outcome: dec.Action.String(), EventID: ev.ID}
}

// apply performs the side effect of a decision and returns the number of
// voided items.
func (r *Router[T]) apply(ctx context.Context, log *slog.Logger, dec Decision) (int, error) {
	switch dec.Action {
	case Act:
		if dec.Work == nil {
			return 0, fmt.Errorf("act decision without work item")
		}
		item, err := r.emitter.Emit(ctx, *dec.Work)
		if err != nil {
			return 0, err
		}
		log.Info("work item emitted", "work_item_id", item.ID, "type", item.Type)
	case Void:
		n, err := r.emitter.Void(ctx, dec.VoidCorrelationID, dec.VoidTypes)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			log.Warn("annulled event has no pending work", "prior_event_id", dec.VoidCorrelationID)
		} else {
			log.Info("voided pending work", "prior_event_id", dec.VoidCorrelationID, "count", n)
		}
		return n, nil
	}
	return 0, nil
}

func (r *Router[T]) retryable(log *slog.Logger, eventID string, err error) Result {
	log.Warn("event processing failed, awaiting redelivery", "correlation_id", eventID, "error", err)
	r.metrics.TransientFailure(r.strategy.Family())
	return Result{Kind: Retryable, Outcome: OutcomeRetryable, EventID: eventID, Err: err}
}
