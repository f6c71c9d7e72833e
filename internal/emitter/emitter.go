// Package emitter builds follow-up work items and hands them to the work
// queue.
package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"intake/internal/domain/workitem"

	"github.com/google/uuid"
)

var attemptsAllowed = map[string]int{
	workitem.TypeEvaluateBenefitEligibility: 3,
	workitem.TypeEvaluateLifeEvent:          3,
	workitem.TypeEvaluateRegionalSupplement: 3,
	workitem.TypeNotifyPartnerDecision:      3,
	workitem.TypeRouteChildBenefitDocument:  5,
	workitem.TypeRouteCashForCareDocument:   5,
}

const defaultAttempts = 3

// AttemptsAllowed returns the bounded retry count for a work item type.
func AttemptsAllowed(itemType string) int {
	if n, ok := attemptsAllowed[itemType]; ok {
		return n
	}
	return defaultAttempts
}

// Request describes the work to emit.
type Request struct {
	Type          string
	Payload       any
	CorrelationID string
	Metadata      map[string]string
	NotBefore     *time.Time
}

type Emitter struct {
	queue          workitem.Queue
	lifeEventDelay time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

func New(queue workitem.Queue, lifeEventDelay time.Duration, logger *slog.Logger) *Emitter {
	return &Emitter{
		queue:          queue,
		lifeEventDelay: lifeEventDelay,
		now:            time.Now,
		logger:         logger,
	}
}

// LifeEventNotBefore returns the earliest execution time of work caused by
// a life event that happened at occurredAt. A zero occurredAt counts from now.
func (e *Emitter) LifeEventNotBefore(occurredAt time.Time) time.Time {
	if occurredAt.IsZero() {
		occurredAt = e.now()
	}
	return occurredAt.Add(e.lifeEventDelay).UTC()
}

// Build creates a ready work item without submitting it.
func (e *Emitter) Build(req Request) (*workitem.Item, error) {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", req.Type, err)
	}
	now := e.now().UTC()
	return &workitem.Item{
		ID:                 uuid.New().String(),
		Type:               req.Type,
		Payload:            payload,
		Metadata:           req.Metadata,
		ScheduledNotBefore: req.NotBefore,
		CorrelationID:      req.CorrelationID,
		AttemptsAllowed:    AttemptsAllowed(req.Type),
		Status:             workitem.StatusReady,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Emit builds the item and enqueues it. Within a transaction the item only
// exists once the caller commits.
func (e *Emitter) Emit(ctx context.Context, req Request) (*workitem.Item, error) {
	item, err := e.Build(req)
	if err != nil {
		return nil, err
	}
	if err := e.queue.Enqueue(ctx, item); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", item.Type, err)
	}
	e.logger.Debug("work item enqueued", "work_item_id", item.ID, "type", item.Type, "correlation_id", item.CorrelationID)
	return item, nil
}

// Void voids pending work correlated to an earlier event.
func (e *Emitter) Void(ctx context.Context, correlationID string, types []string) (int, error) {
	n, err := e.queue.VoidPending(ctx, correlationID, types)
	if err != nil {
		return 0, fmt.Errorf("void work items: %w", err)
	}
	return n, nil
}
