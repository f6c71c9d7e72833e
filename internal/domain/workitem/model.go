package workitem

import (
	"context"
	"encoding/json"
	"time"
)

const (
	StatusReady       = "ready"
	StatusDispatching = "dispatching"
	StatusDispatched  = "dispatched"
	StatusVoided      = "voided"
)

// Work item types handed to the work queue.
const (
	TypeEvaluateBenefitEligibility = "evaluate-benefit-eligibility"
	TypeEvaluateLifeEvent          = "evaluate-life-event"
	TypeEvaluateRegionalSupplement = "evaluate-regional-supplement"
	TypeRouteChildBenefitDocument  = "route-child-benefit-document"
	TypeRouteCashForCareDocument   = "route-cash-for-care-document"
	TypeNotifyPartnerDecision      = "notify-partner-decision"
)

// Item is a unit of deferred work. Once handed to the queue it is owned by
// the queue runtime. ScheduledNotBefore is absolute so restarts do not
// shift the delay.
type Item struct {
	ID                 string            `json:"id"`
	Type               string            `json:"type"`
	Payload            json.RawMessage   `json:"payload"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	ScheduledNotBefore *time.Time        `json:"scheduled_not_before,omitempty"`
	CorrelationID      string            `json:"correlation_id"`
	AttemptsAllowed    int               `json:"attempts_allowed"`
	Status             string            `json:"status"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Queue accepts work items and lets pending ones be voided.
type Queue interface {
	Enqueue(ctx context.Context, item *Item) error
	// VoidPending voids every not yet dispatched item with the given
	// correlation id and returns how many were voided.
	VoidPending(ctx context.Context, correlationID string, types []string) (int, error)
}
