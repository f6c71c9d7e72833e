package usecase

import (
	"context"
	"errors"
	"fmt"

	"intake/internal/domain/ledger"
	"intake/internal/domain/workitem"
)

var ErrEventNotFound = errors.New("event not found")

type LedgerReader interface {
	Get(ctx context.Context, eventID string, consumer ledger.Consumer) (*ledger.Entry, error)
}

type WorkItemLister interface {
	ListByCorrelationID(ctx context.Context, correlationID string) ([]*workitem.Item, error)
}

// EventTrailDTO is what the intake did with one event: its ledger entry,
// if any, and the work items correlated to it.
type EventTrailDTO struct {
	Consumer  ledger.Consumer  `json:"consumer"`
	EventID   string           `json:"event_id"`
	Processed bool             `json:"processed"`
	Entry     *ledger.Entry    `json:"entry,omitempty"`
	WorkItems []*workitem.Item `json:"work_items"`
}

type GetEventTrail struct {
	ledger    LedgerReader
	workItems WorkItemLister
}

func NewGetEventTrail(ledger LedgerReader, workItems WorkItemLister) *GetEventTrail {
	return &GetEventTrail{
		ledger:    ledger,
		workItems: workItems,
	}
}

func (uc *GetEventTrail) Execute(ctx context.Context, consumer ledger.Consumer, eventID string) (*EventTrailDTO, error) {
	entry, err := uc.ledger.Get(ctx, eventID, consumer)
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}

	all, err := uc.workItems.ListByCorrelationID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get work items: %w", err)
	}
	// Event ids are only unique per consumer.
	items := []*workitem.Item{}
	for _, it := range all {
		if c, ok := it.Metadata["consumer"]; !ok || c == string(consumer) {
			items = append(items, it)
		}
	}

	if entry == nil && len(items) == 0 {
		return nil, ErrEventNotFound
	}

	return &EventTrailDTO{
		Consumer:  consumer,
		EventID:   eventID,
		Processed: entry != nil,
		Entry:     entry,
		WorkItems: items,
	}, nil
}
