package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned by Record when an entry for the same
// (event id, consumer) pair already exists.
var ErrConflict = errors.New("ledger entry already recorded")

// Consumer identifies the router family (and version) that wrote an entry.
// Entries from different consumers with the same event id do not collide.
type Consumer string

const (
	ConsumerPDL                   Consumer = "PDL"
	ConsumerJournal               Consumer = "JOURNAL"
	ConsumerPartnerDecision       Consumer = "EF_VEDTAK_V1"
	ConsumerLegacyPartnerDecision Consumer = "EF_VEDTAK_INFOTRYGD_V1"
)

func (c Consumer) Valid() bool {
	switch c {
	case ConsumerPDL, ConsumerJournal, ConsumerPartnerDecision, ConsumerLegacyPartnerDecision:
		return true
	}
	return false
}

// Entry is the proof that an event was fully processed by a consumer.
// Entries are never mutated.
type Entry struct {
	ID         int64             `json:"id"`
	Offset     int64             `json:"offset"`
	EventID    string            `json:"event_id"`
	Consumer   Consumer          `json:"consumer"`
	Metadata   map[string]string `json:"metadata"`
	Subject    *string           `json:"-"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// Store is the deduplication ledger.
type Store interface {
	Exists(ctx context.Context, eventID string, consumer Consumer) (bool, error)
	// Record must only be called once every side effect of the event has
	// completed. It returns ErrConflict if the pair is already present.
	Record(ctx context.Context, e *Entry) (*Entry, error)
}
