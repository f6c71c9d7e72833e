package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"intake/internal/domain/ledger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) Exists(ctx context.Context, eventID string, consumer ledger.Consumer) (bool, error) {
	const query = `
		SELECT EXISTS (SELECT 1 FROM event_ledger WHERE event_id = $1 AND consumer = $2)
	`

	var exists bool
	if err := conn(ctx, r.pool).QueryRow(ctx, query, eventID, string(consumer)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check ledger entry: %w", err)
	}
	return exists, nil
}

// Record inserts the entry. The unique constraint decides races: a lost
// race returns ledger.ErrConflict.
func (r *LedgerRepository) Record(ctx context.Context, e *ledger.Entry) (*ledger.Entry, error) {
	const query = `
		INSERT INTO event_ledger ("offset", event_id, consumer, metadata, subject, recorded_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (event_id, consumer) DO NOTHING
		RETURNING id, recorded_at
	`

	metadata, err := json.Marshal(nonNilMetadata(e.Metadata))
	if err != nil {
		return nil, fmt.Errorf("marshal ledger metadata: %w", err)
	}

	stored := *e
	err = conn(ctx, r.pool).QueryRow(ctx, query, e.Offset, e.EventID, string(e.Consumer), metadata, e.Subject).
		Scan(&stored.ID, &stored.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	return &stored, nil
}

// Get returns the entry for the pair, or nil when there is none.
func (r *LedgerRepository) Get(ctx context.Context, eventID string, consumer ledger.Consumer) (*ledger.Entry, error) {
	const query = `
		SELECT id, "offset", event_id, consumer, metadata, subject, recorded_at
		FROM event_ledger
		WHERE event_id = $1 AND consumer = $2
	`

	e := &ledger.Entry{}
	var metadata []byte
	err := conn(ctx, r.pool).QueryRow(ctx, query, eventID, string(consumer)).
		Scan(&e.ID, &e.Offset, &e.EventID, &e.Consumer, &metadata, &e.Subject, &e.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ledger entry: %w", err)
	}
	if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal ledger metadata: %w", err)
	}
	return e, nil
}

// DeleteOlderThan removes entries recorded before cutoff, except those of
// the kept consumers.
func (r *LedgerRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, keep []ledger.Consumer) (int64, error) {
	const query = `
		DELETE FROM event_ledger
		WHERE recorded_at < $1 AND NOT (consumer = ANY($2))
	`

	kept := make([]string, 0, len(keep))
	for _, c := range keep {
		kept = append(kept, string(c))
	}
	tag, err := r.pool.Exec(ctx, query, cutoff, kept)
	if err != nil {
		return 0, fmt.Errorf("delete ledger entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nonNilMetadata(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

var _ ledger.Store = (*LedgerRepository)(nil)
