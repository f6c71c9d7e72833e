package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"intake/internal/domain/workitem"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WorkItemRepository struct {
	pool *pgxpool.Pool
}

func NewWorkItemRepository(pool *pgxpool.Pool) *WorkItemRepository {
	return &WorkItemRepository{pool: pool}
}

const workItemColumns = `
	id::text,
	type,
	payload,
	metadata,
	scheduled_not_before,
	correlation_id,
	attempts_allowed,
	status,
	created_at,
	updated_at
`

func (r *WorkItemRepository) Enqueue(ctx context.Context, item *workitem.Item) error {
	const sql = `
		INSERT INTO work_items (id, type, payload, metadata, scheduled_not_before, correlation_id, attempts_allowed, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`

	metadata, err := json.Marshal(nonNilMetadata(item.Metadata))
	if err != nil {
		return fmt.Errorf("marshal work item metadata: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, sql,
		item.ID, item.Type, []byte(item.Payload), metadata, item.ScheduledNotBefore, item.CorrelationID, item.AttemptsAllowed, item.Status, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert work item: %w", err)
	}
	return nil
}

// VoidPending voids ready items of the correlation id, optionally only of
// the given types.
func (r *WorkItemRepository) VoidPending(ctx context.Context, correlationID string, types []string) (int, error) {
	const sql = `
		UPDATE work_items
		SET status = 'voided', updated_at = NOW()
		WHERE correlation_id = $1
		  AND status = 'ready'
		  AND (cardinality($2::text[]) = 0 OR type = ANY($2))
	`

	if types == nil {
		types = []string{}
	}
	tag, err := conn(ctx, r.pool).Exec(ctx, sql, correlationID, types)
	if err != nil {
		return 0, fmt.Errorf("void work items: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// FetchDue claims up to limit ready items whose scheduled time has passed.
// Claimed items are 'dispatching' until marked.
func (r *WorkItemRepository) FetchDue(ctx context.Context, limit int) ([]*workitem.Item, error) {
	sql := `
		WITH claimed AS (
			SELECT id
			FROM work_items
			WHERE status = 'ready'
			  AND (scheduled_not_before IS NULL OR scheduled_not_before <= NOW())
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE work_items
		SET status = 'dispatching', updated_at = NOW()
		WHERE id IN (SELECT id FROM claimed)
		RETURNING ` + workItemColumns

	rows, err := r.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("query due work items: %w", err)
	}
	return scanWorkItems(rows)
}

func (r *WorkItemRepository) MarkDispatched(ctx context.Context, ids []string) error {
	const sql = `
		UPDATE work_items
		SET status = 'dispatched', updated_at = NOW()
		WHERE id::text = ANY($1)
	`
	_, err := r.pool.Exec(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("mark dispatched: %w", err)
	}
	return nil
}

// MarkFailed puts claimed items back in the ready state.
func (r *WorkItemRepository) MarkFailed(ctx context.Context, ids []string) error {
	const sql = `
		UPDATE work_items
		SET status = 'ready', updated_at = NOW()
		WHERE id::text = ANY($1) AND status = 'dispatching'
	`
	_, err := r.pool.Exec(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// ReleaseStale returns items stuck in 'dispatching' to 'ready', for
// relays that died between claiming and marking.
func (r *WorkItemRepository) ReleaseStale(ctx context.Context) (int64, error) {
	const sql = `
		UPDATE work_items
		SET status = 'ready', updated_at = NOW()
		WHERE status = 'dispatching' AND updated_at < NOW() - INTERVAL '5 minutes'
	`
	tag, err := r.pool.Exec(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("release stale work items: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *WorkItemRepository) ListByCorrelationID(ctx context.Context, correlationID string) ([]*workitem.Item, error) {
	sql := `SELECT ` + workItemColumns + `
		FROM work_items
		WHERE correlation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, sql, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query work items by correlation_id: %w", err)
	}
	return scanWorkItems(rows)
}

func scanWorkItems(rows pgx.Rows) ([]*workitem.Item, error) {
	defer rows.Close()

	var items []*workitem.Item
	for rows.Next() {
		it := &workitem.Item{}
		var payload, metadata []byte
		if err := rows.Scan(&it.ID, &it.Type, &payload, &metadata, &it.ScheduledNotBefore, &it.CorrelationID, &it.AttemptsAllowed, &it.Status, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}
		it.Payload = payload
		if err := json.Unmarshal(metadata, &it.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal work item metadata: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work items: %w", err)
	}
	return items, nil
}

var _ workitem.Queue = (*WorkItemRepository)(nil)
