package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"intake/internal/domain/workitem"
	"intake/internal/metrics"

	"github.com/segmentio/kafka-go"
)

// Store hands out due work items and records the publish result.
type Store interface {
	FetchDue(ctx context.Context, limit int) ([]*workitem.Item, error)
	MarkDispatched(ctx context.Context, ids []string) error
	MarkFailed(ctx context.Context, ids []string) error
}

type Publisher interface {
	SendMessage(ctx context.Context, key, value []byte, headers ...kafka.Header) error
	GetTopic() string
}

type Config struct {
	PollInterval time.Duration
	BatchSize    int
}

// WorkItemPoller relays due work items to the work queue topic. Items are
// published at least once; the queue runtime deduplicates by item id.
type WorkItemPoller struct {
	store     Store
	publisher Publisher
	cfg       Config
	metrics   metrics.RelaySink
	logger    *slog.Logger
}

func NewWorkItemPoller(store Store, publisher Publisher, cfg Config, sink metrics.RelaySink, logger *slog.Logger) *WorkItemPoller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &WorkItemPoller{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		metrics:   sink,
		logger:    logger,
	}
}

func (p *WorkItemPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.logger.Info("work item relay started", "topic", p.publisher.GetTopic())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := p.processBatch(ctx); err != nil {
				p.logger.Error("failed to process batch", "error", err)
			}
		}
	}
}

// processBatch returns the number of published items.
func (p *WorkItemPoller) processBatch(ctx context.Context) (int, error) {
	items, err := p.store.FetchDue(ctx, p.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	if len(items) == 0 {
		return 0, nil
	}

	var processedIDs []string
	var failedIDs []string

	for _, it := range items {
		value, err := json.Marshal(it)
		if err != nil {
			p.logger.Error("failed to marshal work item", "work_item_id", it.ID, "error", err)
			p.metrics.WorkItemPublishFailed(it.Type)
			failedIDs = append(failedIDs, it.ID)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.publisher.SendMessage(sendCtx, []byte(it.CorrelationID), value,
			kafka.Header{Key: "type", Value: []byte(it.Type)},
			kafka.Header{Key: "attempts-allowed", Value: []byte(strconv.Itoa(it.AttemptsAllowed))},
		)
		cancel()

		if err != nil {
			p.logger.Error("failed to publish work item", "work_item_id", it.ID, "type", it.Type, "error", err)
			p.metrics.WorkItemPublishFailed(it.Type)
			failedIDs = append(failedIDs, it.ID)
			continue
		}

		p.metrics.WorkItemPublished(it.Type)
		processedIDs = append(processedIDs, it.ID)
	}

	if len(processedIDs) > 0 {
		if err := p.store.MarkDispatched(ctx, processedIDs); err != nil {
			return 0, err
		}
		p.logger.Info("work items dispatched", "count", len(processedIDs))
	}

	if len(failedIDs) > 0 {
		if err := p.store.MarkFailed(ctx, failedIDs); err != nil {
			p.logger.Error("failed to release work items", "error", err)
		}
	}

	return len(processedIDs), nil
}
