package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"intake/internal/domain/workitem"
	"intake/internal/metrics"

	"github.com/segmentio/kafka-go"
)

type fakeStore struct {
	due        []*workitem.Item
	dispatched []string
	failed     []string
}

func (s *fakeStore) FetchDue(context.Context, int) ([]*workitem.Item, error) {
	due := s.due
	s.due = nil
	return due, nil
}

func (s *fakeStore) MarkDispatched(_ context.Context, ids []string) error {
	s.dispatched = append(s.dispatched, ids...)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, ids []string) error {
	s.failed = append(s.failed, ids...)
	return nil
}

type fakePublisher struct {
	failFor map[string]bool
	sent    []kafka.Message
}

func (p *fakePublisher) SendMessage(_ context.Context, key, value []byte, headers ...kafka.Header) error {
	var it workitem.Item
	if err := json.Unmarshal(value, &it); err != nil {
		return err
	}
	if p.failFor[it.ID] {
		return errors.New("leader not available")
	}
	p.sent = append(p.sent, kafka.Message{Key: key, Value: value, Headers: headers})
	return nil
}

func (p *fakePublisher) GetTopic() string { return "intake.work-items" }

func TestProcessBatch(t *testing.T) {
	notBefore := time.Date(2024, 4, 10, 10, 30, 0, 0, time.UTC)
	store := &fakeStore{due: []*workitem.Item{
		{ID: "a", Type: workitem.TypeEvaluateBenefitEligibility, CorrelationID: "e-1", AttemptsAllowed: 3, ScheduledNotBefore: &notBefore, Payload: json.RawMessage(`{}`)},
		{ID: "b", Type: workitem.TypeRouteChildBenefitDocument, CorrelationID: "j-1", AttemptsAllowed: 5, Payload: json.RawMessage(`{}`)},
	}}
	pub := &fakePublisher{failFor: map[string]bool{"b": true}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewWorkItemPoller(store, pub, Config{}, metrics.Nop{}, logger)

	n, err := p.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 published, got %d", n)
	}
	if len(store.dispatched) != 1 || store.dispatched[0] != "a" {
		t.Errorf("unexpected dispatched %v", store.dispatched)
	}
	if len(store.failed) != 1 || store.failed[0] != "b" {
		t.Errorf("unexpected failed %v", store.failed)
	}

	msg := pub.sent[0]
	if string(msg.Key) != "e-1" {
		t.Errorf("expected correlation id as key, got %s", msg.Key)
	}
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["type"] != workitem.TypeEvaluateBenefitEligibility || headers["attempts-allowed"] != "3" {
		t.Errorf("unexpected headers %v", headers)
	}
	var it workitem.Item
	if err := json.Unmarshal(msg.Value, &it); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if it.ScheduledNotBefore == nil || !it.ScheduledNotBefore.Equal(notBefore) {
		t.Errorf("scheduled time lost: %v", it.ScheduledNotBefore)
	}
}

func TestProcessEmptyBatch(t *testing.T) {
	store := &fakeStore{}
	p := NewWorkItemPoller(store, &fakePublisher{}, Config{}, metrics.Nop{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	n, err := p.processBatch(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected nothing published, got %d, %v", n, err)
	}
	if len(store.dispatched) != 0 || len(store.failed) != 0 {
		t.Error("empty batch touched the store")
	}
}
