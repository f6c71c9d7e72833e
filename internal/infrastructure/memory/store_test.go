package memory

import (
	"context"
	"errors"
	"testing"

	"intake/internal/domain/ledger"
	"intake/internal/domain/workitem"
)

func TestRecordConflicts(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first, err := s.Record(ctx, &ledger.Entry{EventID: "e-1", Consumer: ledger.ConsumerPDL})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.ID == 0 || first.RecordedAt.IsZero() {
		t.Errorf("stored entry not stamped: %+v", first)
	}

	if _, err := s.Record(ctx, &ledger.Entry{EventID: "e-1", Consumer: ledger.ConsumerPDL}); !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := s.Record(ctx, &ledger.Entry{EventID: "e-1", Consumer: ledger.ConsumerJournal}); err != nil {
		t.Fatalf("other consumer: %v", err)
	}
}

func TestWithinTransactionRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	if err := s.Enqueue(ctx, &workitem.Item{ID: "w-0", CorrelationID: "e-0", Status: workitem.StatusReady}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	boom := errors.New("boom")
	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.Enqueue(ctx, &workitem.Item{ID: "w-1", CorrelationID: "e-1", Status: workitem.StatusReady}); err != nil {
			return err
		}
		if _, err := s.VoidPending(ctx, "e-0", nil); err != nil {
			return err
		}
		if _, err := s.Record(ctx, &ledger.Entry{EventID: "e-1", Consumer: ledger.ConsumerPDL}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	items := s.Items()
	if len(items) != 1 || items[0].ID != "w-0" || items[0].Status != workitem.StatusReady {
		t.Errorf("writes not rolled back: %+v", items)
	}
	if ok, _ := s.Exists(ctx, "e-1", ledger.ConsumerPDL); ok {
		t.Error("ledger entry survived rollback")
	}
}

func TestVoidPending(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, it := range []*workitem.Item{
		{ID: "a", Type: workitem.TypeEvaluateBenefitEligibility, CorrelationID: "e-1", Status: workitem.StatusReady},
		{ID: "b", Type: workitem.TypeEvaluateLifeEvent, CorrelationID: "e-1", Status: workitem.StatusReady},
		{ID: "c", Type: workitem.TypeEvaluateBenefitEligibility, CorrelationID: "e-1", Status: workitem.StatusReady},
		{ID: "d", Type: workitem.TypeEvaluateBenefitEligibility, CorrelationID: "e-2", Status: workitem.StatusReady},
	} {
		if err := s.Enqueue(ctx, it); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	s.MarkDispatched("c")

	n, err := s.VoidPending(ctx, "e-1", []string{workitem.TypeEvaluateBenefitEligibility})
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 voided, got %d", n)
	}

	want := map[string]string{
		"a": workitem.StatusVoided,
		"b": workitem.StatusReady,
		"c": workitem.StatusDispatched,
		"d": workitem.StatusReady,
	}
	for _, it := range s.Items() {
		if it.Status != want[it.ID] {
			t.Errorf("item %s: status %s, want %s", it.ID, it.Status, want[it.ID])
		}
	}
}
