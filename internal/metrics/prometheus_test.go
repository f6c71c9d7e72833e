package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.Delivered("pdl")
	p.Delivered("pdl")
	p.TransientFailure("pdl")
	p.Outcome("pdl", "handled")
	p.WorkItemEmitted("evaluate-life-event")
	p.WorkItemsVoided(2)
	p.Verdict("NONE")
	p.ProcessingDuration("pdl", 20*time.Millisecond)
	p.WorkItemPublished("evaluate-life-event")
	p.WorkItemPublishFailed("evaluate-life-event")

	if got := testutil.ToFloat64(p.delivered.WithLabelValues("pdl")); got != 2 {
		t.Errorf("expected 2 deliveries, got %v", got)
	}
	if got := testutil.ToFloat64(p.transientFailure.WithLabelValues("pdl")); got != 1 {
		t.Errorf("expected 1 transient failure, got %v", got)
	}
	if got := testutil.ToFloat64(p.voided); got != 2 {
		t.Errorf("expected 2 voided, got %v", got)
	}
	if got := testutil.ToFloat64(p.publishErrors.WithLabelValues("evaluate-life-event")); got != 1 {
		t.Errorf("expected 1 publish error, got %v", got)
	}
	if got := testutil.CollectAndCount(p.duration); got != 1 {
		t.Errorf("expected one duration series, got %d", got)
	}
}

func TestPrometheus_SeparateRegistries(t *testing.T) {
	// Each sink owns its collectors, so two sinks never clash.
	NewPrometheus(prometheus.NewRegistry())
	NewPrometheus(prometheus.NewRegistry())
}
