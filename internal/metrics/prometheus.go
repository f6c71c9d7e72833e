package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Sink backed by collectors registered on the given
// registerer.
type Prometheus struct {
	delivered        *prometheus.CounterVec
	outcomes         *prometheus.CounterVec
	transientFailure *prometheus.CounterVec
	emitted          *prometheus.CounterVec
	voided           prometheus.Counter
	verdicts         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	published        *prometheus.CounterVec
	publishErrors    *prometheus.CounterVec
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_events_delivered_total",
			Help: "The total number of deliveries received per event family",
		}, []string{"family"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_events_outcome_total",
			Help: "Routing outcomes per event family",
		}, []string{"family", "outcome"}),
		transientFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_events_transient_failures_total",
			Help: "Deliveries left unacknowledged because a dependency failed",
		}, []string{"family"}),
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_work_items_emitted_total",
			Help: "Follow-up work items handed to the work queue",
		}, []string{"type"}),
		voided: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intake_work_items_voided_total",
			Help: "Pending work items voided by annulments",
		}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_ownership_verdicts_total",
			Help: "Combined case-ownership verdicts",
		}, []string{"verdict"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_processing_duration_seconds",
			Help:    "Time taken to route one delivery",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"family"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_work_items_published_total",
			Help: "Work items published to the work queue topic",
		}, []string{"type"}),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_work_items_publish_errors_total",
			Help: "Failed work item publish attempts",
		}, []string{"type"}),
	}
	reg.MustRegister(p.delivered, p.outcomes, p.transientFailure, p.emitted, p.voided, p.verdicts, p.duration, p.published, p.publishErrors)
	return p
}

func (p *Prometheus) Delivered(family string) {
	p.delivered.WithLabelValues(family).Inc()
}

func (p *Prometheus) Outcome(family, outcome string) {
	p.outcomes.WithLabelValues(family, outcome).Inc()
}

func (p *Prometheus) TransientFailure(family string) {
	p.transientFailure.WithLabelValues(family).Inc()
}

func (p *Prometheus) WorkItemEmitted(itemType string) {
	p.emitted.WithLabelValues(itemType).Inc()
}

func (p *Prometheus) WorkItemsVoided(count int) {
	p.voided.Add(float64(count))
}

func (p *Prometheus) Verdict(verdict string) {
	p.verdicts.WithLabelValues(verdict).Inc()
}

func (p *Prometheus) ProcessingDuration(family string, d time.Duration) {
	p.duration.WithLabelValues(family).Observe(d.Seconds())
}

func (p *Prometheus) WorkItemPublished(itemType string) {
	p.published.WithLabelValues(itemType).Inc()
}

func (p *Prometheus) WorkItemPublishFailed(itemType string) {
	p.publishErrors.WithLabelValues(itemType).Inc()
}
