package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	platformmetrics "tourguard/internal/platform/metrics"
)

// Metrics provides observability for itinerary registration.
type Metrics struct {
	// Registrations by mode: ONCHAIN or FALLBACK
	Registrations *prometheus.CounterVec

	// Ledger failures by the stage that failed and error category
	StageFailures *prometheus.CounterVec

	RegisterLatency prometheus.Histogram

	BreakerOpen prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "itinerary_registrations_total",
			Help:      "Itinerary registrations by outcome mode",
		}, []string{"mode"}),

		StageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "itinerary_ledger_failures_total",
			Help:      "Ledger protocol failures by stage and category",
		}, []string{"stage", "category"}),

		RegisterLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "itinerary_register_duration_seconds",
			Help:      "Duration of the full ledger registration protocol",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}),

		BreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "itinerary_ledger_breaker_open",
			Help:      "1 while the ledger circuit breaker is open",
		}),
	}
}

func (m *Metrics) ObserveRegistration(mode string, d time.Duration) {
	if m != nil {
		m.Registrations.WithLabelValues(mode).Inc()
		m.RegisterLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncStageFailure(stage, category string) {
	if m != nil {
		m.StageFailures.WithLabelValues(stage, category).Inc()
	}
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
