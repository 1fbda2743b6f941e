package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	platformmetrics "tourguard/internal/platform/metrics"
)

// Metrics provides observability for panic alert fan-out.
type Metrics struct {
	AlertsRaised prometheus.Counter
	Subscribers  prometheus.Gauge

	// Deliveries by outcome: "delivered" or "dropped"
	Deliveries *prometheus.CounterVec

	// Relay operations by op ("publish", "receive") and outcome
	RelayOps *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AlertsRaised: f.NewCounter(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "alert_panic_raised_total",
			Help:      "Panic alerts accepted",
		}),
		Subscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "alert_subscribers",
			Help:      "Observers currently subscribed to the alert stream",
		}),
		Deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "alert_deliveries_total",
			Help:      "Per-observer alert deliveries by outcome",
		}, []string{"outcome"}),
		RelayOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "alert_relay_operations_total",
			Help:      "Redis relay operations by op and outcome",
		}, []string{"op", "outcome"}),
	}
}

func (m *Metrics) IncAlertsRaised() {
	if m != nil {
		m.AlertsRaised.Inc()
	}
}

func (m *Metrics) SetSubscribers(n int) {
	if m != nil {
		m.Subscribers.Set(float64(n))
	}
}

func (m *Metrics) AddDeliveries(delivered, dropped int) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues("delivered").Add(float64(delivered))
	m.Deliveries.WithLabelValues("dropped").Add(float64(dropped))
}

func (m *Metrics) IncRelay(op, outcome string) {
	if m != nil {
		m.RelayOps.WithLabelValues(op, outcome).Inc()
	}
}
