package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	platformmetrics "tourguard/internal/platform/metrics"
)

// Metrics provides observability for geofence evaluation.
type Metrics struct {
	// Location checks by outcome: "clear" or "inside"
	LocationChecks *prometheus.CounterVec

	// Zone entries by zone id
	ZoneEntries *prometheus.CounterVec

	EvaluateLatency prometheus.Histogram

	ZonesLoaded  prometheus.Gauge
	ZonesSkipped prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LocationChecks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "geofence_location_checks_total",
			Help:      "Location reports evaluated, by outcome",
		}, []string{"outcome"}),

		ZoneEntries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "geofence_zone_entries_total",
			Help:      "Location reports found inside a zone, by zone id",
		}, []string{"zone_id"}),

		EvaluateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "geofence_evaluate_duration_seconds",
			Help:      "Duration of containment evaluation",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),

		ZonesLoaded: f.NewGauge(prometheus.GaugeOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "geofence_zones_loaded",
			Help:      "Zones in the active catalog",
		}),

		ZonesSkipped: f.NewGauge(prometheus.GaugeOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "geofence_zones_skipped",
			Help:      "Configured zones rejected at load",
		}),
	}
}

func (m *Metrics) ObserveCheck(zoneIDs []string, d time.Duration) {
	if m == nil {
		return
	}
	m.EvaluateLatency.Observe(d.Seconds())
	if len(zoneIDs) == 0 {
		m.LocationChecks.WithLabelValues("clear").Inc()
		return
	}
	m.LocationChecks.WithLabelValues("inside").Inc()
	for _, id := range zoneIDs {
		m.ZoneEntries.WithLabelValues(id).Inc()
	}
}

func (m *Metrics) SetCatalog(loaded, skipped int) {
	if m != nil {
		m.ZonesLoaded.Set(float64(loaded))
		m.ZonesSkipped.Set(float64(skipped))
	}
}
