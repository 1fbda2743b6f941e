package geofence

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tourguard/internal/geofence/metrics"
	dErrors "tourguard/pkg/domain-errors"
	"tourguard/pkg/requestcontext"
)

// Service evaluates location reports against the zone catalog.
type Service struct {
	registry  *Registry
	evaluator Evaluator
	scorer    Scorer
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithEvaluator(e Evaluator) Option {
	return func(s *Service) { s.evaluator = e }
}

func WithScorer(sc Scorer) Option {
	return func(s *Service) { s.scorer = sc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(registry *Registry, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		evaluator: LinearEvaluator{},
		scorer:    DefaultScorer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	return s
}

// CheckLocation returns the zones containing the reported point and the
// derived safety score.
func (s *Service) CheckLocation(ctx context.Context, report LocationReport) (*LocationResult, error) {
	report.SubjectID = strings.TrimSpace(report.SubjectID)
	if report.SubjectID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "touristId is required")
	}
	if err := report.Location.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "Invalid or missing coordinates")
	}

	start := time.Now()
	alerts, err := s.evaluator.Evaluate(report.Location, s.registry.zones)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "Invalid or missing coordinates")
	}
	s.metrics.ObserveCheck(alerts.ZoneIDs(), time.Since(start))

	score := s.scorer.Score(alerts)
	if len(alerts) > 0 {
		s.logger.InfoContext(ctx, "subject inside restricted zone",
			"request_id", requestcontext.RequestID(ctx),
			"tourist_id", report.SubjectID,
			"zones", alerts.ZoneIDs(),
			"safety_score", int(score),
		)
	}

	return &LocationResult{
		SubjectID:   report.SubjectID,
		Location:    report.Location,
		Alerts:      alerts,
		SafetyScore: score,
	}, nil
}

// Zones exposes the active catalog.
func (s *Service) Zones() []Zone {
	return s.registry.Zones()
}
