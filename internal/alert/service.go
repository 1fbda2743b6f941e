package alert

import (
	"context"
	"log/slog"
	"strings"

	"tourguard/internal/alert/metrics"
	dErrors "tourguard/pkg/domain-errors"
	"tourguard/pkg/requestcontext"
)

// Publisher delivers alert events to observers, locally or via a relay.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Service accepts panic reports and fans them out.
type Service struct {
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(publisher Publisher, opts ...Option) *Service {
	s := &Service{
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RaisePanic creates an alert and broadcasts it. Fan-out is best effort: a
// failed publish is logged and the alert is still acknowledged.
func (s *Service) RaisePanic(ctx context.Context, report PanicReport) (*PanicAlert, error) {
	report.TouristID = strings.TrimSpace(report.TouristID)
	if report.TouristID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "touristId is required")
	}
	if err := report.Location.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "Invalid or missing coordinates")
	}

	a, err := NewPanicAlert(report.TouristID, report.Location, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create alert")
	}
	s.metrics.IncAlertsRaised()

	requestID := requestcontext.RequestID(ctx)
	s.logger.WarnContext(ctx, "panic alert raised",
		"request_id", requestID,
		"alert_id", a.ID,
		"tourist_id", a.TouristID,
		"latitude", a.Location.Latitude,
		"longitude", a.Location.Longitude,
	)

	if err := s.publisher.Publish(ctx, NewAlertEvent(*a)); err != nil {
		s.logger.ErrorContext(ctx, "panic alert fan-out failed",
			"request_id", requestID,
			"alert_id", a.ID,
			"error", err,
		)
	}
	return a, nil
}
