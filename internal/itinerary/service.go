package itinerary

import (
	"context"
	"log/slog"

	dErrors "tourguard/pkg/domain-errors"
	"tourguard/pkg/requestcontext"
)

// Deriver computes the proof value for an itinerary.
type Deriver interface {
	Derive(subjectID, name, tripStart, tripEnd string) (string, error)
}

// Registrar anchors a proof and reports how.
type Registrar interface {
	Register(ctx context.Context, p Proof) (*Registration, error)
}

// Service issues itinerary identities.
type Service struct {
	deriver   Deriver
	registrar Registrar
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(deriver Deriver, registrar Registrar, opts ...Option) *Service {
	s := &Service{
		deriver:   deriver,
		registrar: registrar,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateID derives the proof value and registers it. A ledger failure is
// not an error; the registration comes back in FALLBACK mode.
func (s *Service) GenerateID(ctx context.Context, req GenerateRequest) (*Registration, error) {
	value, err := s.deriver.Derive(req.SubjectID, req.DisplayName, req.TripStart, req.TripEnd)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "touristId and name are required")
	}

	rec, err := s.registrar.Register(ctx, Proof{
		SubjectID:   req.SubjectID,
		DisplayName: req.DisplayName,
		TripStart:   req.TripStart,
		TripEnd:     req.TripEnd,
		Value:       value,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "itinerary identity issued",
		"request_id", requestcontext.RequestID(ctx),
		"tourist_id", rec.SubjectID,
		"mode", rec.Mode,
	)
	return rec, nil
}
