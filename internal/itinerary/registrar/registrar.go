// Package registrar anchors itinerary proofs on the ledger. Every failure
// degrades to a FALLBACK registration that still carries the proof value;
// callers only see an error for malformed input.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tourguard/internal/itinerary"
	"tourguard/internal/itinerary/metrics"
	"tourguard/internal/itinerary/ports"
	"tourguard/internal/itinerary/proof"
	dErrors "tourguard/pkg/domain-errors"
	"tourguard/pkg/platform/circuit"
	"tourguard/pkg/platform/sentinel"
	"tourguard/pkg/requestcontext"
)

const (
	DefaultFeeMultiplier = 2.0
	MaxFeeMultiplier     = 100.0
	DefaultTimeout       = 15 * time.Second

	multiplierScale = 1000
)

var errCircuitOpen = ports.NewLedgerError(ports.ErrorOutage, "register", "circuit open", sentinel.ErrUnavailable)

type Registrar struct {
	ledger        ports.Ledger
	sequencers    *Sequencers
	breaker       *circuit.Breaker
	feeMultiplier float64
	sequencing    bool
	timeout       time.Duration
	maxAttempts   int
	explorerURL   string
	newBackOff    func() backoff.BackOff

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Registrar)

// WithFeeMultiplier scales the quoted fee rate. Values outside
// [1, MaxFeeMultiplier] are ignored.
func WithFeeMultiplier(m float64) Option {
	return func(r *Registrar) {
		if m >= 1 && m <= MaxFeeMultiplier {
			r.feeMultiplier = m
		}
	}
}

func WithSequencing(enabled bool) Option {
	return func(r *Registrar) { r.sequencing = enabled }
}

func WithTimeout(d time.Duration) Option {
	return func(r *Registrar) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxAttempts bounds how often a retryable ledger failure is retried.
func WithMaxAttempts(n int) Option {
	return func(r *Registrar) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func WithBackOff(fn func() backoff.BackOff) Option {
	return func(r *Registrar) { r.newBackOff = fn }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Registrar) { r.breaker = b }
}

// WithExplorerURL sets a fmt template with one %s for the transaction ref.
func WithExplorerURL(template string) Option {
	return func(r *Registrar) { r.explorerURL = template }
}

func WithSequencers(s *Sequencers) Option {
	return func(r *Registrar) { r.sequencers = s }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registrar) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registrar) { r.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Registrar) { r.tracer = t }
}

func New(ledger ports.Ledger, opts ...Option) *Registrar {
	r := &Registrar{
		ledger:        ledger,
		sequencers:    NewSequencers(),
		feeMultiplier: DefaultFeeMultiplier,
		sequencing:    true,
		timeout:       DefaultTimeout,
		maxAttempts:   1,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		logger: slog.Default(),
		tracer: otel.Tracer("tourguard/itinerary/registrar"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register anchors p on the ledger, or returns a FALLBACK registration when
// that is not possible.
func (r *Registrar) Register(ctx context.Context, p itinerary.Proof) (*itinerary.Registration, error) {
	if strings.TrimSpace(p.SubjectID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "touristId is required")
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !proof.Valid(p.Value) {
		return nil, dErrors.New(dErrors.CodeValidation, "proof value must be 64 lowercase hex characters")
	}

	start := time.Now()
	requestID := requestcontext.RequestID(ctx)
	ctx, span := r.tracer.Start(ctx, "registrar.register",
		trace.WithAttributes(attribute.String("tourist_id", p.SubjectID)))
	defer span.End()

	rec := &itinerary.Registration{Proof: p}

	if r.breaker != nil && !r.breaker.Allow() {
		r.fallback(ctx, rec, itinerary.StageEstimating, errCircuitOpen)
		r.metrics.ObserveRegistration(string(rec.Mode), time.Since(start))
		return rec, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	payload := ports.Payload{
		SubjectID:   p.SubjectID,
		DisplayName: p.DisplayName,
		ProofValue:  p.Value,
	}
	failedStage := itinerary.StageEstimating
	txRef, err := backoff.Retry(ctx, func() (string, error) {
		rec.Attempts++
		ref, stage, err := r.attempt(ctx, payload)
		if err == nil {
			return ref, nil
		}
		failedStage = stage
		r.metrics.IncStageFailure(string(stage), string(ports.CategoryOf(err)))
		// A failed submit may still have reached the mempool; resending
		// could anchor the same proof twice.
		if stage == itinerary.StageSubmitting || !ports.IsRetryable(err) || errors.Is(err, sentinel.ErrUnavailable) {
			return "", backoff.Permanent(err)
		}
		r.logger.InfoContext(ctx, "ledger attempt failed",
			"request_id", requestID,
			"tourist_id", p.SubjectID,
			"stage", stage,
			"attempt", rec.Attempts,
			"error", err,
		)
		return "", err
	}, backoff.WithBackOff(r.newBackOff()), backoff.WithMaxTries(uint(r.maxAttempts)))

	if err != nil {
		r.recordBreakerFailure(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback")
		r.fallback(ctx, rec, failedStage, err)
		r.metrics.ObserveRegistration(string(rec.Mode), time.Since(start))
		return rec, nil
	}

	r.recordBreakerSuccess(ctx)
	rec.Mode = itinerary.ModeOnChain
	rec.Stage = itinerary.StageConfirmed
	rec.TransactionRef = &txRef
	if r.explorerURL != "" {
		rec.ExplorerURL = fmt.Sprintf(r.explorerURL, txRef)
	}
	span.SetAttributes(attribute.String("transaction_ref", txRef))
	r.metrics.ObserveRegistration(string(rec.Mode), time.Since(start))

	r.logger.InfoContext(ctx, "itinerary anchored on ledger",
		"request_id", requestID,
		"tourist_id", p.SubjectID,
		"transaction_ref", txRef,
		"attempts", rec.Attempts,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// attempt runs one pass of the protocol and reports the stage it reached.
func (r *Registrar) attempt(ctx context.Context, payload ports.Payload) (string, itinerary.Stage, error) {
	from := r.ledger.Account()

	var feeUnits uint64
	err := r.stage(ctx, itinerary.StageEstimating, func(ctx context.Context) error {
		var err error
		feeUnits, err = r.ledger.EstimateFee(ctx, payload, from)
		return err
	})
	if err != nil {
		return "", itinerary.StageEstimating, err
	}

	var rate *big.Int
	err = r.stage(ctx, itinerary.StageQuoting, func(ctx context.Context) error {
		var err error
		rate, err = r.ledger.FeeRate(ctx)
		if err == nil && (rate == nil || rate.Sign() <= 0) {
			err = ports.NewLedgerError(ports.ErrorBadData, "fee_rate", "non-positive fee rate", nil)
		}
		return err
	})
	if err != nil {
		return "", itinerary.StageQuoting, err
	}

	sub := ports.Submission{
		Payload:  payload,
		From:     from,
		FeeUnits: feeUnits,
		FeeRate:  ApplyMultiplier(rate, r.feeMultiplier),
	}

	if !r.sequencing {
		ref, err := r.submit(ctx, sub)
		return ref, itinerary.StageSubmitting, err
	}

	seq := r.sequencers.For(from)
	var nonce uint64
	err = r.stage(ctx, itinerary.StageSequencing, func(ctx context.Context) error {
		if err := seq.Acquire(ctx); err != nil {
			return ports.NewLedgerError(ports.ErrorTimeout, "sequence", "waiting for account sequencer", err)
		}
		chain, err := r.ledger.SequenceNumber(ctx, from)
		if err != nil {
			seq.Invalidate()
			seq.Release()
			return err
		}
		nonce = seq.Reserve(chain)
		return nil
	})
	if err != nil {
		return "", itinerary.StageSequencing, err
	}
	defer seq.Release()

	sub.Nonce = &nonce
	ref, err := r.submit(ctx, sub)
	if err != nil {
		seq.Invalidate()
		return "", itinerary.StageSubmitting, err
	}
	seq.Commit(nonce)
	return ref, itinerary.StageSubmitting, nil
}

func (r *Registrar) submit(ctx context.Context, sub ports.Submission) (string, error) {
	var ref string
	err := r.stage(ctx, itinerary.StageSubmitting, func(ctx context.Context) error {
		var err error
		ref, err = r.ledger.Submit(ctx, sub)
		if err == nil && ref == "" {
			err = ports.NewLedgerError(ports.ErrorBadData, "submit", "empty transaction reference", nil)
		}
		return err
	})
	return ref, err
}

func (r *Registrar) stage(ctx context.Context, stage itinerary.Stage, fn func(context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "registrar."+strings.ToLower(string(stage)))
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(ports.CategoryOf(err)))
		return err
	}
	return nil
}

func (r *Registrar) fallback(ctx context.Context, rec *itinerary.Registration, failed itinerary.Stage, err error) {
	rec.Mode = itinerary.ModeFallback
	rec.Stage = itinerary.StageFailedFallback
	rec.TransactionRef = nil
	rec.ExplorerURL = ""

	r.logger.WarnContext(ctx, "ledger registration failed, returning fallback proof",
		"request_id", requestcontext.RequestID(ctx),
		"tourist_id", rec.SubjectID,
		"failed_stage", failed,
		"category", ports.CategoryOf(err),
		"attempts", rec.Attempts,
		"error", err,
	)
}

func (r *Registrar) recordBreakerFailure(ctx context.Context, err error) {
	if r.breaker == nil || errors.Is(err, sentinel.ErrUnavailable) {
		return
	}
	switch ports.CategoryOf(err) {
	case ports.ErrorTimeout, ports.ErrorOutage, ports.ErrorRateLimited:
	default:
		return
	}
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.metrics.SetBreakerOpen(true)
		r.logger.WarnContext(ctx, "ledger circuit opened", "breaker", r.breaker.Name())
	}
}

func (r *Registrar) recordBreakerSuccess(ctx context.Context) {
	if r.breaker == nil {
		return
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.metrics.SetBreakerOpen(false)
		r.logger.InfoContext(ctx, "ledger circuit closed", "breaker", r.breaker.Name())
	}
}

// ApplyMultiplier returns rate*m with m resolved to three decimal places.
// m is expected within [1, MaxFeeMultiplier].
func ApplyMultiplier(rate *big.Int, m float64) *big.Int {
	scaled := big.NewInt(int64(math.Round(m * multiplierScale)))
	out := new(big.Int).Mul(rate, scaled)
	return out.Quo(out, big.NewInt(multiplierScale))
}
