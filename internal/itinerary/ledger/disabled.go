// Package ledger holds Ledger port implementations.
package ledger

import (
	"context"
	"math/big"

	"tourguard/internal/itinerary/ports"
	"tourguard/pkg/platform/sentinel"
)

// Disabled is used when no ledger endpoint is configured. Every call fails
// with sentinel.ErrUnavailable, so registrations always fall back.
type Disabled struct{}

func (Disabled) Account() string { return "" }

func (Disabled) EstimateFee(context.Context, ports.Payload, string) (uint64, error) {
	return 0, unavailable("estimate")
}

func (Disabled) FeeRate(context.Context) (*big.Int, error) {
	return nil, unavailable("fee_rate")
}

func (Disabled) SequenceNumber(context.Context, string) (uint64, error) {
	return 0, unavailable("sequence")
}

func (Disabled) Submit(context.Context, ports.Submission) (string, error) {
	return "", unavailable("submit")
}

func unavailable(op string) error {
	return ports.NewLedgerError(ports.ErrorOutage, op, "ledger not configured", sentinel.ErrUnavailable)
}
