package ports

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// Payload is what gets anchored: the contract call arguments.
type Payload struct {
	SubjectID   string
	DisplayName string
	ProofValue  string
}

// Submission is a fully priced transaction ready to send. A nil Nonce lets
// the ledger pick the next sequence number itself.
type Submission struct {
	Payload  Payload
	From     string
	FeeUnits uint64
	FeeRate  *big.Int
	Nonce    *uint64
}

// Ledger is the append-only log proofs are anchored on. Implementations own
// their connection and signing key.
//go:generate mockgen -source=ledger.go -destination=mocks/ledger_mock.go -package=mocks Ledger
type Ledger interface {
	// Account is the address transactions are sent from.
	Account() string
	EstimateFee(ctx context.Context, payload Payload, from string) (uint64, error)
	FeeRate(ctx context.Context) (*big.Int, error)
	SequenceNumber(ctx context.Context, account string) (uint64, error)
	// Submit sends the transaction and returns its reference (hash).
	Submit(ctx context.Context, sub Submission) (string, error)
}

// ErrorCategory is the normalized ledger failure taxonomy
type ErrorCategory string

const (
	// ErrorTimeout indicates the ledger node took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorOutage indicates the node is unreachable or not configured
	ErrorOutage ErrorCategory = "outage"

	// ErrorRateLimited indicates the node throttled us
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorRejected indicates the node refused the transaction (revert,
	// nonce too low, underpriced, insufficient funds)
	ErrorRejected ErrorCategory = "rejected"

	// ErrorBadData indicates an unparsable response
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorInternal indicates an unexpected local failure (signing, encoding)
	ErrorInternal ErrorCategory = "internal"
)

// LedgerError wraps ledger failures with normalized categorization
type LedgerError struct {
	Category   ErrorCategory
	Op         string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *LedgerError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("ledger %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("ledger %s [%s]: %s", e.Op, e.Category, e.Message)
}

func (e *LedgerError) Unwrap() error {
	return e.Underlying
}

func NewLedgerError(category ErrorCategory, op, message string, underlying error) *LedgerError {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorRateLimited

	return &LedgerError{
		Category:   category,
		Op:         op,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Retryable
	}
	return false
}

// CategoryOf extracts the error category, defaulting to internal.
func CategoryOf(err error) ErrorCategory {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorInternal
}
