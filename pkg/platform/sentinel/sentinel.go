package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Adapters return these (optionally
// wrapped) so services can decide between degrading and failing.
//
//   - ErrUnavailable: dependency not configured or temporarily unreachable
//   - ErrClosed: component already shut down
//   - ErrInvalidState: component in the wrong state for the operation
var (
	ErrUnavailable  = errors.New("unavailable")
	ErrClosed       = errors.New("closed")
	ErrInvalidState = errors.New("invalid state")
)
