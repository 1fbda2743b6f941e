package testutil

import (
	"net/http"

	"tourguard/pkg/requestcontext"
)

// WithRequestID stamps req the way the request middleware does, for tests
// that call a handler method directly.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
