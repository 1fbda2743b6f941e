// Package auth guards the alert stream with bearer tokens.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "tourguard/pkg/domain-errors"
	"tourguard/pkg/platform/httputil"
	"tourguard/pkg/requestcontext"
)

// TokenValidator validates an observer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*ObserverClaims, error)
}

// ObserverClaims is what the middleware needs from a validated token.
type ObserverClaims struct {
	ObserverID string
	TokenID    string
}

// QueryParamToken is accepted because browsers cannot set headers on a
// websocket handshake.
const QueryParamToken = "access_token"

// RequireObserver rejects requests without a valid observer token and
// stores the observer id in the request context.
func RequireObserver(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token := bearerToken(r)
			if token == "" {
				logger.WarnContext(ctx, "unauthorized stream access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized stream access - invalid token",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithObserverID(ctx, claims.ObserverID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(r.URL.Query().Get(QueryParamToken))
}
