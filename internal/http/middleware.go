package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/homestay/internal/application"
)

// TokenValidator checks a bearer token and resolves the acting principal.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (application.Principal, error)
}

// RequireAuth rejects requests that do not carry a valid bearer token and
// attaches the resolved principal to the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
				return
			}

			principal, err := validator.Validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, application.ErrUnauthorized) {
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "the access token is invalid or expired, sign in again"})
					return
				}
				responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Message: "token validation failed"})
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a per-request logger carrying a request id, method,
// and path, and records request start and completion.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, prefix))
	}
	return ""
}
