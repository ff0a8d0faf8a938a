package http

import (
	"context"
	"log/slog"

	"github.com/example/homestay/internal/application"
	"github.com/example/homestay/internal/logging"
)

type contextKey string

const (
	principalContextKey     contextKey = "principal"
	userIDContextKey        contextKey = "user_id"
	placeIDContextKey       contextKey = "place_id"
	amenityIDContextKey     contextKey = "amenity_id"
	reviewIDContextKey      contextKey = "review_id"
	reservationIDContextKey contextKey = "reservation_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}

// ContextWithPlaceID injects the place identifier resolved from the request path.
func ContextWithPlaceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, placeIDContextKey, id)
}

// PlaceIDFromContext extracts a place identifier previously associated with the context.
func PlaceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(placeIDContextKey).(string)
	return id, ok
}

// ContextWithAmenityID injects the amenity identifier resolved from the request path.
func ContextWithAmenityID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, amenityIDContextKey, id)
}

// AmenityIDFromContext extracts an amenity identifier previously associated with the context.
func AmenityIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(amenityIDContextKey).(string)
	return id, ok
}

// ContextWithReviewID injects the review identifier resolved from the request path.
func ContextWithReviewID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reviewIDContextKey, id)
}

// ReviewIDFromContext extracts a review identifier previously associated with the context.
func ReviewIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(reviewIDContextKey).(string)
	return id, ok
}

// ContextWithReservationID injects the reservation identifier resolved from the request path.
func ContextWithReservationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reservationIDContextKey, id)
}

// ReservationIDFromContext extracts a reservation identifier previously associated with the context.
func ReservationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(reservationIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts a request scoped logger from the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
