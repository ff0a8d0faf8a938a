package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/homestay/internal/application"
)

var (
	errBadRequestBody        = errors.New("the request body could not be parsed")
	errInvalidUserID         = errors.New("a user id is required in the path")
	errInvalidPlaceID        = errors.New("a place id is required in the path")
	errInvalidAmenityID      = errors.New("an amenity id is required in the path")
	errInvalidReviewID       = errors.New("a review id is required in the path")
	errInvalidReservationID  = errors.New("a reservation id is required in the path")
	errMissingAccessToken    = errors.New("an access token is required")
	errInvalidTimeParameter  = errors.New("start and end must be RFC 3339 timestamps")
	errMissingPlaceParameter = errors.New("a place_id query parameter is required")
)

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application sentinels onto HTTP statuses.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "FORBIDDEN",
			Message:   "you do not have permission to perform this action",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "the resource already exists"})
	case errors.Is(err, application.ErrConflictingReservation):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "RESERVATION_CONFLICT",
			Message:   "the requested window overlaps an existing reservation",
		})
	case errors.Is(err, application.ErrInvalidInterval):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the reservation start must be before its end",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Message: "invalid email or password"})
	case errors.Is(err, application.ErrInvalidCode):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Message: "the verification code is invalid"})
	case errors.Is(err, application.ErrCodeExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Message: "the verification code has expired, request a new one"})
	case errors.Is(err, application.ErrNoPendingCode):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "no verification code is pending for this email"})
	case errors.Is(err, application.ErrEmailSendFailure):
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{Message: "the verification email could not be sent"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "the request contains invalid fields",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "an internal error occurred"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request is malformed"
	case http.StatusUnauthorized:
		return "authentication is required"
	case http.StatusForbidden:
		return "you do not have permission to perform this action"
	case http.StatusNotFound:
		return "the requested resource was not found"
	case http.StatusConflict:
		return "the request conflicts with the current state of the resource"
	case http.StatusUnprocessableEntity:
		return "the request contains invalid fields"
	default:
		return "an internal error occurred"
	}
}
