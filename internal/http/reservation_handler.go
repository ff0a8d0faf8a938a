package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/homestay/internal/application"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	GetReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ReservationListParams) ([]application.Reservation, error)
	CheckAvailability(ctx context.Context, principal application.Principal, placeID string, start, end time.Time) (bool, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error)
	DeleteReservation(ctx context.Context, principal application.Principal, reservationID string) error
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

type reservationDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PlaceID   string    `json:"place_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type reservationListResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type createReservationRequest struct {
	PlaceID string    `json:"place_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

type updateReservationRequest struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

type availabilityResponse struct {
	PlaceID   string    `json:"place_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:        reservation.ID,
		UserID:    reservation.UserID,
		PlaceID:   reservation.PlaceID,
		Start:     reservation.Start,
		End:       reservation.End,
		CreatedAt: reservation.CreatedAt,
		UpdatedAt: reservation.UpdatedAt,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "place_id", req.PlaceID)

	reservation, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input: application.ReservationInput{
			PlaceID: req.PlaceID,
			Start:   req.Start,
			End:     req.End,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create reservation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	reservation, err := h.service.GetReservation(r.Context(), principal, reservationID)
	if err != nil {
		h.log(r.Context(), "Get", "reservation_id", reservationID).ErrorContext(r.Context(), "failed to get reservation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	query := r.URL.Query()

	startsAfter, err := parseOptionalTime(query.Get("starts_after"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeParameter)
		return
	}
	endsBefore, err := parseOptionalTime(query.Get("ends_before"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeParameter)
		return
	}

	params := application.ReservationListParams{
		Principal:   principal,
		UserID:      query.Get("user_id"),
		PlaceID:     query.Get("place_id"),
		StartsAfter: startsAfter,
		EndsBefore:  endsBefore,
	}

	reservations, err := h.service.ListReservations(r.Context(), params)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list reservations", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		dtos = append(dtos, toReservationDTO(reservation))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationListResponse{Reservations: dtos})
}

func (h *ReservationHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	query := r.URL.Query()
	placeID := query.Get("place_id")
	if placeID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPlaceParameter)
		return
	}
	start, startErr := time.Parse(time.RFC3339, query.Get("start"))
	end, endErr := time.Parse(time.RFC3339, query.Get("end"))
	if startErr != nil || endErr != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeParameter)
		return
	}

	available, err := h.service.CheckAvailability(r.Context(), principal, placeID, start, end)
	if err != nil {
		h.log(r.Context(), "CheckAvailability", "place_id", placeID).ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		PlaceID:   placeID,
		Start:     start,
		End:       end,
		Available: available,
	})
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req updateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "reservation_id", reservationID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "reservation_id", reservationID)

	reservation, err := h.service.UpdateReservation(r.Context(), application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		Patch: application.ReservationPatch{
			Start: req.Start,
			End:   req.End,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update reservation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	logger := h.log(r.Context(), "Delete", "reservation_id", reservationID)

	if err := h.service.DeleteReservation(r.Context(), principal, reservationID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete reservation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation deleted")
	w.WriteHeader(http.StatusNoContent)
}
