package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/homestay/internal/application"
)

type amenityService interface {
	CreateAmenity(ctx context.Context, params application.CreateAmenityParams) (application.Amenity, error)
	GetAmenity(ctx context.Context, principal application.Principal, amenityID string) (application.Amenity, error)
	ListAmenities(ctx context.Context, principal application.Principal) ([]application.Amenity, error)
	UpdateAmenity(ctx context.Context, params application.UpdateAmenityParams) (application.Amenity, error)
	DeleteAmenity(ctx context.Context, principal application.Principal, amenityID string) error
}

type AmenityHandler struct {
	service   amenityService
	responder responder
	logger    *slog.Logger
}

func NewAmenityHandler(service amenityService, logger *slog.Logger) *AmenityHandler {
	base := defaultLogger(logger)
	return &AmenityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AmenityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AmenityHandler", operation, attrs...)
}

type amenityDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type amenityResponse struct {
	Amenity amenityDTO `json:"amenity"`
}

type amenityListResponse struct {
	Amenities []amenityDTO `json:"amenities"`
}

type amenityRequest struct {
	Name string `json:"name"`
}

func toAmenityDTO(amenity application.Amenity) amenityDTO {
	return amenityDTO{
		ID:        amenity.ID,
		Name:      amenity.Name,
		CreatedAt: amenity.CreatedAt,
		UpdatedAt: amenity.UpdatedAt,
	}
}

func (h *AmenityHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	var req amenityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode amenity request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	amenity, err := h.service.CreateAmenity(r.Context(), application.CreateAmenityParams{
		Principal: principal,
		Name:      req.Name,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create amenity", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("amenity_id", amenity.ID).InfoContext(r.Context(), "amenity created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, amenityResponse{Amenity: toAmenityDTO(amenity)})
}

func (h *AmenityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	amenityID, ok := AmenityIDFromContext(r.Context())
	if !ok || amenityID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAmenityID)
		return
	}

	amenity, err := h.service.GetAmenity(r.Context(), principal, amenityID)
	if err != nil {
		h.log(r.Context(), "Get", "amenity_id", amenityID).ErrorContext(r.Context(), "failed to get amenity", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, amenityResponse{Amenity: toAmenityDTO(amenity)})
}

func (h *AmenityHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	amenities, err := h.service.ListAmenities(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list amenities", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]amenityDTO, 0, len(amenities))
	for _, amenity := range amenities {
		dtos = append(dtos, toAmenityDTO(amenity))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, amenityListResponse{Amenities: dtos})
}

func (h *AmenityHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	amenityID, ok := AmenityIDFromContext(r.Context())
	if !ok || amenityID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAmenityID)
		return
	}

	var req amenityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "amenity_id", amenityID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode amenity request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "amenity_id", amenityID)

	amenity, err := h.service.UpdateAmenity(r.Context(), application.UpdateAmenityParams{
		Principal: principal,
		AmenityID: amenityID,
		Name:      req.Name,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update amenity", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "amenity updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, amenityResponse{Amenity: toAmenityDTO(amenity)})
}

func (h *AmenityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	amenityID, ok := AmenityIDFromContext(r.Context())
	if !ok || amenityID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAmenityID)
		return
	}

	logger := h.log(r.Context(), "Delete", "amenity_id", amenityID)

	if err := h.service.DeleteAmenity(r.Context(), principal, amenityID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete amenity", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "amenity deleted")
	w.WriteHeader(http.StatusNoContent)
}
