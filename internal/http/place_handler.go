package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/homestay/internal/application"
)

type placeService interface {
	CreatePlace(ctx context.Context, params application.CreatePlaceParams) (application.Place, error)
	GetPlace(ctx context.Context, principal application.Principal, placeID string) (application.Place, error)
	ListPlaces(ctx context.Context, principal application.Principal, ownerID string) ([]application.Place, error)
	UpdatePlace(ctx context.Context, params application.UpdatePlaceParams) (application.Place, error)
	DeletePlace(ctx context.Context, principal application.Principal, placeID string) error
}

type PlaceHandler struct {
	service   placeService
	responder responder
	logger    *slog.Logger
}

func NewPlaceHandler(service placeService, logger *slog.Logger) *PlaceHandler {
	base := defaultLogger(logger)
	return &PlaceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PlaceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PlaceHandler", operation, attrs...)
}

type placeDTO struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceByNight int       `json:"price_by_night"`
	Location     string    `json:"location"`
	Country      string    `json:"country"`
	Town         string    `json:"town"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	Amenities    []string  `json:"amenities"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type placeResponse struct {
	Place placeDTO `json:"place"`
}

type placeListResponse struct {
	Places []placeDTO `json:"places"`
}

type createPlaceRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	PriceByNight int      `json:"price_by_night"`
	Location     string   `json:"location"`
	Country      string   `json:"country"`
	Town         string   `json:"town"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
}

type updatePlaceRequest struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	PriceByNight *int     `json:"price_by_night,omitempty"`
	Location     *string  `json:"location,omitempty"`
	Country      *string  `json:"country,omitempty"`
	Town         *string  `json:"town,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
}

func toPlaceDTO(place application.Place) placeDTO {
	amenities := place.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return placeDTO{
		ID:           place.ID,
		OwnerID:      place.OwnerID,
		Name:         place.Name,
		Description:  place.Description,
		PriceByNight: place.PriceByNight,
		Location:     place.Location,
		Country:      place.Country,
		Town:         place.Town,
		Latitude:     place.Latitude,
		Longitude:    place.Longitude,
		Amenities:    amenities,
		CreatedAt:    place.CreatedAt,
		UpdatedAt:    place.UpdatedAt,
	}
}

func toPlaceDTOs(places []application.Place) []placeDTO {
	dtos := make([]placeDTO, 0, len(places))
	for _, place := range places {
		dtos = append(dtos, toPlaceDTO(place))
	}
	return dtos
}

func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	var req createPlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode place request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	place, err := h.service.CreatePlace(r.Context(), application.CreatePlaceParams{
		Principal: principal,
		Input: application.PlaceInput{
			Name:         req.Name,
			Description:  req.Description,
			PriceByNight: req.PriceByNight,
			Location:     req.Location,
			Country:      req.Country,
			Town:         req.Town,
			Latitude:     req.Latitude,
			Longitude:    req.Longitude,
			Amenities:    req.Amenities,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create place", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("place_id", place.ID).InfoContext(r.Context(), "place created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, placeResponse{Place: toPlaceDTO(place)})
}

func (h *PlaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	placeID, ok := PlaceIDFromContext(r.Context())
	if !ok || placeID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPlaceID)
		return
	}

	place, err := h.service.GetPlace(r.Context(), principal, placeID)
	if err != nil {
		h.log(r.Context(), "Get", "place_id", placeID).ErrorContext(r.Context(), "failed to get place", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, placeResponse{Place: toPlaceDTO(place)})
}

func (h *PlaceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	ownerID := r.URL.Query().Get("owner_id")

	places, err := h.service.ListPlaces(r.Context(), principal, ownerID)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list places", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, placeListResponse{Places: toPlaceDTOs(places)})
}

func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	placeID, ok := PlaceIDFromContext(r.Context())
	if !ok || placeID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPlaceID)
		return
	}

	var req updatePlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "place_id", placeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode place request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "place_id", placeID)

	place, err := h.service.UpdatePlace(r.Context(), application.UpdatePlaceParams{
		Principal: principal,
		PlaceID:   placeID,
		Patch: application.PlacePatch{
			Name:         req.Name,
			Description:  req.Description,
			PriceByNight: req.PriceByNight,
			Location:     req.Location,
			Country:      req.Country,
			Town:         req.Town,
			Latitude:     req.Latitude,
			Longitude:    req.Longitude,
			Amenities:    req.Amenities,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update place", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "place updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, placeResponse{Place: toPlaceDTO(place)})
}

func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	placeID, ok := PlaceIDFromContext(r.Context())
	if !ok || placeID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPlaceID)
		return
	}

	logger := h.log(r.Context(), "Delete", "place_id", placeID)

	if err := h.service.DeletePlace(r.Context(), principal, placeID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete place", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "place deleted")
	w.WriteHeader(http.StatusNoContent)
}
