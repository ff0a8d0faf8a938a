package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/homestay/internal/application"
)

type reviewService interface {
	CreateReview(ctx context.Context, params application.CreateReviewParams) (application.Review, error)
	GetReview(ctx context.Context, principal application.Principal, reviewID string) (application.Review, error)
	ListReviewsForPlace(ctx context.Context, principal application.Principal, placeID string) ([]application.Review, error)
	UpdateReview(ctx context.Context, params application.UpdateReviewParams) (application.Review, error)
	DeleteReview(ctx context.Context, principal application.Principal, reviewID string) error
}

type ReviewHandler struct {
	service   reviewService
	responder responder
	logger    *slog.Logger
}

func NewReviewHandler(service reviewService, logger *slog.Logger) *ReviewHandler {
	base := defaultLogger(logger)
	return &ReviewHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReviewHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReviewHandler", operation, attrs...)
}

type reviewDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PlaceID   string    `json:"place_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type reviewResponse struct {
	Review reviewDTO `json:"review"`
}

type reviewListResponse struct {
	Reviews []reviewDTO `json:"reviews"`
}

type createReviewRequest struct {
	PlaceID string `json:"place_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

func toReviewDTO(review application.Review) reviewDTO {
	return reviewDTO{
		ID:        review.ID,
		UserID:    review.UserID,
		PlaceID:   review.PlaceID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode review request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	review, err := h.service.CreateReview(r.Context(), application.CreateReviewParams{
		Principal: principal,
		Input: application.ReviewInput{
			PlaceID: req.PlaceID,
			Rating:  req.Rating,
			Comment: req.Comment,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create review", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("review_id", review.ID).InfoContext(r.Context(), "review created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reviewResponse{Review: toReviewDTO(review)})
}

func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	reviewID, ok := ReviewIDFromContext(r.Context())
	if !ok || reviewID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReviewID)
		return
	}

	review, err := h.service.GetReview(r.Context(), principal, reviewID)
	if err != nil {
		h.log(r.Context(), "Get", "review_id", reviewID).ErrorContext(r.Context(), "failed to get review", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reviewResponse{Review: toReviewDTO(review)})
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	placeID := r.URL.Query().Get("place_id")
	if placeID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPlaceParameter)
		return
	}

	reviews, err := h.service.ListReviewsForPlace(r.Context(), principal, placeID)
	if err != nil {
		h.log(r.Context(), "List", "place_id", placeID).ErrorContext(r.Context(), "failed to list reviews", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]reviewDTO, 0, len(reviews))
	for _, review := range reviews {
		dtos = append(dtos, toReviewDTO(review))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reviewListResponse{Reviews: dtos})
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	reviewID, ok := ReviewIDFromContext(r.Context())
	if !ok || reviewID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReviewID)
		return
	}

	var req updateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "review_id", reviewID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode review request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "review_id", reviewID)

	review, err := h.service.UpdateReview(r.Context(), application.UpdateReviewParams{
		Principal: principal,
		ReviewID:  reviewID,
		Patch: application.ReviewPatch{
			Rating:  req.Rating,
			Comment: req.Comment,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update review", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "review updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reviewResponse{Review: toReviewDTO(review)})
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	reviewID, ok := ReviewIDFromContext(r.Context())
	if !ok || reviewID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReviewID)
		return
	}

	logger := h.log(r.Context(), "Delete", "review_id", reviewID)

	if err := h.service.DeleteReview(r.Context(), principal, reviewID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete review", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "review deleted")
	w.WriteHeader(http.StatusNoContent)
}
