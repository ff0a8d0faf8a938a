package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/homestay/internal/persistence"
)

// ReviewRepository captures the persistence operations needed by the review service.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review Review) (Review, error)
	GetReview(ctx context.Context, id string) (Review, error)
	UpdateReview(ctx context.Context, review Review) (Review, error)
	DeleteReview(ctx context.Context, id string) error
	ListReviewsForPlace(ctx context.Context, placeID string) ([]Review, error)
}

// PlaceDirectory exposes place lookups for services that only need ownership data.
type PlaceDirectory interface {
	GetPlace(ctx context.Context, id string) (Place, error)
}

// CreateReviewParams wraps a review creation request.
type CreateReviewParams struct {
	Principal Principal
	Input     ReviewInput
}

// UpdateReviewParams wraps a partial review update request.
type UpdateReviewParams struct {
	Principal Principal
	ReviewID  string
	Patch     ReviewPatch
}

// ReviewService orchestrates validation, authorization, and persistence for reviews.
type ReviewService struct {
	reviews     ReviewRepository
	places      PlaceDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewReviewService constructs a review service with the provided dependencies.
func NewReviewService(reviews ReviewRepository, places PlaceDirectory, idGenerator func() string, now func() time.Time) *ReviewService {
	return NewReviewServiceWithLogger(reviews, places, idGenerator, now, nil)
}

// NewReviewServiceWithLogger constructs a review service with a specified logger.
func NewReviewServiceWithLogger(reviews ReviewRepository, places PlaceDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReviewService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReviewService{
		reviews:     reviews,
		places:      places,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ReviewService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReviewService", operation, attrs...)
}

// CreateReview records a rating for a place. A user may not review their own
// place and may leave at most one review per place.
func (s *ReviewService) CreateReview(ctx context.Context, params CreateReviewParams) (review Review, err error) {
	if s == nil {
		err = fmt.Errorf("ReviewService is nil")
		return
	}
	if s.reviews == nil {
		err = fmt.Errorf("review repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateReview",
		"principal_id", params.Principal.UserID,
		"place_id", params.Input.PlaceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create review", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("review_id", review.ID).InfoContext(ctx, "review created")
	}()

	input := params.Input
	input.Comment = strings.TrimSpace(input.Comment)

	vErr := validateReviewFields(input.Rating, input.Comment)
	if input.PlaceID == "" {
		vErr.add("place_id", "place id is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.places != nil {
		var place Place
		place, err = s.places.GetPlace(ctx, input.PlaceID)
		if err != nil {
			err = mapReviewRepoError(err)
			return
		}
		if place.OwnerID == params.Principal.UserID {
			err = ErrUnauthorized
			return
		}
	}

	var existing []Review
	existing, err = s.reviews.ListReviewsForPlace(ctx, input.PlaceID)
	if err != nil {
		err = mapReviewRepoError(err)
		return
	}
	for _, other := range existing {
		if other.UserID == params.Principal.UserID {
			err = ErrAlreadyExists
			return
		}
	}

	review = Review{
		ID:        s.idGenerator(),
		UserID:    params.Principal.UserID,
		PlaceID:   input.PlaceID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: s.now().UTC(),
	}
	review.UpdatedAt = review.CreatedAt

	review, err = s.reviews.CreateReview(ctx, review)
	if err != nil {
		err = mapReviewRepoError(err)
		return
	}

	return
}

// GetReview returns a single review.
func (s *ReviewService) GetReview(ctx context.Context, principal Principal, reviewID string) (Review, error) {
	if s == nil {
		return Review{}, fmt.Errorf("ReviewService is nil")
	}
	if s.reviews == nil {
		return Review{}, fmt.Errorf("review repository not configured")
	}

	review, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return Review{}, mapReviewRepoError(err)
	}
	return review, nil
}

// ListReviewsForPlace returns the reviews left on a place, newest first.
func (s *ReviewService) ListReviewsForPlace(ctx context.Context, principal Principal, placeID string) ([]Review, error) {
	if s == nil {
		return nil, fmt.Errorf("ReviewService is nil")
	}
	if s.reviews == nil {
		return nil, nil
	}

	reviews, err := s.reviews.ListReviewsForPlace(ctx, placeID)
	if err != nil {
		return nil, mapReviewRepoError(err)
	}
	return reviews, nil
}

// UpdateReview applies a partial update. Only the author or an administrator
// may modify a review.
func (s *ReviewService) UpdateReview(ctx context.Context, params UpdateReviewParams) (review Review, err error) {
	if s == nil {
		err = fmt.Errorf("ReviewService is nil")
		return
	}
	if s.reviews == nil {
		err = fmt.Errorf("review repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateReview",
		"principal_id", params.Principal.UserID,
		"review_id", params.ReviewID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update review", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("review_id", review.ID).InfoContext(ctx, "review updated")
	}()

	var existing Review
	existing, err = s.reviews.GetReview(ctx, params.ReviewID)
	if err != nil {
		err = mapReviewRepoError(err)
		return
	}

	if existing.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	updated := existing
	if params.Patch.Rating != nil {
		updated.Rating = *params.Patch.Rating
	}
	if params.Patch.Comment != nil {
		updated.Comment = strings.TrimSpace(*params.Patch.Comment)
	}

	vErr := validateReviewFields(updated.Rating, updated.Comment)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated.UpdatedAt = s.now().UTC()

	review, err = s.reviews.UpdateReview(ctx, updated)
	if err != nil {
		err = mapReviewRepoError(err)
		return
	}

	return
}

// DeleteReview removes a review. Only the author or an administrator may delete it.
func (s *ReviewService) DeleteReview(ctx context.Context, principal Principal, reviewID string) error {
	if s == nil {
		return fmt.Errorf("ReviewService is nil")
	}
	if s.reviews == nil {
		return fmt.Errorf("review repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteReview",
		"principal_id", principal.UserID,
		"review_id", reviewID,
	)

	existing, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		err = mapReviewRepoError(err)
		logger.ErrorContext(ctx, "failed to delete review", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if existing.UserID != principal.UserID && !principal.IsAdmin {
		logger.ErrorContext(ctx, "failed to delete review", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.reviews.DeleteReview(ctx, reviewID); err != nil {
		err = mapReviewRepoError(err)
		logger.ErrorContext(ctx, "failed to delete review", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "review deleted")
	return nil
}

func validateReviewFields(rating int, comment string) *ValidationError {
	vErr := &ValidationError{}
	if rating < 1 || rating > 5 {
		vErr.add("rating", "rating must be between 1 and 5")
	}
	if comment == "" {
		vErr.add("comment", "comment is required")
	}
	return vErr
}

func mapReviewRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("rating", "rating must be between 1 and 5")
		return vErr
	}
	return err
}
