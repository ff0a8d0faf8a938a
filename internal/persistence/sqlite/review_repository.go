package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/homestay/internal/persistence"
)

// ReviewRepository implements persistence.ReviewRepository using SQLite.
type ReviewRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewReviewRepository creates a new SQLite review repository.
func NewReviewRepository(pool *ConnectionPool) *ReviewRepository {
	return &ReviewRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const reviewColumns = "id, user_id, place_id, rating, comment, created_at, updated_at"

// CreateReview inserts a new review.
func (r *ReviewRepository) CreateReview(ctx context.Context, review persistence.Review) error {
	if review.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		review.ID,
		review.UserID,
		review.PlaceID,
		review.Rating,
		review.Comment,
		review.CreatedAt.UTC().Format(time.RFC3339),
		review.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapUniqueError(err, r.mapper)
	}
	return nil
}

// UpdateReview updates the rating and comment of an existing review.
func (r *ReviewRepository) UpdateReview(ctx context.Context, review persistence.Review) error {
	if review.ID == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		"UPDATE reviews SET rating = ?, comment = ?, updated_at = ? WHERE id = ?",
		review.Rating,
		review.Comment,
		review.UpdatedAt.UTC().Format(time.RFC3339),
		review.ID,
	)
	if err != nil {
		return mapUniqueError(err, r.mapper)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetReview retrieves a review by id.
func (r *ReviewRepository) GetReview(ctx context.Context, id string) (persistence.Review, error) {
	if id == "" {
		return persistence.Review{}, persistence.ErrNotFound
	}

	review, err := scanReview(r.helper.QueryRow(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Review{}, persistence.ErrNotFound
		}
		return persistence.Review{}, err
	}
	return review, nil
}

// ListReviewsForPlace returns reviews for a place, newest first.
func (r *ReviewRepository) ListReviewsForPlace(ctx context.Context, placeID string) ([]persistence.Review, error) {
	query := "SELECT " + reviewColumns + " FROM reviews WHERE place_id = ? ORDER BY created_at DESC, id ASC"

	rows, err := r.helper.Query(ctx, query, placeID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var reviews []persistence.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return reviews, nil
}

// DeleteReview removes a review by id.
func (r *ReviewRepository) DeleteReview(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanReview(row rowScanner) (persistence.Review, error) {
	var review persistence.Review
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.PlaceID,
		&review.Rating,
		&review.Comment,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Review{}, err
	}

	if review.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Review{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if review.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Review{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return review, nil
}
