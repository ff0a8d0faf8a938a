package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/homestay/internal/persistence"
)

// AmenityRepository implements persistence.AmenityRepository using SQLite.
type AmenityRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAmenityRepository creates a new SQLite amenity repository.
func NewAmenityRepository(pool *ConnectionPool) *AmenityRepository {
	return &AmenityRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateAmenity inserts a new amenity.
func (r *AmenityRepository) CreateAmenity(ctx context.Context, amenity persistence.Amenity) error {
	if amenity.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx,
		"INSERT INTO amenities (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		amenity.ID,
		amenity.Name,
		amenity.CreatedAt.UTC().Format(time.RFC3339),
		amenity.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapUniqueError(err, r.mapper)
	}
	return nil
}

// UpdateAmenity renames an existing amenity.
func (r *AmenityRepository) UpdateAmenity(ctx context.Context, amenity persistence.Amenity) error {
	if amenity.ID == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		"UPDATE amenities SET name = ?, updated_at = ? WHERE id = ?",
		amenity.Name,
		amenity.UpdatedAt.UTC().Format(time.RFC3339),
		amenity.ID,
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

// GetAmenity retrieves an amenity by id.
func (r *AmenityRepository) GetAmenity(ctx context.Context, id string) (persistence.Amenity, error) {
	if id == "" {
		return persistence.Amenity{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, "SELECT id, name, created_at, updated_at FROM amenities WHERE id = ?", id)
}

// GetAmenityByName retrieves an amenity by its unique name.
func (r *AmenityRepository) GetAmenityByName(ctx context.Context, name string) (persistence.Amenity, error) {
	return r.getOne(ctx, "SELECT id, name, created_at, updated_at FROM amenities WHERE name = ?", name)
}

// ListAmenities returns the amenity catalog ordered by name.
func (r *AmenityRepository) ListAmenities(ctx context.Context) ([]persistence.Amenity, error) {
	rows, err := r.helper.Query(ctx, "SELECT id, name, created_at, updated_at FROM amenities ORDER BY name ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var amenities []persistence.Amenity
	for rows.Next() {
		amenity, err := scanAmenity(rows)
		if err != nil {
			return nil, err
		}
		amenities = append(amenities, amenity)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return amenities, nil
}

// DeleteAmenity removes an amenity; place links cascade.
func (r *AmenityRepository) DeleteAmenity(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM amenities WHERE id = ?", id)
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

func (r *AmenityRepository) getOne(ctx context.Context, query string, arg string) (persistence.Amenity, error) {
	amenity, err := scanAmenity(r.helper.QueryRow(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Amenity{}, persistence.ErrNotFound
		}
		return persistence.Amenity{}, err
	}
	return amenity, nil
}

func scanAmenity(row rowScanner) (persistence.Amenity, error) {
	var amenity persistence.Amenity
	var createdAtStr, updatedAtStr string

	if err := row.Scan(&amenity.ID, &amenity.Name, &createdAtStr, &updatedAtStr); err != nil {
		return persistence.Amenity{}, err
	}

	var err error
	if amenity.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Amenity{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if amenity.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Amenity{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return amenity, nil
}
