package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/homestay/internal/persistence"
)

// PlaceRepository implements persistence.PlaceRepository using SQLite.
// Amenity links are maintained in the place_amenities association table
// within the same transaction as the place row.
type PlaceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPlaceRepository creates a new SQLite place repository.
func NewPlaceRepository(pool *ConnectionPool) *PlaceRepository {
	return &PlaceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const placeColumns = "id, owner_id, name, description, price_by_night, location, country, town, latitude, longitude, created_at, updated_at"

// CreatePlace inserts a new place with its amenity links.
func (r *PlaceRepository) CreatePlace(ctx context.Context, place persistence.Place) error {
	if place.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO places (` + placeColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		_, err := r.helper.ExecTx(tx, query,
			place.ID,
			place.OwnerID,
			place.Name,
			place.Description,
			place.PriceByNight,
			place.Location,
			place.Country,
			place.Town,
			nullFloat(place.Latitude),
			nullFloat(place.Longitude),
			place.CreatedAt.UTC().Format(time.RFC3339),
			place.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return mapUniqueError(err, r.mapper)
		}

		return r.replaceAmenityLinks(tx, place.ID, place.Amenities)
	})
}

// UpdatePlace updates an existing place and rewrites its amenity links.
func (r *PlaceRepository) UpdatePlace(ctx context.Context, place persistence.Place) error {
	if place.ID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		// Owner cannot change through updates.
		var currentOwnerID string
		err := r.helper.QueryRowTx(tx, "SELECT owner_id FROM places WHERE id = ?", place.ID).Scan(&currentOwnerID)
		if err != nil {
			if err == sql.ErrNoRows {
				return persistence.ErrNotFound
			}
			return r.mapper.MapError(err)
		}

		query := `
			UPDATE places
			SET name = ?, description = ?, price_by_night = ?, location = ?, country = ?, town = ?, latitude = ?, longitude = ?, updated_at = ?
			WHERE id = ?
		`

		result, err := r.helper.ExecTx(tx, query,
			place.Name,
			place.Description,
			place.PriceByNight,
			place.Location,
			place.Country,
			place.Town,
			nullFloat(place.Latitude),
			nullFloat(place.Longitude),
			place.UpdatedAt.UTC().Format(time.RFC3339),
			place.ID,
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

		if _, err := r.helper.ExecTx(tx, "DELETE FROM place_amenities WHERE place_id = ?", place.ID); err != nil {
			return r.mapper.MapError(err)
		}
		return r.replaceAmenityLinks(tx, place.ID, place.Amenities)
	})
}

// GetPlace retrieves a place by id including its amenity names.
func (r *PlaceRepository) GetPlace(ctx context.Context, id string) (persistence.Place, error) {
	if id == "" {
		return persistence.Place{}, persistence.ErrNotFound
	}

	place, err := scanPlace(r.helper.QueryRow(ctx, "SELECT "+placeColumns+" FROM places WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Place{}, persistence.ErrNotFound
		}
		return persistence.Place{}, err
	}

	amenities, err := r.loadAmenityNames(ctx, id)
	if err != nil {
		return persistence.Place{}, err
	}
	place.Amenities = amenities
	return place, nil
}

// ListPlaces returns all places ordered by name.
func (r *PlaceRepository) ListPlaces(ctx context.Context) ([]persistence.Place, error) {
	return r.list(ctx, "SELECT "+placeColumns+" FROM places ORDER BY name ASC, id ASC")
}

// ListPlacesByOwner returns the places owned by the given user.
func (r *PlaceRepository) ListPlacesByOwner(ctx context.Context, ownerID string) ([]persistence.Place, error) {
	return r.list(ctx, "SELECT "+placeColumns+" FROM places WHERE owner_id = ? ORDER BY name ASC, id ASC", ownerID)
}

// DeletePlace removes a place; amenity links, reviews, and reservations
// cascade at the schema level.
func (r *PlaceRepository) DeletePlace(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM places WHERE id = ?", id)
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

func (r *PlaceRepository) list(ctx context.Context, query string, args ...any) ([]persistence.Place, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var places []persistence.Place
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, place)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range places {
		amenities, err := r.loadAmenityNames(ctx, places[i].ID)
		if err != nil {
			return nil, err
		}
		places[i].Amenities = amenities
	}
	return places, nil
}

// replaceAmenityLinks links the place to amenities, resolving each name to an
// existing amenity row.
func (r *PlaceRepository) replaceAmenityLinks(tx *sql.Tx, placeID string, amenityNames []string) error {
	for _, name := range amenityNames {
		var amenityID string
		err := r.helper.QueryRowTx(tx, "SELECT id FROM amenities WHERE name = ?", name).Scan(&amenityID)
		if err != nil {
			if err == sql.ErrNoRows {
				return persistence.ErrForeignKeyViolation
			}
			return r.mapper.MapError(err)
		}

		_, err = r.helper.ExecTx(tx,
			"INSERT OR IGNORE INTO place_amenities (place_id, amenity_id) VALUES (?, ?)",
			placeID, amenityID)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

func (r *PlaceRepository) loadAmenityNames(ctx context.Context, placeID string) ([]string, error) {
	query := `
		SELECT a.name
		FROM amenities a
		JOIN place_amenities pa ON pa.amenity_id = a.id
		WHERE pa.place_id = ?
		ORDER BY a.name ASC
	`

	rows, err := r.helper.Query(ctx, query, placeID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, r.mapper.MapError(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return names, nil
}

func scanPlace(row rowScanner) (persistence.Place, error) {
	var place persistence.Place
	var latitude, longitude sql.NullFloat64
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&place.ID,
		&place.OwnerID,
		&place.Name,
		&place.Description,
		&place.PriceByNight,
		&place.Location,
		&place.Country,
		&place.Town,
		&latitude,
		&longitude,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Place{}, err
	}

	if latitude.Valid {
		place.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		place.Longitude = &longitude.Float64
	}

	if place.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Place{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if place.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Place{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return place, nil
}

func nullFloat(value *float64) sql.NullFloat64 {
	var out sql.NullFloat64
	if value != nil {
		out.Float64 = *value
		out.Valid = true
	}
	return out
}
