package sqlite

import (
	"context"
	"fmt"
)

// Storage bundles the SQLite-backed repositories behind a single handle.
type Storage struct {
	pool *ConnectionPool

	Users        *UserRepository
	Places       *PlaceRepository
	Amenities    *AmenityRepository
	Reviews      *ReviewRepository
	Reservations *ReservationRepository
}

// Open connects to the database identified by dsn and wires the repositories.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:         pool,
		Users:        NewUserRepository(pool),
		Places:       NewPlaceRepository(pool),
		Amenities:    NewAmenityRepository(pool),
		Reviews:      NewReviewRepository(pool),
		Reservations: NewReservationRepository(pool),
	}, nil
}

// Pool exposes the underlying connection pool.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Migrate creates the schema when it does not exist yet. Statements are
// idempotent so Migrate is safe to run on every boot.
func (s *Storage) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			phone_number TEXT UNIQUE,
			country TEXT NOT NULL,
			town TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS places (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price_by_night INTEGER NOT NULL CHECK (price_by_night > 0),
			location TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			town TEXT NOT NULL DEFAULT '',
			latitude REAL,
			longitude REAL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS amenities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS place_amenities (
			place_id TEXT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
			amenity_id TEXT NOT NULL REFERENCES amenities(id) ON DELETE CASCADE,
			PRIMARY KEY (place_id, amenity_id)
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			place_id TEXT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
			rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			place_id TEXT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			CHECK (start_time < end_time)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_place_window
			ON reservations (place_id, start_time, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_place ON reviews (place_id)`,
		`CREATE INDEX IF NOT EXISTS idx_places_owner ON places (owner_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	return nil
}
