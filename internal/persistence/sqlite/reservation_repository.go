package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/homestay/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository using
// SQLite. Writes re-run the overlap query inside the write transaction, so
// the check and the insert are atomic with respect to a concurrent booking.
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const reservationColumns = "id, user_id, place_id, start_time, end_time, created_at, updated_at"

// reservationTimeLayout is RFC 3339 with a fixed nine digit fraction. The
// fixed width keeps lexicographic comparison in SQL aligned with
// chronological order; time.RFC3339Nano trims trailing zeros and would not.
// It also preserves sub-second precision, so two instants inside the same
// second never collapse into an empty window.
const reservationTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatReservationTime(t time.Time) string {
	return t.UTC().Format(reservationTimeLayout)
}

func parseReservationTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

// CreateReservation inserts a reservation after verifying no stored window on
// the same place intersects [Start, End).
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if !reservation.Start.Before(reservation.End) {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.ensureNoOverlapTx(tx, reservation.PlaceID, reservation.Start, reservation.End, ""); err != nil {
			return err
		}

		query := `
			INSERT INTO reservations (` + reservationColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`

		_, err := r.helper.ExecTx(tx, query,
			reservation.ID,
			reservation.UserID,
			reservation.PlaceID,
			formatReservationTime(reservation.Start),
			formatReservationTime(reservation.End),
			formatReservationTime(reservation.CreatedAt),
			formatReservationTime(reservation.UpdatedAt),
		)
		if err != nil {
			return mapUniqueError(err, r.mapper)
		}
		return nil
	})
}

// UpdateReservation rewrites a reservation window, excluding the record's own
// id from the overlap re-check.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrNotFound
	}
	if !reservation.Start.Before(reservation.End) {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.ensureNoOverlapTx(tx, reservation.PlaceID, reservation.Start, reservation.End, reservation.ID); err != nil {
			return err
		}

		query := `
			UPDATE reservations
			SET user_id = ?, place_id = ?, start_time = ?, end_time = ?, updated_at = ?
			WHERE id = ?
		`

		result, err := r.helper.ExecTx(tx, query,
			reservation.UserID,
			reservation.PlaceID,
			formatReservationTime(reservation.Start),
			formatReservationTime(reservation.End),
			formatReservationTime(reservation.UpdatedAt),
			reservation.ID,
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
	})
}

// GetReservation retrieves a reservation by id.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	reservation, err := scanReservation(r.helper.QueryRow(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Reservation{}, persistence.ErrNotFound
		}
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

// ListReservations returns reservations matching the filter ordered by start.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query, args := buildReservationListQuery(filter)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return reservations, nil
}

// ListReservationsForPlace returns all reservations for a place ordered by start.
func (r *ReservationRepository) ListReservationsForPlace(ctx context.Context, placeID string) ([]persistence.Reservation, error) {
	return r.ListReservations(ctx, persistence.ReservationFilter{PlaceID: placeID})
}

// DeleteReservation removes a reservation by id.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM reservations WHERE id = ?", id)
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

// ensureNoOverlapTx fails with persistence.ErrOverlap when a stored window on
// the place intersects [start, end). Timestamps are stored in the fixed width
// UTC layout, so lexicographic comparison in SQL matches chronological order.
func (r *ReservationRepository) ensureNoOverlapTx(tx *sql.Tx, placeID string, start, end time.Time, excludeID string) error {
	query := `
		SELECT id FROM reservations
		WHERE place_id = ? AND start_time < ? AND end_time > ?
	`
	args := []any{placeID, formatReservationTime(end), formatReservationTime(start)}

	if excludeID != "" {
		query += " AND id != ?"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	var conflictingID string
	err := r.helper.QueryRowTx(tx, query, args...).Scan(&conflictingID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return r.mapper.MapError(err)
	}
	return persistence.ErrOverlap
}

func buildReservationListQuery(filter persistence.ReservationFilter) (string, []any) {
	baseQuery := "SELECT " + reservationColumns + " FROM reservations"

	var conditions []string
	var args []any

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.PlaceID != "" {
		conditions = append(conditions, "place_id = ?")
		args = append(args, filter.PlaceID)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, formatReservationTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatReservationTime(*filter.EndsBefore))
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY start_time ASC, id ASC"

	return baseQuery, args
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var startStr, endStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&reservation.ID,
		&reservation.UserID,
		&reservation.PlaceID,
		&startStr,
		&endStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Reservation{}, err
	}

	if reservation.Start, err = parseReservationTime(startStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if reservation.End, err = parseReservationTime(endStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if reservation.CreatedAt, err = parseReservationTime(createdAtStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = parseReservationTime(updatedAtStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return reservation, nil
}
