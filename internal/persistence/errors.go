package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a check constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrOverlap is returned when a reservation write would intersect an
	// existing [start, end) window on the same place. The overlap re-check
	// runs inside the same transaction as the write, so two concurrent
	// bookings cannot both pass it.
	ErrOverlap = errors.New("persistence: overlapping reservation")
)
