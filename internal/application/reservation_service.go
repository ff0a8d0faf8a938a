package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/homestay/internal/booking"
	"github.com/example/homestay/internal/persistence"
)

// ReservationRepository captures the persistence operations needed by the
// reservation service. Create and Update re-check the booked window inside
// their write transaction, so a conflict detected there surfaces even when
// the service-level scan saw a free window.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	ListReservationsForPlace(ctx context.Context, placeID string) ([]Reservation, error)
}

// ReservationFilter narrows reservation listings at the repository level.
type ReservationFilter struct {
	UserID      string
	PlaceID     string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// CreateReservationParams wraps a reservation creation request.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// UpdateReservationParams wraps a partial reservation update request.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID string
	Patch         ReservationPatch
}

// ReservationService books [start, end) windows on places, rejecting any
// window that intersects an existing reservation on the same place.
type ReservationService struct {
	reservations ReservationRepository
	places       PlaceDirectory
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService constructs a reservation service with the provided dependencies.
func NewReservationService(reservations ReservationRepository, places PlaceDirectory, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, places, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, places PlaceDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		places:       places,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation books a window for the caller after checking the place
// exists and the window is free.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", params.Principal.UserID,
		"place_id", params.Input.PlaceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	input := params.Input
	if input.PlaceID == "" {
		vErr := &ValidationError{}
		vErr.add("place_id", "place id is required")
		err = vErr
		return
	}
	if !input.Start.Before(input.End) {
		err = ErrInvalidInterval
		return
	}

	if s.places != nil {
		if _, err = s.places.GetPlace(ctx, input.PlaceID); err != nil {
			err = mapReservationRepoError(err)
			return
		}
	}

	if err = s.ensureWindowFree(ctx, input.PlaceID, input.Start, input.End, ""); err != nil {
		return
	}

	reservation = Reservation{
		ID:        s.idGenerator(),
		UserID:    params.Principal.UserID,
		PlaceID:   input.PlaceID,
		Start:     input.Start.UTC(),
		End:       input.End.UTC(),
		CreatedAt: s.now().UTC(),
	}
	reservation.UpdatedAt = reservation.CreatedAt

	reservation, err = s.reservations.CreateReservation(ctx, reservation)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	return
}

// GetReservation returns a single booking. Only the booker, the place owner,
// or an administrator may view it.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation repository not configured")
	}

	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}

	if err := s.authorizeReservationAccess(ctx, principal, reservation); err != nil {
		return Reservation{}, err
	}
	return reservation, nil
}

// ListReservations returns bookings matching the filter. Non-administrators
// only see their own bookings regardless of the requested user filter.
func (s *ReservationService) ListReservations(ctx context.Context, params ReservationListParams) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListReservations",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).InfoContext(ctx, "reservations listed")
	}()

	filter := ReservationFilter{
		UserID:      params.UserID,
		PlaceID:     params.PlaceID,
		StartsAfter: params.StartsAfter,
		EndsBefore:  params.EndsBefore,
	}
	if !params.Principal.IsAdmin {
		filter.UserID = params.Principal.UserID
	}

	reservations, err = s.reservations.ListReservations(ctx, filter)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	return
}

// CheckAvailability reports whether the window is free on the place. The
// answer is advisory: a concurrent booking may take the window before a
// subsequent create, which will then fail with ErrConflictingReservation.
func (s *ReservationService) CheckAvailability(ctx context.Context, principal Principal, placeID string, start, end time.Time) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return false, fmt.Errorf("reservation repository not configured")
	}
	if !start.Before(end) {
		return false, ErrInvalidInterval
	}

	if s.places != nil {
		if _, err := s.places.GetPlace(ctx, placeID); err != nil {
			return false, mapReservationRepoError(err)
		}
	}

	existing, err := s.reservations.ListReservationsForPlace(ctx, placeID)
	if err != nil {
		return false, mapReservationRepoError(err)
	}

	_, conflict := booking.FindConflict(reservationIntervals(existing), start, end, "")
	return !conflict, nil
}

// UpdateReservation moves a booking to a new window. The booking's own window
// does not count as a conflict.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateReservation",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation updated")
	}()

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	if existing.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	updated := existing
	if params.Patch.Start != nil {
		updated.Start = params.Patch.Start.UTC()
	}
	if params.Patch.End != nil {
		updated.End = params.Patch.End.UTC()
	}

	if !updated.Start.Before(updated.End) {
		err = ErrInvalidInterval
		return
	}

	if err = s.ensureWindowFree(ctx, updated.PlaceID, updated.Start, updated.End, updated.ID); err != nil {
		return
	}

	updated.UpdatedAt = s.now().UTC()

	reservation, err = s.reservations.UpdateReservation(ctx, updated)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	return
}

// DeleteReservation cancels a booking, freeing its window immediately. Only
// the booker or an administrator may cancel.
func (s *ReservationService) DeleteReservation(ctx context.Context, principal Principal, reservationID string) error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteReservation",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)

	existing, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		err = mapReservationRepoError(err)
		logger.ErrorContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if existing.UserID != principal.UserID && !principal.IsAdmin {
		logger.ErrorContext(ctx, "failed to delete reservation", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.reservations.DeleteReservation(ctx, reservationID); err != nil {
		err = mapReservationRepoError(err)
		logger.ErrorContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "reservation deleted")
	return nil
}

// ensureWindowFree scans the place's bookings for an intersecting window,
// skipping excludeID so a booking can keep or shrink its own window.
func (s *ReservationService) ensureWindowFree(ctx context.Context, placeID string, start, end time.Time, excludeID string) error {
	existing, err := s.reservations.ListReservationsForPlace(ctx, placeID)
	if err != nil {
		return mapReservationRepoError(err)
	}

	if _, conflict := booking.FindConflict(reservationIntervals(existing), start, end, excludeID); conflict {
		return ErrConflictingReservation
	}
	return nil
}

func (s *ReservationService) authorizeReservationAccess(ctx context.Context, principal Principal, reservation Reservation) error {
	if reservation.UserID == principal.UserID || principal.IsAdmin {
		return nil
	}
	if s.places != nil {
		place, err := s.places.GetPlace(ctx, reservation.PlaceID)
		if err == nil && place.OwnerID == principal.UserID {
			return nil
		}
	}
	return ErrUnauthorized
}

func reservationIntervals(reservations []Reservation) []booking.Interval {
	if len(reservations) == 0 {
		return nil
	}
	intervals := make([]booking.Interval, 0, len(reservations))
	for _, r := range reservations {
		intervals = append(intervals, booking.Interval{
			ReservationID: r.ID,
			PlaceID:       r.PlaceID,
			Start:         r.Start,
			End:           r.End,
		})
	}
	return intervals
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrOverlap) {
		return ErrConflictingReservation
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return ErrInvalidInterval
	}
	return err
}
