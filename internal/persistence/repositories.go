package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByPhone(ctx context.Context, phone string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// PlaceRepository stores listed places and their amenity links.
type PlaceRepository interface {
	CreatePlace(ctx context.Context, place Place) error
	UpdatePlace(ctx context.Context, place Place) error
	GetPlace(ctx context.Context, id string) (Place, error)
	ListPlaces(ctx context.Context) ([]Place, error)
	ListPlacesByOwner(ctx context.Context, ownerID string) ([]Place, error)
	DeletePlace(ctx context.Context, id string) error
}

// AmenityRepository stores the amenity catalog.
type AmenityRepository interface {
	CreateAmenity(ctx context.Context, amenity Amenity) error
	UpdateAmenity(ctx context.Context, amenity Amenity) error
	GetAmenity(ctx context.Context, id string) (Amenity, error)
	GetAmenityByName(ctx context.Context, name string) (Amenity, error)
	ListAmenities(ctx context.Context) ([]Amenity, error)
	DeleteAmenity(ctx context.Context, id string) error
}

// ReviewRepository stores place reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review Review) error
	UpdateReview(ctx context.Context, review Review) error
	GetReview(ctx context.Context, id string) (Review, error)
	ListReviewsForPlace(ctx context.Context, placeID string) ([]Review, error)
	DeleteReview(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation queries.
type ReservationFilter struct {
	UserID      string
	PlaceID     string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ReservationRepository stores booked windows. CreateReservation and
// UpdateReservation re-check for overlapping windows on the same place inside
// the write transaction and fail with ErrOverlap, so the service-level check
// cannot race a concurrent booking.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	ListReservationsForPlace(ctx context.Context, placeID string) ([]Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}
