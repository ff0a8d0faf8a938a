package persistence

import "time"

// User represents a marketplace account record.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	PhoneNumber  *string
	Country      string
	Town         string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Place represents a listed rental property.
type Place struct {
	ID           string
	OwnerID      string
	Name         string
	Description  string
	PriceByNight int
	Location     string
	Country      string
	Town         string
	Latitude     *float64
	Longitude    *float64
	Amenities    []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Amenity represents a named facility attachable to places.
type Amenity struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Review represents a rating and comment left by a user on a place.
type Review struct {
	ID        string
	UserID    string
	PlaceID   string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation represents a booked [Start, End) window on a place. It
// references one user and one place but is owned by neither.
type Reservation struct {
	ID        string
	UserID    string
	PlaceID   string
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
