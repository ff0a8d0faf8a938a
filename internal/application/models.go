package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// User represents a marketplace account exposed by the application services.
type User struct {
	ID          string
	Username    string
	Email       string
	PhoneNumber *string
	Country     string
	Town        string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Username    string
	Email       string
	Password    string
	PhoneNumber *string
	Country     string
	Town        string
	IsAdmin     bool
}

// UserPatch captures a partial user update; nil fields keep their prior value.
type UserPatch struct {
	Username    *string
	Email       *string
	Password    *string
	PhoneNumber *string
	Country     *string
	Town        *string
	IsAdmin     *bool
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

// PlaceInput captures caller provided place fields.
type PlaceInput struct {
	Name         string
	Description  string
	PriceByNight int
	Location     string
	Country      string
	Town         string
	Latitude     *float64
	Longitude    *float64
	Amenities    []string
}

// PlacePatch captures a partial place update; nil fields keep their prior value.
type PlacePatch struct {
	Name         *string
	Description  *string
	PriceByNight *int
	Location     *string
	Country      *string
	Town         *string
	Latitude     *float64
	Longitude    *float64
	Amenities    []string
}

// Amenity represents a catalog facility attachable to places.
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

// ReviewInput captures caller provided review fields.
type ReviewInput struct {
	PlaceID string
	Rating  int
	Comment string
}

// ReviewPatch captures a partial review update; nil fields keep their prior value.
type ReviewPatch struct {
	Rating  *int
	Comment *string
}

// Reservation represents a booked [Start, End) window on a place.
type Reservation struct {
	ID        string
	UserID    string
	PlaceID   string
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservationInput captures caller provided reservation fields.
type ReservationInput struct {
	PlaceID string
	Start   time.Time
	End     time.Time
}

// ReservationPatch captures a partial reservation update; nil fields keep
// their prior value. The resulting record is revalidated as a whole.
type ReservationPatch struct {
	Start *time.Time
	End   *time.Time
}

// ReservationListParams narrows reservation listings.
type ReservationListParams struct {
	Principal   Principal
	UserID      string
	PlaceID     string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// RegisterParams wraps the data required to register a new account.
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	PhoneNumber *string
	Country     string
	Town        string
}

// LoginParams captures the first step of the two-factor login flow.
type LoginParams struct {
	Email    string
	Password string
}

// VerifyParams captures the code-verification step of a handshake flow.
type VerifyParams struct {
	Email string
	Code  string
}

// ResetPasswordParams captures the completion of the password-reset flow.
type ResetPasswordParams struct {
	Email       string
	Code        string
	NewPassword string
}

// TokenResult carries a freshly issued access token.
type TokenResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        User
}
