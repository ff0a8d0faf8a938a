package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/homestay/internal/application"
	"github.com/example/homestay/internal/persistence"
)

var (
	userCounter        uint64
	placeCounter       uint64
	amenityCounter     uint64
	reviewCounter      uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
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

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Username:     fmt.Sprintf("user%03d", idx),
		Email:        fmt.Sprintf("%s@example.com", id),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Country:      "France",
		Town:         "Lyon",
		IsAdmin:      false,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserPhone sets the optional phone number.
func WithUserPhone(phone string) UserOption {
	return func(f *UserFixture) {
		value := phone
		f.PhoneNumber = &value
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Username:    f.Username,
		Email:       f.Email,
		PhoneNumber: copyStringPtr(f.PhoneNumber),
		Country:     f.Country,
		Town:        f.Town,
		IsAdmin:     f.IsAdmin,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Username:     f.Username,
		Email:        f.Email,
		PasswordHash: f.PasswordHash,
		PhoneNumber:  copyStringPtr(f.PhoneNumber),
		Country:      f.Country,
		Town:         f.Town,
		IsAdmin:      f.IsAdmin,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Input returns the fixture as an application.UserInput.
func (f UserFixture) Input() application.UserInput {
	return application.UserInput{
		Username:    f.Username,
		Email:       f.Email,
		Password:    "password1",
		PhoneNumber: copyStringPtr(f.PhoneNumber),
		Country:     f.Country,
		Town:        f.Town,
		IsAdmin:     f.IsAdmin,
	}
}

// ----------------------------- Place fixtures ----------------------------

// PlaceFixture represents a deterministic place record.
type PlaceFixture struct {
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

// PlaceOption configures the generated place fixture.
type PlaceOption func(*PlaceFixture)

// NewPlaceFixture returns a deterministic place fixture with optional overrides.
func NewPlaceFixture(opts ...PlaceOption) PlaceFixture {
	idx := atomic.AddUint64(&placeCounter, 1)
	id := fmt.Sprintf("place-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := PlaceFixture{
		ID:           id,
		OwnerID:      fmt.Sprintf("user-%03d", idx),
		Name:         fmt.Sprintf("Place %03d", idx),
		Description:  "A quiet spot near the river",
		PriceByNight: int(80 + idx%40),
		Location:     "Old Town",
		Country:      "France",
		Town:         "Lyon",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPlaceID overrides the generated place ID.
func WithPlaceID(id string) PlaceOption {
	return func(f *PlaceFixture) {
		f.ID = id
	}
}

// WithPlaceOwner sets the owner ID.
func WithPlaceOwner(ownerID string) PlaceOption {
	return func(f *PlaceFixture) {
		f.OwnerID = ownerID
	}
}

// WithPlaceName overrides the generated place name.
func WithPlaceName(name string) PlaceOption {
	return func(f *PlaceFixture) {
		f.Name = name
	}
}

// WithPlacePrice overrides the nightly price.
func WithPlacePrice(price int) PlaceOption {
	return func(f *PlaceFixture) {
		f.PriceByNight = price
	}
}

// WithPlaceCoordinates sets the latitude and longitude.
func WithPlaceCoordinates(lat, lon float64) PlaceOption {
	return func(f *PlaceFixture) {
		latitude, longitude := lat, lon
		f.Latitude = &latitude
		f.Longitude = &longitude
	}
}

// WithPlaceAmenities sets the amenity names attached to the place.
func WithPlaceAmenities(names ...string) PlaceOption {
	return func(f *PlaceFixture) {
		f.Amenities = append([]string(nil), names...)
	}
}

// WithPlaceTimestamps sets both created and updated timestamps.
func WithPlaceTimestamps(created, updated time.Time) PlaceOption {
	return func(f *PlaceFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Place value.
func (f PlaceFixture) Application() application.Place {
	return application.Place{
		ID:           f.ID,
		OwnerID:      f.OwnerID,
		Name:         f.Name,
		Description:  f.Description,
		PriceByNight: f.PriceByNight,
		Location:     f.Location,
		Country:      f.Country,
		Town:         f.Town,
		Latitude:     copyFloatPtr(f.Latitude),
		Longitude:    copyFloatPtr(f.Longitude),
		Amenities:    append([]string(nil), f.Amenities...),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Place value.
func (f PlaceFixture) Persistence() persistence.Place {
	return persistence.Place{
		ID:           f.ID,
		OwnerID:      f.OwnerID,
		Name:         f.Name,
		Description:  f.Description,
		PriceByNight: f.PriceByNight,
		Location:     f.Location,
		Country:      f.Country,
		Town:         f.Town,
		Latitude:     copyFloatPtr(f.Latitude),
		Longitude:    copyFloatPtr(f.Longitude),
		Amenities:    append([]string(nil), f.Amenities...),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Input returns the fixture as an application.PlaceInput.
func (f PlaceFixture) Input() application.PlaceInput {
	return application.PlaceInput{
		Name:         f.Name,
		Description:  f.Description,
		PriceByNight: f.PriceByNight,
		Location:     f.Location,
		Country:      f.Country,
		Town:         f.Town,
		Latitude:     copyFloatPtr(f.Latitude),
		Longitude:    copyFloatPtr(f.Longitude),
		Amenities:    append([]string(nil), f.Amenities...),
	}
}

// ---------------------------- Amenity fixtures ---------------------------

// AmenityFixture represents a deterministic amenity catalog record.
type AmenityFixture struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AmenityOption configures the generated amenity fixture.
type AmenityOption func(*AmenityFixture)

// NewAmenityFixture returns a deterministic amenity fixture with optional overrides.
func NewAmenityFixture(opts ...AmenityOption) AmenityFixture {
	idx := atomic.AddUint64(&amenityCounter, 1)
	fixture := AmenityFixture{
		ID:        fmt.Sprintf("amenity-%03d", idx),
		Name:      fmt.Sprintf("Amenity %03d", idx),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAmenityID overrides the generated amenity ID.
func WithAmenityID(id string) AmenityOption {
	return func(f *AmenityFixture) {
		f.ID = id
	}
}

// WithAmenityName overrides the generated amenity name.
func WithAmenityName(name string) AmenityOption {
	return func(f *AmenityFixture) {
		f.Name = name
	}
}

// Application returns the fixture as an application.Amenity value.
func (f AmenityFixture) Application() application.Amenity {
	return application.Amenity{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Amenity value.
func (f AmenityFixture) Persistence() persistence.Amenity {
	return persistence.Amenity{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ---------------------------- Review fixtures ----------------------------

// ReviewFixture represents a deterministic review record.
type ReviewFixture struct {
	ID        string
	UserID    string
	PlaceID   string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReviewOption configures the generated review fixture.
type ReviewOption func(*ReviewFixture)

// NewReviewFixture returns a deterministic review fixture with optional overrides.
func NewReviewFixture(opts ...ReviewOption) ReviewFixture {
	idx := atomic.AddUint64(&reviewCounter, 1)
	fixture := ReviewFixture{
		ID:        fmt.Sprintf("review-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		PlaceID:   fmt.Sprintf("place-%03d", idx),
		Rating:    int(1 + idx%5),
		Comment:   "Lovely stay",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReviewID overrides the generated review ID.
func WithReviewID(id string) ReviewOption {
	return func(f *ReviewFixture) {
		f.ID = id
	}
}

// WithReviewAuthor sets the author ID.
func WithReviewAuthor(userID string) ReviewOption {
	return func(f *ReviewFixture) {
		f.UserID = userID
	}
}

// WithReviewPlace sets the reviewed place ID.
func WithReviewPlace(placeID string) ReviewOption {
	return func(f *ReviewFixture) {
		f.PlaceID = placeID
	}
}

// WithReviewRating overrides the rating.
func WithReviewRating(rating int) ReviewOption {
	return func(f *ReviewFixture) {
		f.Rating = rating
	}
}

// WithReviewComment overrides the comment text.
func WithReviewComment(comment string) ReviewOption {
	return func(f *ReviewFixture) {
		f.Comment = comment
	}
}

// Application returns the fixture as an application.Review value.
func (f ReviewFixture) Application() application.Review {
	return application.Review{
		ID:        f.ID,
		UserID:    f.UserID,
		PlaceID:   f.PlaceID,
		Rating:    f.Rating,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Review value.
func (f ReviewFixture) Persistence() persistence.Review {
	return persistence.Review{
		ID:        f.ID,
		UserID:    f.UserID,
		PlaceID:   f.PlaceID,
		Rating:    f.Rating,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ------------------------- Reservation fixtures --------------------------

// ReservationFixture represents a deterministic booked window.
type ReservationFixture struct {
	ID        string
	UserID    string
	PlaceID   string
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a deterministic reservation fixture. Windows
// generated from consecutive calls never overlap.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	start := referenceTime.AddDate(0, 0, int(idx)*7)
	fixture := ReservationFixture{
		ID:        fmt.Sprintf("reservation-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		PlaceID:   fmt.Sprintf("place-%03d", idx),
		Start:     start,
		End:       start.AddDate(0, 0, 3),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationBooker sets the booking user ID.
func WithReservationBooker(userID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.UserID = userID
	}
}

// WithReservationPlace sets the booked place ID.
func WithReservationPlace(placeID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.PlaceID = placeID
	}
}

// WithReservationWindow sets the [start, end) window.
func WithReservationWindow(start, end time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.Start = start
		f.End = end
	}
}

// Application returns the fixture as an application.Reservation value.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:        f.ID,
		UserID:    f.UserID,
		PlaceID:   f.PlaceID,
		Start:     f.Start,
		End:       f.End,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:        f.ID,
		UserID:    f.UserID,
		PlaceID:   f.PlaceID,
		Start:     f.Start,
		End:       f.End,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.ReservationInput.
func (f ReservationFixture) Input() application.ReservationInput {
	return application.ReservationInput{
		PlaceID: f.PlaceID,
		Start:   f.Start,
		End:     f.End,
	}
}

// helper to deep copy optional strings.
func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}

func copyFloatPtr(src *float64) *float64 {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
