package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/example/homestay/internal/persistence"
)

// PlaceRepository captures the persistence operations needed by the place service.
type PlaceRepository interface {
	CreatePlace(ctx context.Context, place Place) (Place, error)
	GetPlace(ctx context.Context, id string) (Place, error)
	UpdatePlace(ctx context.Context, place Place) (Place, error)
	DeletePlace(ctx context.Context, id string) error
	ListPlaces(ctx context.Context) ([]Place, error)
	ListPlacesByOwner(ctx context.Context, ownerID string) ([]Place, error)
}

// AmenityCatalog resolves amenity names for place writes, creating catalog
// entries on first use.
type AmenityCatalog interface {
	GetAmenityByName(ctx context.Context, name string) (Amenity, error)
	CreateAmenity(ctx context.Context, amenity Amenity) (Amenity, error)
}

// CreatePlaceParams wraps a place creation request.
type CreatePlaceParams struct {
	Principal Principal
	Input     PlaceInput
}

// UpdatePlaceParams wraps a partial place update request.
type UpdatePlaceParams struct {
	Principal Principal
	PlaceID   string
	Patch     PlacePatch
}

// PlaceService orchestrates validation, authorization, and persistence for listings.
type PlaceService struct {
	places      PlaceRepository
	amenities   AmenityCatalog
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPlaceService constructs a place service with the provided dependencies.
func NewPlaceService(places PlaceRepository, amenities AmenityCatalog, idGenerator func() string, now func() time.Time) *PlaceService {
	return NewPlaceServiceWithLogger(places, amenities, idGenerator, now, nil)
}

// NewPlaceServiceWithLogger constructs a place service with a specified logger.
func NewPlaceServiceWithLogger(places PlaceRepository, amenities AmenityCatalog, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PlaceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PlaceService{
		places:      places,
		amenities:   amenities,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *PlaceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PlaceService", operation, attrs...)
}

// CreatePlace validates input and lists a new place owned by the caller.
func (s *PlaceService) CreatePlace(ctx context.Context, params CreatePlaceParams) (place Place, err error) {
	if s == nil {
		err = fmt.Errorf("PlaceService is nil")
		return
	}
	if s.places == nil {
		err = fmt.Errorf("place repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreatePlace",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create place", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("place_id", place.ID).InfoContext(ctx, "place created")
	}()

	input := normalizePlaceInput(params.Input)
	vErr := validatePlaceInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var amenities []string
	amenities, err = s.resolveAmenities(ctx, input.Amenities)
	if err != nil {
		return
	}

	place = Place{
		ID:           s.idGenerator(),
		OwnerID:      params.Principal.UserID,
		Name:         input.Name,
		Description:  input.Description,
		PriceByNight: input.PriceByNight,
		Location:     input.Location,
		Country:      input.Country,
		Town:         input.Town,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Amenities:    amenities,
		CreatedAt:    s.now().UTC(),
	}
	place.UpdatedAt = place.CreatedAt

	place, err = s.places.CreatePlace(ctx, place)
	if err != nil {
		err = mapPlaceRepoError(err)
		return
	}

	return
}

// GetPlace returns a single listing for any authenticated principal.
func (s *PlaceService) GetPlace(ctx context.Context, principal Principal, placeID string) (Place, error) {
	if s == nil {
		return Place{}, fmt.Errorf("PlaceService is nil")
	}
	if s.places == nil {
		return Place{}, fmt.Errorf("place repository not configured")
	}

	place, err := s.places.GetPlace(ctx, placeID)
	if err != nil {
		return Place{}, mapPlaceRepoError(err)
	}
	return place, nil
}

// ListPlaces returns listings, restricted to a single owner when ownerID is set.
func (s *PlaceService) ListPlaces(ctx context.Context, principal Principal, ownerID string) (places []Place, err error) {
	if s == nil {
		err = fmt.Errorf("PlaceService is nil")
		return
	}
	if s.places == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListPlaces",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list places", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(places)).InfoContext(ctx, "places listed")
	}()

	var raw []Place
	if ownerID != "" {
		raw, err = s.places.ListPlacesByOwner(ctx, ownerID)
	} else {
		raw, err = s.places.ListPlaces(ctx)
	}
	if err != nil {
		err = mapPlaceRepoError(err)
		return
	}

	places = make([]Place, len(raw))
	copy(places, raw)
	sort.Slice(places, func(i, j int) bool {
		if strings.EqualFold(places[i].Name, places[j].Name) {
			return places[i].ID < places[j].ID
		}
		return strings.ToLower(places[i].Name) < strings.ToLower(places[j].Name)
	})

	return
}

// UpdatePlace applies a partial update to a listing. Only the owner or an
// administrator may modify it, and ownership never changes.
func (s *PlaceService) UpdatePlace(ctx context.Context, params UpdatePlaceParams) (place Place, err error) {
	if s == nil {
		err = fmt.Errorf("PlaceService is nil")
		return
	}
	if s.places == nil {
		err = fmt.Errorf("place repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdatePlace",
		"principal_id", params.Principal.UserID,
		"place_id", params.PlaceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update place", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("place_id", place.ID).InfoContext(ctx, "place updated")
	}()

	var existing Place
	existing, err = s.places.GetPlace(ctx, params.PlaceID)
	if err != nil {
		err = mapPlaceRepoError(err)
		return
	}

	if existing.OwnerID != params.Principal.UserID && !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	updated := applyPlacePatch(existing, params.Patch)
	vErr := validatePlaceUpdate(updated)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if params.Patch.Amenities != nil {
		var amenities []string
		amenities, err = s.resolveAmenities(ctx, normalizeAmenityNames(params.Patch.Amenities))
		if err != nil {
			return
		}
		updated.Amenities = amenities
	}

	updated.UpdatedAt = s.now().UTC()

	place, err = s.places.UpdatePlace(ctx, updated)
	if err != nil {
		err = mapPlaceRepoError(err)
		return
	}

	return
}

// DeletePlace removes a listing together with its reviews and reservations.
// Only the owner or an administrator may delete it.
func (s *PlaceService) DeletePlace(ctx context.Context, principal Principal, placeID string) error {
	if s == nil {
		return fmt.Errorf("PlaceService is nil")
	}
	if s.places == nil {
		return fmt.Errorf("place repository not configured")
	}

	logger := s.loggerWith(ctx, "DeletePlace",
		"principal_id", principal.UserID,
		"place_id", placeID,
	)

	existing, err := s.places.GetPlace(ctx, placeID)
	if err != nil {
		err = mapPlaceRepoError(err)
		logger.ErrorContext(ctx, "failed to delete place", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if existing.OwnerID != principal.UserID && !principal.IsAdmin {
		logger.ErrorContext(ctx, "failed to delete place", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.places.DeletePlace(ctx, placeID); err != nil {
		err = mapPlaceRepoError(err)
		logger.ErrorContext(ctx, "failed to delete place", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "place deleted")
	return nil
}

// resolveAmenities maps amenity names to catalog entries, creating any that
// do not exist yet, and returns the stored names sorted and deduplicated.
func (s *PlaceService) resolveAmenities(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if s.amenities == nil {
		return nil, fmt.Errorf("amenity catalog not configured")
	}

	resolved := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		stored, err := s.amenities.GetAmenityByName(ctx, name)
		if err == nil {
			resolved = append(resolved, stored.Name)
			continue
		}
		if !isNotFound(err) {
			return nil, mapPlaceRepoError(err)
		}

		created := Amenity{
			ID:        s.idGenerator(),
			Name:      name,
			CreatedAt: s.now().UTC(),
		}
		created.UpdatedAt = created.CreatedAt
		stored, err = s.amenities.CreateAmenity(ctx, created)
		if err != nil {
			// A concurrent writer may have added the same name.
			if errors.Is(err, persistence.ErrDuplicate) || errors.Is(err, ErrAlreadyExists) {
				stored, err = s.amenities.GetAmenityByName(ctx, name)
			}
			if err != nil {
				return nil, mapPlaceRepoError(err)
			}
		}
		resolved = append(resolved, stored.Name)
	}

	sort.Strings(resolved)
	return resolved, nil
}

func applyPlacePatch(existing Place, patch PlacePatch) Place {
	updated := existing
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.PriceByNight != nil {
		updated.PriceByNight = *patch.PriceByNight
	}
	if patch.Location != nil {
		updated.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Country != nil {
		updated.Country = strings.TrimSpace(*patch.Country)
	}
	if patch.Town != nil {
		updated.Town = strings.TrimSpace(*patch.Town)
	}
	if patch.Latitude != nil {
		updated.Latitude = patch.Latitude
	}
	if patch.Longitude != nil {
		updated.Longitude = patch.Longitude
	}
	return updated
}

func normalizePlaceInput(input PlaceInput) PlaceInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)
	input.Country = strings.TrimSpace(input.Country)
	input.Town = strings.TrimSpace(input.Town)
	input.Amenities = normalizeAmenityNames(input.Amenities)
	return input
}

// normalizeAmenityNames trims and capitalizes names so "wifi" and "WiFi"
// resolve to the same catalog entry.
func normalizeAmenityNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		normalized := capitalizeName(name)
		if normalized == "" {
			continue
		}
		out = append(out, normalized)
	}
	return out
}

func capitalizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	runes := []rune(strings.ToLower(trimmed))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func validatePlaceInput(input PlaceInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.PriceByNight <= 0 {
		vErr.add("price_by_night", "price by night must be positive")
	}
	if input.Latitude != nil && (*input.Latitude < -90 || *input.Latitude > 90) {
		vErr.add("latitude", "latitude must be between -90 and 90")
	}
	if input.Longitude != nil && (*input.Longitude < -180 || *input.Longitude > 180) {
		vErr.add("longitude", "longitude must be between -180 and 180")
	}

	return vErr
}

func validatePlaceUpdate(place Place) *ValidationError {
	vErr := &ValidationError{}

	if place.Name == "" {
		vErr.add("name", "name is required")
	}
	if place.PriceByNight <= 0 {
		vErr.add("price_by_night", "price by night must be positive")
	}
	if place.Latitude != nil && (*place.Latitude < -90 || *place.Latitude > 90) {
		vErr.add("latitude", "latitude must be between -90 and 90")
	}
	if place.Longitude != nil && (*place.Longitude < -180 || *place.Longitude > 180) {
		vErr.add("longitude", "longitude must be between -180 and 180")
	}

	return vErr
}

func mapPlaceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("price_by_night", "price by night must be positive")
		return vErr
	}
	return err
}
