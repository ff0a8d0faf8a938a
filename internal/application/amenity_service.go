package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/homestay/internal/persistence"
)

// AmenityRepository captures the persistence operations needed by the amenity service.
type AmenityRepository interface {
	CreateAmenity(ctx context.Context, amenity Amenity) (Amenity, error)
	GetAmenity(ctx context.Context, id string) (Amenity, error)
	GetAmenityByName(ctx context.Context, name string) (Amenity, error)
	UpdateAmenity(ctx context.Context, amenity Amenity) (Amenity, error)
	DeleteAmenity(ctx context.Context, id string) error
	ListAmenities(ctx context.Context) ([]Amenity, error)
}

// CreateAmenityParams wraps an amenity creation request.
type CreateAmenityParams struct {
	Principal Principal
	Name      string
}

// UpdateAmenityParams wraps an amenity rename request.
type UpdateAmenityParams struct {
	Principal Principal
	AmenityID string
	Name      string
}

// AmenityService manages the shared amenity catalog. Catalog writes are
// restricted to administrators; reads are open to any authenticated user.
type AmenityService struct {
	amenities   AmenityRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAmenityService constructs an amenity service with the provided dependencies.
func NewAmenityService(amenities AmenityRepository, idGenerator func() string, now func() time.Time) *AmenityService {
	return NewAmenityServiceWithLogger(amenities, idGenerator, now, nil)
}

// NewAmenityServiceWithLogger constructs an amenity service with a specified logger.
func NewAmenityServiceWithLogger(amenities AmenityRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AmenityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AmenityService{
		amenities:   amenities,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AmenityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AmenityService", operation, attrs...)
}

// CreateAmenity adds a catalog entry for administrators.
func (s *AmenityService) CreateAmenity(ctx context.Context, params CreateAmenityParams) (amenity Amenity, err error) {
	if s == nil {
		err = fmt.Errorf("AmenityService is nil")
		return
	}
	if s.amenities == nil {
		err = fmt.Errorf("amenity repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateAmenity",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create amenity", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("amenity_id", amenity.ID).InfoContext(ctx, "amenity created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	name := capitalizeName(params.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		err = vErr
		return
	}

	if _, lookupErr := s.amenities.GetAmenityByName(ctx, name); lookupErr == nil {
		err = ErrAlreadyExists
		return
	} else if !isNotFound(lookupErr) {
		err = mapAmenityRepoError(lookupErr)
		return
	}

	amenity = Amenity{
		ID:        s.idGenerator(),
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	amenity.UpdatedAt = amenity.CreatedAt

	amenity, err = s.amenities.CreateAmenity(ctx, amenity)
	if err != nil {
		err = mapAmenityRepoError(err)
		return
	}

	return
}

// GetAmenity returns a single catalog entry.
func (s *AmenityService) GetAmenity(ctx context.Context, principal Principal, amenityID string) (Amenity, error) {
	if s == nil {
		return Amenity{}, fmt.Errorf("AmenityService is nil")
	}
	if s.amenities == nil {
		return Amenity{}, fmt.Errorf("amenity repository not configured")
	}

	amenity, err := s.amenities.GetAmenity(ctx, amenityID)
	if err != nil {
		return Amenity{}, mapAmenityRepoError(err)
	}
	return amenity, nil
}

// ListAmenities returns the catalog ordered by name.
func (s *AmenityService) ListAmenities(ctx context.Context, principal Principal) ([]Amenity, error) {
	if s == nil {
		return nil, fmt.Errorf("AmenityService is nil")
	}
	if s.amenities == nil {
		return nil, nil
	}

	raw, err := s.amenities.ListAmenities(ctx)
	if err != nil {
		return nil, mapAmenityRepoError(err)
	}

	amenities := make([]Amenity, len(raw))
	copy(amenities, raw)
	sort.Slice(amenities, func(i, j int) bool {
		if strings.EqualFold(amenities[i].Name, amenities[j].Name) {
			return amenities[i].ID < amenities[j].ID
		}
		return strings.ToLower(amenities[i].Name) < strings.ToLower(amenities[j].Name)
	})
	return amenities, nil
}

// UpdateAmenity renames a catalog entry for administrators.
func (s *AmenityService) UpdateAmenity(ctx context.Context, params UpdateAmenityParams) (amenity Amenity, err error) {
	if s == nil {
		err = fmt.Errorf("AmenityService is nil")
		return
	}
	if s.amenities == nil {
		err = fmt.Errorf("amenity repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateAmenity",
		"principal_id", params.Principal.UserID,
		"amenity_id", params.AmenityID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update amenity", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("amenity_id", amenity.ID).InfoContext(ctx, "amenity updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	name := capitalizeName(params.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		err = vErr
		return
	}

	var existing Amenity
	existing, err = s.amenities.GetAmenity(ctx, params.AmenityID)
	if err != nil {
		err = mapAmenityRepoError(err)
		return
	}

	if other, lookupErr := s.amenities.GetAmenityByName(ctx, name); lookupErr == nil {
		if other.ID != existing.ID {
			err = ErrAlreadyExists
			return
		}
	} else if !isNotFound(lookupErr) {
		err = mapAmenityRepoError(lookupErr)
		return
	}

	existing.Name = name
	existing.UpdatedAt = s.now().UTC()

	amenity, err = s.amenities.UpdateAmenity(ctx, existing)
	if err != nil {
		err = mapAmenityRepoError(err)
		return
	}

	return
}

// DeleteAmenity removes a catalog entry for administrators. Links from places
// to the entry are removed with it.
func (s *AmenityService) DeleteAmenity(ctx context.Context, principal Principal, amenityID string) error {
	if s == nil {
		return fmt.Errorf("AmenityService is nil")
	}
	if s.amenities == nil {
		return fmt.Errorf("amenity repository not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteAmenity",
		"principal_id", principal.UserID,
		"amenity_id", amenityID,
	)

	if err := s.amenities.DeleteAmenity(ctx, amenityID); err != nil {
		err = mapAmenityRepoError(err)
		logger.ErrorContext(ctx, "failed to delete amenity", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "amenity deleted")
	return nil
}

func mapAmenityRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
