package application

import (
	"context"
	"errors"
	"testing"
)

// amenityRepoStub is an in-memory AmenityRepository.
type amenityRepoStub struct {
	amenities map[string]Amenity
}

func newAmenityRepoStub() *amenityRepoStub {
	return &amenityRepoStub{amenities: make(map[string]Amenity)}
}

func (s *amenityRepoStub) add(amenity Amenity) {
	s.amenities[amenity.ID] = amenity
}

func (s *amenityRepoStub) CreateAmenity(ctx context.Context, amenity Amenity) (Amenity, error) {
	s.amenities[amenity.ID] = amenity
	return amenity, nil
}

func (s *amenityRepoStub) GetAmenity(ctx context.Context, id string) (Amenity, error) {
	amenity, ok := s.amenities[id]
	if !ok {
		return Amenity{}, ErrNotFound
	}
	return amenity, nil
}

func (s *amenityRepoStub) GetAmenityByName(ctx context.Context, name string) (Amenity, error) {
	for _, amenity := range s.amenities {
		if amenity.Name == name {
			return amenity, nil
		}
	}
	return Amenity{}, ErrNotFound
}

func (s *amenityRepoStub) UpdateAmenity(ctx context.Context, amenity Amenity) (Amenity, error) {
	if _, ok := s.amenities[amenity.ID]; !ok {
		return Amenity{}, ErrNotFound
	}
	s.amenities[amenity.ID] = amenity
	return amenity, nil
}

func (s *amenityRepoStub) DeleteAmenity(ctx context.Context, id string) error {
	if _, ok := s.amenities[id]; !ok {
		return ErrNotFound
	}
	delete(s.amenities, id)
	return nil
}

func (s *amenityRepoStub) ListAmenities(ctx context.Context) ([]Amenity, error) {
	out := make([]Amenity, 0, len(s.amenities))
	for _, amenity := range s.amenities {
		out = append(out, amenity)
	}
	return out, nil
}

func TestAmenityService_CreateAmenity(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", IsAdmin: true}

	t.Run("requires administrator privileges", func(t *testing.T) {
		t.Parallel()
		svc := NewAmenityService(newAmenityRepoStub(), sequentialIDs("am"), frozenClock())

		_, err := svc.CreateAmenity(context.Background(), CreateAmenityParams{
			Principal: Principal{UserID: "user-1"},
			Name:      "Sauna",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("capitalizes the stored name", func(t *testing.T) {
		t.Parallel()
		svc := NewAmenityService(newAmenityRepoStub(), sequentialIDs("am"), frozenClock())

		amenity, err := svc.CreateAmenity(context.Background(), CreateAmenityParams{Principal: admin, Name: "  wIFI "})
		if err != nil {
			t.Fatalf("CreateAmenity returned error: %v", err)
		}
		if amenity.Name != "Wifi" {
			t.Fatalf("expected Wifi, got %s", amenity.Name)
		}
	})

	t.Run("rejects a duplicate name", func(t *testing.T) {
		t.Parallel()
		repo := newAmenityRepoStub()
		repo.add(Amenity{ID: "am-1", Name: "Wifi"})
		svc := NewAmenityService(repo, sequentialIDs("am"), frozenClock())

		_, err := svc.CreateAmenity(context.Background(), CreateAmenityParams{Principal: admin, Name: "wifi"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("requires a name", func(t *testing.T) {
		t.Parallel()
		svc := NewAmenityService(newAmenityRepoStub(), sequentialIDs("am"), frozenClock())

		_, err := svc.CreateAmenity(context.Background(), CreateAmenityParams{Principal: admin, Name: "   "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestAmenityService_UpdateAmenity(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", IsAdmin: true}

	t.Run("renames an entry", func(t *testing.T) {
		t.Parallel()
		repo := newAmenityRepoStub()
		repo.add(Amenity{ID: "am-1", Name: "Wifi"})
		svc := NewAmenityService(repo, sequentialIDs("am"), frozenClock())

		amenity, err := svc.UpdateAmenity(context.Background(), UpdateAmenityParams{
			Principal: admin,
			AmenityID: "am-1",
			Name:      "fibre wifi",
		})
		if err != nil {
			t.Fatalf("UpdateAmenity returned error: %v", err)
		}
		if amenity.Name != "Fibre wifi" {
			t.Fatalf("expected Fibre wifi, got %s", amenity.Name)
		}
	})

	t.Run("rejects renaming onto another entry", func(t *testing.T) {
		t.Parallel()
		repo := newAmenityRepoStub()
		repo.add(Amenity{ID: "am-1", Name: "Wifi"})
		repo.add(Amenity{ID: "am-2", Name: "Sauna"})
		svc := NewAmenityService(repo, sequentialIDs("am"), frozenClock())

		_, err := svc.UpdateAmenity(context.Background(), UpdateAmenityParams{
			Principal: admin,
			AmenityID: "am-1",
			Name:      "sauna",
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("renaming to the same name is a no-op conflict-wise", func(t *testing.T) {
		t.Parallel()
		repo := newAmenityRepoStub()
		repo.add(Amenity{ID: "am-1", Name: "Wifi"})
		svc := NewAmenityService(repo, sequentialIDs("am"), frozenClock())

		if _, err := svc.UpdateAmenity(context.Background(), UpdateAmenityParams{
			Principal: admin,
			AmenityID: "am-1",
			Name:      "WIFI",
		}); err != nil {
			t.Fatalf("UpdateAmenity returned error: %v", err)
		}
	})
}

func TestAmenityService_ListAmenities(t *testing.T) {
	t.Parallel()

	repo := newAmenityRepoStub()
	repo.add(Amenity{ID: "am-2", Name: "Wifi"})
	repo.add(Amenity{ID: "am-1", Name: "Pool"})
	svc := NewAmenityService(repo, sequentialIDs("am"), frozenClock())

	amenities, err := svc.ListAmenities(context.Background(), Principal{UserID: "anyone"})
	if err != nil {
		t.Fatalf("ListAmenities returned error: %v", err)
	}
	if len(amenities) != 2 || amenities[0].Name != "Pool" || amenities[1].Name != "Wifi" {
		t.Fatalf("expected name-ordered catalog, got %v", amenities)
	}
}

func TestAmenityService_DeleteAmenity(t *testing.T) {
	t.Parallel()

	repo := newAmenityRepoStub()
	repo.add(Amenity{ID: "am-1", Name: "Wifi"})
	svc := NewAmenityService(repo, sequentialIDs("am"), frozenClock())

	if err := svc.DeleteAmenity(context.Background(), Principal{UserID: "user-1"}, "am-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.DeleteAmenity(context.Background(), Principal{UserID: "admin", IsAdmin: true}, "am-1"); err != nil {
		t.Fatalf("DeleteAmenity returned error: %v", err)
	}
	if _, ok := repo.amenities["am-1"]; ok {
		t.Fatal("expected the amenity to be removed")
	}
}
