package application

import (
	"context"
	"errors"
	"testing"
)

// placeRepoStub is an in-memory PlaceRepository shared with the review and
// reservation service tests, where it also serves as the PlaceDirectory.
type placeRepoStub struct {
	places    map[string]Place
	createErr error
	updateErr error
}

func newPlaceRepoStub() *placeRepoStub {
	return &placeRepoStub{places: make(map[string]Place)}
}

func (s *placeRepoStub) add(place Place) {
	s.places[place.ID] = place
}

func (s *placeRepoStub) CreatePlace(ctx context.Context, place Place) (Place, error) {
	if s.createErr != nil {
		return Place{}, s.createErr
	}
	s.places[place.ID] = place
	return place, nil
}

func (s *placeRepoStub) GetPlace(ctx context.Context, id string) (Place, error) {
	place, ok := s.places[id]
	if !ok {
		return Place{}, ErrNotFound
	}
	return place, nil
}

func (s *placeRepoStub) UpdatePlace(ctx context.Context, place Place) (Place, error) {
	if s.updateErr != nil {
		return Place{}, s.updateErr
	}
	if _, ok := s.places[place.ID]; !ok {
		return Place{}, ErrNotFound
	}
	s.places[place.ID] = place
	return place, nil
}

func (s *placeRepoStub) DeletePlace(ctx context.Context, id string) error {
	if _, ok := s.places[id]; !ok {
		return ErrNotFound
	}
	delete(s.places, id)
	return nil
}

func (s *placeRepoStub) ListPlaces(ctx context.Context) ([]Place, error) {
	out := make([]Place, 0, len(s.places))
	for _, place := range s.places {
		out = append(out, place)
	}
	return out, nil
}

func (s *placeRepoStub) ListPlacesByOwner(ctx context.Context, ownerID string) ([]Place, error) {
	out := make([]Place, 0)
	for _, place := range s.places {
		if place.OwnerID == ownerID {
			out = append(out, place)
		}
	}
	return out, nil
}

// amenityCatalogStub records created amenities keyed by name.
type amenityCatalogStub struct {
	byName    map[string]Amenity
	createErr error
}

func newAmenityCatalogStub() *amenityCatalogStub {
	return &amenityCatalogStub{byName: make(map[string]Amenity)}
}

func (s *amenityCatalogStub) GetAmenityByName(ctx context.Context, name string) (Amenity, error) {
	amenity, ok := s.byName[name]
	if !ok {
		return Amenity{}, ErrNotFound
	}
	return amenity, nil
}

func (s *amenityCatalogStub) CreateAmenity(ctx context.Context, amenity Amenity) (Amenity, error) {
	if s.createErr != nil {
		return Amenity{}, s.createErr
	}
	s.byName[amenity.Name] = amenity
	return amenity, nil
}

func validPlaceInput() PlaceInput {
	return PlaceInput{
		Name:         "Loft near the river",
		Description:  "Quiet top floor loft.",
		PriceByNight: 120,
		Location:     "12 Quai des Brumes",
		Country:      "France",
		Town:         "Lyon",
	}
}

func TestPlaceService_CreatePlace(t *testing.T) {
	t.Parallel()

	owner := Principal{UserID: "owner-1"}

	t.Run("assigns ownership to the caller", func(t *testing.T) {
		t.Parallel()
		repo := newPlaceRepoStub()
		svc := NewPlaceService(repo, newAmenityCatalogStub(), sequentialIDs("place"), frozenClock())

		place, err := svc.CreatePlace(context.Background(), CreatePlaceParams{Principal: owner, Input: validPlaceInput()})
		if err != nil {
			t.Fatalf("CreatePlace returned error: %v", err)
		}
		if place.OwnerID != "owner-1" {
			t.Fatalf("expected owner-1, got %s", place.OwnerID)
		}
	})

	t.Run("requires a name and a positive price", func(t *testing.T) {
		t.Parallel()
		svc := NewPlaceService(newPlaceRepoStub(), newAmenityCatalogStub(), sequentialIDs("place"), frozenClock())

		input := validPlaceInput()
		input.Name = "  "
		input.PriceByNight = 0

		_, err := svc.CreatePlace(context.Background(), CreatePlaceParams{Principal: owner, Input: input})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "price_by_night"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected a validation message for %q, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects out of range coordinates", func(t *testing.T) {
		t.Parallel()
		svc := NewPlaceService(newPlaceRepoStub(), newAmenityCatalogStub(), sequentialIDs("place"), frozenClock())

		lat := 97.5
		input := validPlaceInput()
		input.Latitude = &lat

		_, err := svc.CreatePlace(context.Background(), CreatePlaceParams{Principal: owner, Input: input})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["latitude"]; !ok {
			t.Fatalf("expected a latitude message, got %v", vErr.FieldErrors)
		}
	})

	t.Run("creates missing amenities with capitalized names", func(t *testing.T) {
		t.Parallel()
		catalog := newAmenityCatalogStub()
		catalog.byName["Pool"] = Amenity{ID: "am-pool", Name: "Pool"}
		svc := NewPlaceService(newPlaceRepoStub(), catalog, sequentialIDs("place"), frozenClock())

		input := validPlaceInput()
		input.Amenities = []string{"wifi", "POOL", "wifi"}

		place, err := svc.CreatePlace(context.Background(), CreatePlaceParams{Principal: owner, Input: input})
		if err != nil {
			t.Fatalf("CreatePlace returned error: %v", err)
		}
		if len(place.Amenities) != 2 || place.Amenities[0] != "Pool" || place.Amenities[1] != "Wifi" {
			t.Fatalf("expected [Pool Wifi], got %v", place.Amenities)
		}
		if _, ok := catalog.byName["Wifi"]; !ok {
			t.Fatal("expected Wifi to be created in the catalog")
		}
		if len(catalog.byName) != 2 {
			t.Fatalf("expected exactly the Pool and Wifi entries, got %v", catalog.byName)
		}
	})
}

func TestPlaceService_UpdatePlace(t *testing.T) {
	t.Parallel()

	t.Run("only the owner or an admin may update", func(t *testing.T) {
		t.Parallel()
		repo := newPlaceRepoStub()
		repo.add(Place{ID: "place-1", OwnerID: "owner-1", Name: "Loft", PriceByNight: 120})
		svc := NewPlaceService(repo, newAmenityCatalogStub(), sequentialIDs("place"), frozenClock())

		name := "Renamed"
		_, err := svc.UpdatePlace(context.Background(), UpdatePlaceParams{
			Principal: Principal{UserID: "intruder"},
			PlaceID:   "place-1",
			Patch:     PlacePatch{Name: &name},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}

		place, err := svc.UpdatePlace(context.Background(), UpdatePlaceParams{
			Principal: Principal{UserID: "admin", IsAdmin: true},
			PlaceID:   "place-1",
			Patch:     PlacePatch{Name: &name},
		})
		if err != nil {
			t.Fatalf("UpdatePlace returned error: %v", err)
		}
		if place.Name != "Renamed" {
			t.Fatalf("expected Renamed, got %s", place.Name)
		}
	})

	t.Run("ownership never changes on update", func(t *testing.T) {
		t.Parallel()
		repo := newPlaceRepoStub()
		repo.add(Place{ID: "place-1", OwnerID: "owner-1", Name: "Loft", PriceByNight: 120})
		svc := NewPlaceService(repo, newAmenityCatalogStub(), sequentialIDs("place"), frozenClock())

		price := 150
		place, err := svc.UpdatePlace(context.Background(), UpdatePlaceParams{
			Principal: Principal{UserID: "admin", IsAdmin: true},
			PlaceID:   "place-1",
			Patch:     PlacePatch{PriceByNight: &price},
		})
		if err != nil {
			t.Fatalf("UpdatePlace returned error: %v", err)
		}
		if place.OwnerID != "owner-1" {
			t.Fatalf("expected unchanged owner, got %s", place.OwnerID)
		}
	})

	t.Run("patched amenities replace the previous set", func(t *testing.T) {
		t.Parallel()
		repo := newPlaceRepoStub()
		repo.add(Place{ID: "place-1", OwnerID: "owner-1", Name: "Loft", PriceByNight: 120, Amenities: []string{"Pool"}})
		svc := NewPlaceService(repo, newAmenityCatalogStub(), sequentialIDs("place"), frozenClock())

		place, err := svc.UpdatePlace(context.Background(), UpdatePlaceParams{
			Principal: Principal{UserID: "owner-1"},
			PlaceID:   "place-1",
			Patch:     PlacePatch{Amenities: []string{"sauna"}},
		})
		if err != nil {
			t.Fatalf("UpdatePlace returned error: %v", err)
		}
		if len(place.Amenities) != 1 || place.Amenities[0] != "Sauna" {
			t.Fatalf("expected [Sauna], got %v", place.Amenities)
		}
	})

	t.Run("rejects a zero price via patch", func(t *testing.T) {
		t.Parallel()
		repo := newPlaceRepoStub()
		repo.add(Place{ID: "place-1", OwnerID: "owner-1", Name: "Loft", PriceByNight: 120})
		svc := NewPlaceService(repo, newAmenityCatalogStub(), sequentialIDs("place"), frozenClock())

		price := 0
		_, err := svc.UpdatePlace(context.Background(), UpdatePlaceParams{
			Principal: Principal{UserID: "owner-1"},
			PlaceID:   "place-1",
			Patch:     PlacePatch{PriceByNight: &price},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestPlaceService_DeletePlace(t *testing.T) {
	t.Parallel()

	t.Run("only the owner or an admin may delete", func(t *testing.T) {
		t.Parallel()
		repo := newPlaceRepoStub()
		repo.add(Place{ID: "place-1", OwnerID: "owner-1", Name: "Loft", PriceByNight: 120})
		svc := NewPlaceService(repo, newAmenityCatalogStub(), sequentialIDs("place"), frozenClock())

		if err := svc.DeletePlace(context.Background(), Principal{UserID: "intruder"}, "place-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if err := svc.DeletePlace(context.Background(), Principal{UserID: "owner-1"}, "place-1"); err != nil {
			t.Fatalf("DeletePlace returned error: %v", err)
		}
		if _, ok := repo.places["place-1"]; ok {
			t.Fatal("expected the place to be removed")
		}
	})

	t.Run("propagates ErrNotFound", func(t *testing.T) {
		t.Parallel()
		svc := NewPlaceService(newPlaceRepoStub(), newAmenityCatalogStub(), sequentialIDs("place"), frozenClock())

		if err := svc.DeletePlace(context.Background(), Principal{UserID: "owner-1"}, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestPlaceService_ListPlaces(t *testing.T) {
	t.Parallel()

	repo := newPlaceRepoStub()
	repo.add(Place{ID: "p-1", OwnerID: "owner-1", Name: "Barn", PriceByNight: 80})
	repo.add(Place{ID: "p-2", OwnerID: "owner-2", Name: "Attic", PriceByNight: 60})
	svc := NewPlaceService(repo, newAmenityCatalogStub(), sequentialIDs("place"), frozenClock())

	all, err := svc.ListPlaces(context.Background(), Principal{UserID: "anyone"}, "")
	if err != nil {
		t.Fatalf("ListPlaces returned error: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Attic" || all[1].Name != "Barn" {
		t.Fatalf("expected name-ordered listing, got %v", all)
	}

	owned, err := svc.ListPlaces(context.Background(), Principal{UserID: "anyone"}, "owner-1")
	if err != nil {
		t.Fatalf("ListPlaces returned error: %v", err)
	}
	if len(owned) != 1 || owned[0].ID != "p-1" {
		t.Fatalf("expected only owner-1 places, got %v", owned)
	}
}
