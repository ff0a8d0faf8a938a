package application

import (
	"context"
	"errors"
	"testing"
)

// reviewRepoStub is an in-memory ReviewRepository.
type reviewRepoStub struct {
	reviews   map[string]Review
	createErr error
}

func newReviewRepoStub() *reviewRepoStub {
	return &reviewRepoStub{reviews: make(map[string]Review)}
}

func (s *reviewRepoStub) add(review Review) {
	s.reviews[review.ID] = review
}

func (s *reviewRepoStub) CreateReview(ctx context.Context, review Review) (Review, error) {
	if s.createErr != nil {
		return Review{}, s.createErr
	}
	s.reviews[review.ID] = review
	return review, nil
}

func (s *reviewRepoStub) GetReview(ctx context.Context, id string) (Review, error) {
	review, ok := s.reviews[id]
	if !ok {
		return Review{}, ErrNotFound
	}
	return review, nil
}

func (s *reviewRepoStub) UpdateReview(ctx context.Context, review Review) (Review, error) {
	if _, ok := s.reviews[review.ID]; !ok {
		return Review{}, ErrNotFound
	}
	s.reviews[review.ID] = review
	return review, nil
}

func (s *reviewRepoStub) DeleteReview(ctx context.Context, id string) error {
	if _, ok := s.reviews[id]; !ok {
		return ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *reviewRepoStub) ListReviewsForPlace(ctx context.Context, placeID string) ([]Review, error) {
	out := make([]Review, 0)
	for _, review := range s.reviews {
		if review.PlaceID == placeID {
			out = append(out, review)
		}
	}
	return out, nil
}

func reviewTestPlaces() *placeRepoStub {
	repo := newPlaceRepoStub()
	repo.add(Place{ID: "place-1", OwnerID: "owner-1", Name: "Loft", PriceByNight: 120})
	return repo
}

func TestReviewService_CreateReview(t *testing.T) {
	t.Parallel()

	guest := Principal{UserID: "guest-1"}

	t.Run("records a valid review", func(t *testing.T) {
		t.Parallel()
		repo := newReviewRepoStub()
		svc := NewReviewService(repo, reviewTestPlaces(), sequentialIDs("review"), frozenClock())

		review, err := svc.CreateReview(context.Background(), CreateReviewParams{
			Principal: guest,
			Input:     ReviewInput{PlaceID: "place-1", Rating: 4, Comment: "Great stay."},
		})
		if err != nil {
			t.Fatalf("CreateReview returned error: %v", err)
		}
		if review.UserID != "guest-1" || review.Rating != 4 {
			t.Fatalf("unexpected review: %+v", review)
		}
	})

	t.Run("rejects ratings outside 1 to 5", func(t *testing.T) {
		t.Parallel()
		svc := NewReviewService(newReviewRepoStub(), reviewTestPlaces(), sequentialIDs("review"), frozenClock())

		for _, rating := range []int{0, 6, -1} {
			_, err := svc.CreateReview(context.Background(), CreateReviewParams{
				Principal: guest,
				Input:     ReviewInput{PlaceID: "place-1", Rating: rating, Comment: "Out of range."},
			})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("rating %d: expected ValidationError, got %v", rating, err)
			}
		}
	})

	t.Run("owners may not review their own place", func(t *testing.T) {
		t.Parallel()
		svc := NewReviewService(newReviewRepoStub(), reviewTestPlaces(), sequentialIDs("review"), frozenClock())

		_, err := svc.CreateReview(context.Background(), CreateReviewParams{
			Principal: Principal{UserID: "owner-1"},
			Input:     ReviewInput{PlaceID: "place-1", Rating: 5, Comment: "Lovely, if I may say so."},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("a user may review a place only once", func(t *testing.T) {
		t.Parallel()
		repo := newReviewRepoStub()
		repo.add(Review{ID: "review-0", UserID: "guest-1", PlaceID: "place-1", Rating: 3, Comment: "Fine."})
		svc := NewReviewService(repo, reviewTestPlaces(), sequentialIDs("review"), frozenClock())

		_, err := svc.CreateReview(context.Background(), CreateReviewParams{
			Principal: guest,
			Input:     ReviewInput{PlaceID: "place-1", Rating: 4, Comment: "Changed my mind."},
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("requires an existing place", func(t *testing.T) {
		t.Parallel()
		svc := NewReviewService(newReviewRepoStub(), reviewTestPlaces(), sequentialIDs("review"), frozenClock())

		_, err := svc.CreateReview(context.Background(), CreateReviewParams{
			Principal: guest,
			Input:     ReviewInput{PlaceID: "missing", Rating: 4, Comment: "Where is it?"},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReviewService_UpdateReview(t *testing.T) {
	t.Parallel()

	t.Run("only the author or an admin may update", func(t *testing.T) {
		t.Parallel()
		repo := newReviewRepoStub()
		repo.add(Review{ID: "review-1", UserID: "guest-1", PlaceID: "place-1", Rating: 3, Comment: "Fine."})
		svc := NewReviewService(repo, reviewTestPlaces(), sequentialIDs("review"), frozenClock())

		rating := 5
		_, err := svc.UpdateReview(context.Background(), UpdateReviewParams{
			Principal: Principal{UserID: "someone-else"},
			ReviewID:  "review-1",
			Patch:     ReviewPatch{Rating: &rating},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}

		review, err := svc.UpdateReview(context.Background(), UpdateReviewParams{
			Principal: Principal{UserID: "guest-1"},
			ReviewID:  "review-1",
			Patch:     ReviewPatch{Rating: &rating},
		})
		if err != nil {
			t.Fatalf("UpdateReview returned error: %v", err)
		}
		if review.Rating != 5 || review.Comment != "Fine." {
			t.Fatalf("expected patched rating with untouched comment, got %+v", review)
		}
	})

	t.Run("revalidates the patched rating", func(t *testing.T) {
		t.Parallel()
		repo := newReviewRepoStub()
		repo.add(Review{ID: "review-1", UserID: "guest-1", PlaceID: "place-1", Rating: 3, Comment: "Fine."})
		svc := NewReviewService(repo, reviewTestPlaces(), sequentialIDs("review"), frozenClock())

		rating := 9
		_, err := svc.UpdateReview(context.Background(), UpdateReviewParams{
			Principal: Principal{UserID: "guest-1"},
			ReviewID:  "review-1",
			Patch:     ReviewPatch{Rating: &rating},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestReviewService_DeleteReview(t *testing.T) {
	t.Parallel()

	repo := newReviewRepoStub()
	repo.add(Review{ID: "review-1", UserID: "guest-1", PlaceID: "place-1", Rating: 3, Comment: "Fine."})
	svc := NewReviewService(repo, reviewTestPlaces(), sequentialIDs("review"), frozenClock())

	if err := svc.DeleteReview(context.Background(), Principal{UserID: "someone-else"}, "review-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.DeleteReview(context.Background(), Principal{UserID: "admin", IsAdmin: true}, "review-1"); err != nil {
		t.Fatalf("DeleteReview returned error: %v", err)
	}
	if _, ok := repo.reviews["review-1"]; ok {
		t.Fatal("expected the review to be removed")
	}
}
