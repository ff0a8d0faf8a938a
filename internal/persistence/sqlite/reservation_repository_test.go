package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/homestay/internal/persistence"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func newReservation(t *testing.T, id, userID, placeID, start, end string) persistence.Reservation {
	t.Helper()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return persistence.Reservation{
		ID:        id,
		UserID:    userID,
		PlaceID:   placeID,
		Start:     mustTime(t, start),
		End:       mustTime(t, end),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestReservationRepository_CreateReservation(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	guest := seedUser(t, storage, "u-1", "alice", "alice@example.com")
	owner := seedUser(t, storage, "u-2", "bob", "bob@example.com")
	place := seedPlace(t, storage, "p-1", owner.ID, "Loft du Canal")

	base := newReservation(t, "r-1", guest.ID, place.ID, "2024-01-10T14:00:00Z", "2024-01-12T10:00:00Z")
	require.NoError(t, storage.Reservations.CreateReservation(ctx, base))

	t.Run("rejects an overlapping window", func(t *testing.T) {
		overlap := newReservation(t, "r-2", guest.ID, place.ID, "2024-01-11T00:00:00Z", "2024-01-13T00:00:00Z")
		err := storage.Reservations.CreateReservation(ctx, overlap)
		require.ErrorIs(t, err, persistence.ErrOverlap)

		_, err = storage.Reservations.GetReservation(ctx, "r-2")
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("allows a back-to-back window", func(t *testing.T) {
		adjacent := newReservation(t, "r-3", guest.ID, place.ID, "2024-01-12T10:00:00Z", "2024-01-14T10:00:00Z")
		require.NoError(t, storage.Reservations.CreateReservation(ctx, adjacent))
	})

	t.Run("allows the same window on another place", func(t *testing.T) {
		other := seedPlace(t, storage, "p-2", owner.ID, "Chalet des Alpes")
		mirrored := newReservation(t, "r-4", guest.ID, other.ID, "2024-01-10T14:00:00Z", "2024-01-12T10:00:00Z")
		require.NoError(t, storage.Reservations.CreateReservation(ctx, mirrored))
	})

	t.Run("rejects an inverted window", func(t *testing.T) {
		inverted := newReservation(t, "r-5", guest.ID, place.ID, "2024-03-02T00:00:00Z", "2024-03-01T00:00:00Z")
		err := storage.Reservations.CreateReservation(ctx, inverted)
		require.ErrorIs(t, err, persistence.ErrConstraintViolation)
	})

	t.Run("rejects unknown place references", func(t *testing.T) {
		orphan := newReservation(t, "r-6", guest.ID, "p-missing", "2024-05-01T00:00:00Z", "2024-05-02T00:00:00Z")
		err := storage.Reservations.CreateReservation(ctx, orphan)
		require.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
	})

	t.Run("keeps sub-second windows intact", func(t *testing.T) {
		start := time.Date(2024, 4, 1, 12, 0, 0, 250_000_000, time.UTC)
		brief := newReservation(t, "r-7", guest.ID, place.ID, "2024-04-01T12:00:00Z", "2024-04-01T12:00:01Z")
		brief.Start = start
		brief.End = start.Add(500 * time.Millisecond)
		require.NoError(t, storage.Reservations.CreateReservation(ctx, brief))

		stored, err := storage.Reservations.GetReservation(ctx, "r-7")
		require.NoError(t, err)
		require.True(t, stored.Start.Equal(brief.Start))
		require.True(t, stored.End.Equal(brief.End))
		require.True(t, stored.Start.Before(stored.End))
	})
}

func TestReservationRepository_UpdateReservation(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	guest := seedUser(t, storage, "u-1", "alice", "alice@example.com")
	owner := seedUser(t, storage, "u-2", "bob", "bob@example.com")
	place := seedPlace(t, storage, "p-1", owner.ID, "Loft du Canal")

	first := newReservation(t, "r-1", guest.ID, place.ID, "2024-01-10T14:00:00Z", "2024-01-12T10:00:00Z")
	second := newReservation(t, "r-2", guest.ID, place.ID, "2024-01-20T14:00:00Z", "2024-01-22T10:00:00Z")
	require.NoError(t, storage.Reservations.CreateReservation(ctx, first))
	require.NoError(t, storage.Reservations.CreateReservation(ctx, second))

	t.Run("does not conflict with its own stored window", func(t *testing.T) {
		moved := first
		moved.End = mustTime(t, "2024-01-13T10:00:00Z")
		require.NoError(t, storage.Reservations.UpdateReservation(ctx, moved))

		stored, err := storage.Reservations.GetReservation(ctx, "r-1")
		require.NoError(t, err)
		require.True(t, stored.End.Equal(moved.End))
	})

	t.Run("rejects moving onto another reservation", func(t *testing.T) {
		moved := first
		moved.Start = mustTime(t, "2024-01-19T00:00:00Z")
		moved.End = mustTime(t, "2024-01-21T00:00:00Z")
		err := storage.Reservations.UpdateReservation(ctx, moved)
		require.ErrorIs(t, err, persistence.ErrOverlap)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		ghost := newReservation(t, "r-999", guest.ID, place.ID, "2024-06-01T00:00:00Z", "2024-06-02T00:00:00Z")
		err := storage.Reservations.UpdateReservation(ctx, ghost)
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func TestReservationRepository_ListReservations(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	alice := seedUser(t, storage, "u-1", "alice", "alice@example.com")
	bob := seedUser(t, storage, "u-2", "bob", "bob@example.com")
	place := seedPlace(t, storage, "p-1", bob.ID, "Loft du Canal")
	other := seedPlace(t, storage, "p-2", bob.ID, "Chalet des Alpes")

	require.NoError(t, storage.Reservations.CreateReservation(ctx,
		newReservation(t, "r-1", alice.ID, place.ID, "2024-02-01T00:00:00Z", "2024-02-03T00:00:00Z")))
	require.NoError(t, storage.Reservations.CreateReservation(ctx,
		newReservation(t, "r-2", bob.ID, place.ID, "2024-01-01T00:00:00Z", "2024-01-03T00:00:00Z")))
	require.NoError(t, storage.Reservations.CreateReservation(ctx,
		newReservation(t, "r-3", alice.ID, other.ID, "2024-03-01T00:00:00Z", "2024-03-03T00:00:00Z")))

	t.Run("by place ordered by start", func(t *testing.T) {
		listed, err := storage.Reservations.ListReservationsForPlace(ctx, place.ID)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		require.Equal(t, "r-2", listed[0].ID)
		require.Equal(t, "r-1", listed[1].ID)
	})

	t.Run("by user", func(t *testing.T) {
		listed, err := storage.Reservations.ListReservations(ctx, persistence.ReservationFilter{UserID: alice.ID})
		require.NoError(t, err)
		require.Len(t, listed, 2)
	})

	t.Run("window filter", func(t *testing.T) {
		after := mustTime(t, "2024-02-15T00:00:00Z")
		listed, err := storage.Reservations.ListReservations(ctx, persistence.ReservationFilter{StartsAfter: &after})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		require.Equal(t, "r-3", listed[0].ID)
	})
}

func TestReservationRepository_DeleteReservation(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	guest := seedUser(t, storage, "u-1", "alice", "alice@example.com")
	owner := seedUser(t, storage, "u-2", "bob", "bob@example.com")
	place := seedPlace(t, storage, "p-1", owner.ID, "Loft du Canal")

	reservation := newReservation(t, "r-1", guest.ID, place.ID, "2024-01-10T14:00:00Z", "2024-01-12T10:00:00Z")
	require.NoError(t, storage.Reservations.CreateReservation(ctx, reservation))

	require.NoError(t, storage.Reservations.DeleteReservation(ctx, "r-1"))
	require.ErrorIs(t, storage.Reservations.DeleteReservation(ctx, "r-1"), persistence.ErrNotFound)

	// The freed window can be rebooked.
	rebooked := newReservation(t, "r-2", guest.ID, place.ID, "2024-01-10T14:00:00Z", "2024-01-12T10:00:00Z")
	require.NoError(t, storage.Reservations.CreateReservation(ctx, rebooked))
}
