package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/tabletop-booking/internal/application"
	"github.com/example/tabletop-booking/internal/persistence"
)

func seededStore() *Store {
	store := NewStore()
	store.PutAssociation(context.Background(), application.Association{ID: "a1", Name: "L'Ordre du D20"})
	store.PutAssociation(context.Background(), application.Association{ID: "a2", Name: "Les Aventuriers du Dimanche"})
	store.PutRoom(context.Background(), application.Room{
		ID:            "r1",
		AssociationID: "a1",
		Name:          "La Taverne",
		Capacity:      5,
		WeeklySlots: []application.WeeklySlot{
			{ID: "ws1", Name: "Soirée", DayOfWeek: "FRIDAY", StartTime: "19:00", EndTime: "23:00"},
		},
	})
	store.PutRoom(context.Background(), application.Room{ID: "r2", AssociationID: "a1", Name: "Le Donjon", Capacity: 8})
	store.PutMembership(context.Background(), application.Membership{UserID: "u_admin", AssociationID: "a1", Role: application.RoleAdmin})
	store.PutMembership(context.Background(), application.Membership{UserID: "u_player", AssociationID: "a1", Role: application.RolePlayer})
	return store
}

func TestStore_Reservations(t *testing.T) {
	ctx := context.Background()
	decidedAt := time.Date(2026, time.January, 21, 9, 0, 0, 0, time.UTC)

	t.Run("rejects duplicate identifiers", func(t *testing.T) {
		store := seededStore()
		reservation := application.Reservation{ID: "res1", RoomID: "r1", Date: "2026-01-23", StartTime: "19:00", Status: application.ReservationPending}

		if _, err := store.CreateReservation(ctx, reservation); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := store.CreateReservation(ctx, reservation); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("approving the second pending request on a cell conflicts", func(t *testing.T) {
		store := seededStore()
		first := application.Reservation{ID: "res-a", RoomID: "r1", Date: "2026-01-23", StartTime: "19:00", Status: application.ReservationPending}
		second := application.Reservation{ID: "res-b", RoomID: "r1", Date: "2026-01-23", StartTime: "19:00", Status: application.ReservationPending}
		for _, res := range []application.Reservation{first, second} {
			if _, err := store.CreateReservation(ctx, res); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if _, err := store.DecideReservation(ctx, "res-a", application.ReservationBooked, decidedAt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := store.DecideReservation(ctx, "res-b", application.ReservationBooked, decidedAt); !errors.Is(err, persistence.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("rejecting the second pending request still works", func(t *testing.T) {
		store := seededStore()
		for _, id := range []string{"res-a", "res-b"} {
			reservation := application.Reservation{ID: id, RoomID: "r1", Date: "2026-01-23", StartTime: "19:00", Status: application.ReservationPending}
			if _, err := store.CreateReservation(ctx, reservation); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if _, err := store.DecideReservation(ctx, "res-a", application.ReservationBooked, decidedAt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		decided, err := store.DecideReservation(ctx, "res-b", application.ReservationRejected, decidedAt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decided.Status != application.ReservationRejected {
			t.Fatalf("expected REJECTED, got %s", decided.Status)
		}
	})

	t.Run("deciding a settled reservation fails", func(t *testing.T) {
		store := seededStore()
		store.PutReservation(context.Background(), application.Reservation{ID: "res1", RoomID: "r1", Date: "2026-01-20", StartTime: "19:00", Status: application.ReservationBooked})

		if _, err := store.DecideReservation(ctx, "res1", application.ReservationRejected, decidedAt); !errors.Is(err, persistence.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("deciding an unknown reservation fails", func(t *testing.T) {
		store := seededStore()

		if _, err := store.DecideReservation(ctx, "ghost", application.ReservationBooked, decidedAt); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("concurrent approvals book the cell exactly once", func(t *testing.T) {
		store := seededStore()
		ids := []string{"res-a", "res-b", "res-c", "res-d"}
		for _, id := range ids {
			reservation := application.Reservation{ID: id, RoomID: "r1", Date: "2026-01-23", StartTime: "19:00", Status: application.ReservationPending}
			if _, err := store.CreateReservation(ctx, reservation); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		var wg sync.WaitGroup
		results := make(chan error, len(ids))
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := store.DecideReservation(ctx, id, application.ReservationBooked, decidedAt)
				results <- err
			}(id)
		}
		wg.Wait()
		close(results)

		booked := 0
		for err := range results {
			if err == nil {
				booked++
			} else if !errors.Is(err, persistence.ErrConflict) {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if booked != 1 {
			t.Fatalf("expected exactly one approval, got %d", booked)
		}
	})
}

func TestStore_ListReservations(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	store.PutRoom(context.Background(), application.Room{ID: "r3", AssociationID: "a2", Name: "Ailleurs", Capacity: 4})
	store.PutReservation(context.Background(), application.Reservation{ID: "res1", RoomID: "r1", Date: "2026-01-20", StartTime: "19:00", Status: application.ReservationBooked, UserID: "u_player"})
	store.PutReservation(context.Background(), application.Reservation{ID: "res2", RoomID: "r1", Date: "2026-01-23", StartTime: "19:00", Status: application.ReservationPending, UserID: "u_player"})
	store.PutReservation(context.Background(), application.Reservation{ID: "res3", RoomID: "r3", Date: "2026-01-25", StartTime: "14:00", Status: application.ReservationPending, UserID: "u_admin"})

	t.Run("filters by room", func(t *testing.T) {
		out, err := store.ListReservations(ctx, application.ReservationFilter{RoomID: "r1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("expected 2 reservations, got %d", len(out))
		}
	})

	t.Run("filters by user", func(t *testing.T) {
		out, err := store.ListReservations(ctx, application.ReservationFilter{UserID: "u_admin"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 1 || out[0].ID != "res3" {
			t.Fatalf("expected only res3, got %+v", out)
		}
	})

	t.Run("filters by association and status", func(t *testing.T) {
		out, err := store.ListReservations(ctx, application.ReservationFilter{
			AssociationIDs: []string{"a1"},
			Statuses:       []application.ReservationStatus{application.ReservationPending},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 1 || out[0].ID != "res2" {
			t.Fatalf("expected only res2, got %+v", out)
		}
	})
}

func TestStore_Rooms(t *testing.T) {
	ctx := context.Background()
	store := seededStore()

	t.Run("returns rooms per association", func(t *testing.T) {
		rooms, err := store.ListRooms(ctx, "a1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rooms) != 2 {
			t.Fatalf("expected 2 rooms, got %d", len(rooms))
		}
	})

	t.Run("room copies do not alias the stored slots", func(t *testing.T) {
		room, err := store.GetRoom(ctx, "r1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		room.WeeklySlots[0].Name = "mutated"

		again, err := store.GetRoom(ctx, "r1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.WeeklySlots[0].Name != "Soirée" {
			t.Fatalf("stored slot mutated: %+v", again.WeeklySlots[0])
		}
	})

	t.Run("reports unknown rooms", func(t *testing.T) {
		if _, err := store.GetRoom(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_Sessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.January, 21, 9, 0, 0, 0, time.UTC)

	t.Run("create get revoke round trip", func(t *testing.T) {
		store := NewStore()
		session := application.Session{ID: "s1", UserID: "u_player", Token: "token-1", ExpiresAt: now.Add(time.Hour)}
		if _, err := store.CreateSession(ctx, session); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := store.GetSession(ctx, "token-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.UserID != "u_player" {
			t.Fatalf("expected u_player, got %q", got.UserID)
		}

		revoked, err := store.RevokeSession(ctx, "token-1", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(now) {
			t.Fatalf("expected revocation timestamp, got %+v", revoked.RevokedAt)
		}
	})

	t.Run("prunes sessions past expiry", func(t *testing.T) {
		store := NewStore()
		expired := application.Session{ID: "s1", Token: "old", ExpiresAt: now.Add(-time.Minute)}
		active := application.Session{ID: "s2", Token: "new", ExpiresAt: now.Add(time.Hour)}
		for _, session := range []application.Session{expired, active} {
			if _, err := store.CreateSession(ctx, session); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if err := store.DeleteExpiredSessions(ctx, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := store.GetSession(ctx, "old"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected expired session gone, got %v", err)
		}
		if _, err := store.GetSession(ctx, "new"); err != nil {
			t.Fatalf("expected active session kept, got %v", err)
		}
	})
}

func TestStore_Credentials(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.PutUser(context.Background(), application.UserCredentials{
		User:         application.User{ID: "u_player", Email: "Frodon@Example.com", DisplayName: "Frodon"},
		PasswordHash: "hash",
	})

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		creds, err := store.GetUserCredentialsByEmail(ctx, "frodon@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if creds.User.ID != "u_player" {
			t.Fatalf("expected u_player, got %q", creds.User.ID)
		}
	})

	t.Run("reports unknown emails", func(t *testing.T) {
		if _, err := store.GetUserCredentialsByEmail(ctx, "nobody@example.com"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
