package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/tabletop-booking/internal/application"
	"github.com/example/tabletop-booking/internal/persistence"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedCatalog(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	if err := store.PutUser(ctx, application.UserCredentials{
		User: application.User{ID: "u_player", Email: "frodon@example.com", DisplayName: "Frodon", CreatedAt: now, UpdatedAt: now},
	}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	if err := store.PutAssociation(ctx, application.Association{ID: "a1", Name: "L'Ordre du D20", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("failed to seed association: %v", err)
	}
	if err := store.PutMembership(ctx, application.Membership{UserID: "u_player", AssociationID: "a1", Role: application.RolePlayer, CreatedAt: now}); err != nil {
		t.Fatalf("failed to seed membership: %v", err)
	}
	if err := store.PutRoom(ctx, application.Room{
		ID:            "r1",
		AssociationID: "a1",
		Name:          "La Taverne",
		Capacity:      5,
		WeeklySlots: []application.WeeklySlot{
			{ID: "ws1", Name: "Soirée", DayOfWeek: "FRIDAY", StartTime: "19:00", EndTime: "23:00"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("failed to seed room: %v", err)
	}
}

func TestStore_RoomRoundTrip(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	room, err := store.GetRoom(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.Name != "La Taverne" || room.Capacity != 5 {
		t.Fatalf("unexpected room: %+v", room)
	}
	if len(room.WeeklySlots) != 1 || room.WeeklySlots[0].Name != "Soirée" {
		t.Fatalf("unexpected slots: %+v", room.WeeklySlots)
	}
	if room.WeeklySlots[0].DayOfWeek != "FRIDAY" {
		t.Fatalf("unexpected day: %s", room.WeeklySlots[0].DayOfWeek)
	}

	if _, err := store.GetRoom(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_BookedCellIndex(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()
	now := time.Date(2026, time.January, 21, 9, 0, 0, 0, time.UTC)

	pending := func(id string) application.Reservation {
		return application.Reservation{
			ID:        id,
			RoomID:    "r1",
			Date:      "2026-01-23",
			StartTime: "19:00",
			EndTime:   "23:00",
			Status:    application.ReservationPending,
			UserID:    "u_player",
			GameName:  "Cthulhu",
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	for _, id := range []string{"res-a", "res-b"} {
		if _, err := store.CreateReservation(ctx, pending(id)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	decided, err := store.DecideReservation(ctx, "res-a", application.ReservationBooked, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decided.Status != application.ReservationBooked {
		t.Fatalf("expected BOOKED, got %s", decided.Status)
	}

	if _, err := store.DecideReservation(ctx, "res-b", application.ReservationBooked, now); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The losing request is still pending and can be rejected.
	rejected, err := store.DecideReservation(ctx, "res-b", application.ReservationRejected, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejected.Status != application.ReservationRejected {
		t.Fatalf("expected REJECTED, got %s", rejected.Status)
	}

	if _, err := store.DecideReservation(ctx, "res-a", application.ReservationRejected, now); !errors.Is(err, persistence.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestStore_ListReservationsFilters(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()
	now := time.Date(2026, time.January, 21, 9, 0, 0, 0, time.UTC)

	if err := store.PutAssociation(ctx, application.Association{ID: "a2", Name: "Les Aventuriers du Dimanche", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("failed to seed association: %v", err)
	}
	if err := store.PutRoom(ctx, application.Room{ID: "r3", AssociationID: "a2", Name: "Ailleurs", Capacity: 4, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("failed to seed room: %v", err)
	}

	reservations := []application.Reservation{
		{ID: "res1", RoomID: "r1", Date: "2026-01-20", StartTime: "19:00", EndTime: "23:00", Status: application.ReservationBooked, UserID: "u_player", CreatedAt: now, UpdatedAt: now},
		{ID: "res2", RoomID: "r1", Date: "2026-01-23", StartTime: "19:00", EndTime: "23:00", Status: application.ReservationPending, UserID: "u_player", CreatedAt: now, UpdatedAt: now},
		{ID: "res3", RoomID: "r3", Date: "2026-01-25", StartTime: "14:00", EndTime: "18:00", Status: application.ReservationPending, UserID: "u_admin", CreatedAt: now, UpdatedAt: now},
	}
	for _, reservation := range reservations {
		if err := store.PutReservation(ctx, reservation); err != nil {
			t.Fatalf("failed to seed reservation: %v", err)
		}
	}

	t.Run("by room", func(t *testing.T) {
		out, err := store.ListReservations(ctx, application.ReservationFilter{RoomID: "r1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("expected 2 reservations, got %d", len(out))
		}
	})

	t.Run("by user", func(t *testing.T) {
		out, err := store.ListReservations(ctx, application.ReservationFilter{UserID: "u_admin"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 1 || out[0].ID != "res3" {
			t.Fatalf("expected only res3, got %+v", out)
		}
	})

	t.Run("by association and status", func(t *testing.T) {
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

func TestStore_Sessions(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()
	now := time.Date(2026, time.January, 21, 9, 0, 0, 0, time.UTC)

	session := application.Session{
		ID:        "s1",
		UserID:    "u_player",
		Token:     "token-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u_player" || got.RevokedAt != nil {
		t.Fatalf("unexpected session: %+v", got)
	}

	revoked, err := store.RevokeSession(ctx, "token-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatal("expected revocation timestamp")
	}

	if _, err := store.RevokeSession(ctx, "ghost", now); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.DeleteExpiredSessions(ctx, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetSession(ctx, "token-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected session pruned, got %v", err)
	}
}

func TestStore_CredentialLookup(t *testing.T) {
	store := openTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	creds, err := store.GetUserCredentialsByEmail(ctx, "FRODON@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.User.ID != "u_player" {
		t.Fatalf("expected u_player, got %q", creds.User.ID)
	}

	if _, err := store.GetUserCredentialsByEmail(ctx, "nobody@example.com"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
