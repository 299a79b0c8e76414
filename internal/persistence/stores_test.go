package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/tabletop-booking/internal/application"
	"github.com/example/tabletop-booking/internal/persistence"
	"github.com/example/tabletop-booking/internal/persistence/memory"
	"github.com/example/tabletop-booking/internal/testfixtures"
)

// bookingStore is the contract both backends must honour.
type bookingStore interface {
	PutUser(ctx context.Context, creds application.UserCredentials) error
	PutAssociation(ctx context.Context, assoc application.Association) error
	PutMembership(ctx context.Context, membership application.Membership) error
	PutRoom(ctx context.Context, room application.Room) error
	PutReservation(ctx context.Context, reservation application.Reservation) error

	GetRoom(ctx context.Context, id string) (application.Room, error)
	GetReservation(ctx context.Context, id string) (application.Reservation, error)
	DecideReservation(ctx context.Context, id string, status application.ReservationStatus, decidedAt time.Time) (application.Reservation, error)
	ListReservations(ctx context.Context, filter application.ReservationFilter) ([]application.Reservation, error)

	CreateSession(ctx context.Context, session application.Session) (application.Session, error)
	GetSession(ctx context.Context, token string) (application.Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

func forEachStore(t *testing.T, test func(t *testing.T, store bookingStore)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		test(t, memory.NewStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		test(t, testfixtures.NewSQLiteStore(t))
	})
}

func seedCell(t *testing.T, store bookingStore) (application.Room, application.UserCredentials) {
	t.Helper()
	ctx := context.Background()

	user := testfixtures.NewUserFixture()
	assoc := testfixtures.NewAssociationFixture()
	room := testfixtures.NewRoomFixture(testfixtures.WithRoomAssociation(assoc.ID))

	if err := store.PutUser(ctx, user); err != nil {
		t.Fatalf("PutUser failed: %v", err)
	}
	if err := store.PutAssociation(ctx, assoc); err != nil {
		t.Fatalf("PutAssociation failed: %v", err)
	}
	if err := store.PutMembership(ctx, application.Membership{
		UserID:        user.User.ID,
		AssociationID: assoc.ID,
		Role:          application.RoleAdmin,
		CreatedAt:     testfixtures.ReferenceTime(),
	}); err != nil {
		t.Fatalf("PutMembership failed: %v", err)
	}
	if err := store.PutRoom(ctx, room); err != nil {
		t.Fatalf("PutRoom failed: %v", err)
	}
	return room, user
}

func TestStores_ApprovingSecondPendingConflicts(t *testing.T) {
	forEachStore(t, func(t *testing.T, store bookingStore) {
		ctx := context.Background()
		room, user := seedCell(t, store)

		first := testfixtures.NewReservationFixture(
			testfixtures.WithReservationRoom(room.ID),
			testfixtures.WithReservationUser(user.User.ID),
			testfixtures.WithReservationCell("2026-02-06", "19:00"),
		)
		second := testfixtures.NewReservationFixture(
			testfixtures.WithReservationRoom(room.ID),
			testfixtures.WithReservationUser(user.User.ID),
			testfixtures.WithReservationCell("2026-02-06", "19:00"),
		)
		for _, res := range []application.Reservation{first, second} {
			if err := store.PutReservation(ctx, res); err != nil {
				t.Fatalf("PutReservation failed: %v", err)
			}
		}

		decidedAt := testfixtures.ReferenceTime().Add(time.Hour)
		if _, err := store.DecideReservation(ctx, first.ID, application.ReservationBooked, decidedAt); err != nil {
			t.Fatalf("first approval failed: %v", err)
		}

		if _, err := store.DecideReservation(ctx, second.ID, application.ReservationBooked, decidedAt); !errors.Is(err, persistence.ErrConflict) {
			t.Fatalf("expected ErrConflict approving the second request, got %v", err)
		}

		// The losing request can still be rejected.
		rejected, err := store.DecideReservation(ctx, second.ID, application.ReservationRejected, decidedAt)
		if err != nil {
			t.Fatalf("rejecting the second request failed: %v", err)
		}
		if rejected.Status != application.ReservationRejected {
			t.Fatalf("expected REJECTED, got %s", rejected.Status)
		}

		if _, err := store.DecideReservation(ctx, first.ID, application.ReservationRejected, decidedAt); !errors.Is(err, persistence.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState re-deciding a settled reservation, got %v", err)
		}
	})
}

func TestStores_ReservationFilters(t *testing.T) {
	forEachStore(t, func(t *testing.T, store bookingStore) {
		ctx := context.Background()
		room, user := seedCell(t, store)

		pending := testfixtures.NewReservationFixture(
			testfixtures.WithReservationRoom(room.ID),
			testfixtures.WithReservationUser(user.User.ID),
			testfixtures.WithReservationCell("2026-02-13", "19:00"),
		)
		booked := testfixtures.NewReservationFixture(
			testfixtures.WithReservationRoom(room.ID),
			testfixtures.WithReservationUser(user.User.ID),
			testfixtures.WithReservationCell("2026-02-20", "19:00"),
			testfixtures.WithReservationStatus(application.ReservationBooked),
		)
		for _, res := range []application.Reservation{pending, booked} {
			if err := store.PutReservation(ctx, res); err != nil {
				t.Fatalf("PutReservation failed: %v", err)
			}
		}

		byStatus, err := store.ListReservations(ctx, application.ReservationFilter{
			RoomID:   room.ID,
			Statuses: []application.ReservationStatus{application.ReservationBooked},
		})
		if err != nil {
			t.Fatalf("ListReservations failed: %v", err)
		}
		if len(byStatus) != 1 || byStatus[0].ID != booked.ID {
			t.Fatalf("unexpected status filter result: %+v", byStatus)
		}

		byAssociation, err := store.ListReservations(ctx, application.ReservationFilter{
			AssociationIDs: []string{room.AssociationID},
		})
		if err != nil {
			t.Fatalf("ListReservations failed: %v", err)
		}
		if len(byAssociation) != 2 {
			t.Fatalf("expected 2 reservations for the association, got %d", len(byAssociation))
		}

		if _, err := store.GetReservation(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown reservation, got %v", err)
		}
	})
}

func TestStores_SessionLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, store bookingStore) {
		ctx := context.Background()
		_, user := seedCell(t, store)

		base := testfixtures.ReferenceTime()
		session := application.Session{
			ID:        "sess-1",
			UserID:    user.User.ID,
			Token:     "token-1",
			CreatedAt: base,
			UpdatedAt: base,
			ExpiresAt: base.Add(24 * time.Hour),
		}
		if _, err := store.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}

		fetched, err := store.GetSession(ctx, session.Token)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if fetched.UserID != user.User.ID {
			t.Fatalf("unexpected session owner: %q", fetched.UserID)
		}

		revoked, err := store.RevokeSession(ctx, session.Token, base.Add(time.Hour))
		if err != nil {
			t.Fatalf("RevokeSession failed: %v", err)
		}
		if revoked.RevokedAt == nil {
			t.Fatal("expected RevokedAt to be set")
		}

		if err := store.DeleteExpiredSessions(ctx, base.Add(48*time.Hour)); err != nil {
			t.Fatalf("DeleteExpiredSessions failed: %v", err)
		}
		if _, err := store.GetSession(ctx, session.Token); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after pruning, got %v", err)
		}
	})
}
