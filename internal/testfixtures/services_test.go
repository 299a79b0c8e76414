package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/tabletop-booking/internal/application"
	"github.com/example/tabletop-booking/internal/persistence"
)

type capturingReservationRepo struct {
	created application.Reservation
}

func (c *capturingReservationRepo) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	c.created = reservation
	return reservation, nil
}

func (c *capturingReservationRepo) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	return application.Reservation{}, persistence.ErrNotFound
}

func (c *capturingReservationRepo) DecideReservation(ctx context.Context, id string, status application.ReservationStatus, decidedAt time.Time) (application.Reservation, error) {
	return application.Reservation{}, persistence.ErrNotFound
}

func (c *capturingReservationRepo) ListReservations(ctx context.Context, filter application.ReservationFilter) ([]application.Reservation, error) {
	return nil, nil
}

type fixedRoomCatalog struct {
	room application.Room
}

func (c *fixedRoomCatalog) GetRoom(ctx context.Context, id string) (application.Room, error) {
	if id != c.room.ID {
		return application.Room{}, persistence.ErrNotFound
	}
	return c.room, nil
}

func (c *fixedRoomCatalog) ListRooms(ctx context.Context, associationID string) ([]application.Room, error) {
	return []application.Room{c.room}, nil
}

func TestServiceFactoryNewReservationService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingReservationRepo{}
	room := NewRoomFixture(WithRoomID("r1"), WithRoomAssociation("a1"), WithRoomCapacity(6))

	svc := factory.NewReservationService(ReservationServiceDeps{
		Reservations: repo,
		Rooms:        &fixedRoomCatalog{room: room},
	})

	reservation, err := svc.RequestReservation(context.Background(), application.RequestReservationParams{
		Principal: application.Principal{UserID: "u1"},
		Input: application.ReservationInput{
			RoomID:     "r1",
			Date:       "2026-01-23",
			StartTime:  "19:00",
			EndTime:    "23:00",
			GameName:   "Pathfinder",
			MaxPlayers: 4,
		},
	})
	if err != nil {
		t.Fatalf("RequestReservation returned error: %v", err)
	}

	if reservation.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", reservation.ID)
	}
	if repo.created.ID != reservation.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
	if !reservation.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), reservation.CreatedAt)
	}
	if reservation.Status != application.ReservationPending {
		t.Fatalf("expected PENDING, got %s", reservation.Status)
	}
}
