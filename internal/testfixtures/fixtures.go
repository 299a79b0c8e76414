package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/tabletop-booking/internal/application"
)

var (
	userCounter        uint64
	associationCounter uint64
	roomCounter        uint64
	reservationCounter uint64
)

// referenceTime is a Monday, so fixture weeks line up with calendar weeks.
var referenceTime = time.Date(2026, time.January, 19, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures a generated user fixture.
type UserOption func(*application.UserCredentials)

// NewUserFixture returns a deterministic user with credentials.
func NewUserFixture(opts ...UserOption) application.UserCredentials {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := application.UserCredentials{
		User: application.User{
			ID:          id,
			Email:       fmt.Sprintf("%s@example.com", id),
			DisplayName: fmt.Sprintf("User %03d", idx),
			CreatedAt:   created,
			UpdatedAt:   created,
		},
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *application.UserCredentials) {
		f.User.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *application.UserCredentials) {
		f.User.Email = email
	}
}

// WithPasswordHash overrides the generated password hash.
func WithPasswordHash(hash string) UserOption {
	return func(f *application.UserCredentials) {
		f.PasswordHash = hash
	}
}

// WithDisabled marks the account disabled.
func WithDisabled() UserOption {
	return func(f *application.UserCredentials) {
		f.Disabled = true
	}
}

// AssociationOption configures a generated association fixture.
type AssociationOption func(*application.Association)

// NewAssociationFixture returns a deterministic association.
func NewAssociationFixture(opts ...AssociationOption) application.Association {
	idx := atomic.AddUint64(&associationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := application.Association{
		ID:        fmt.Sprintf("assoc-%03d", idx),
		Name:      fmt.Sprintf("Association %03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAssociationID overrides the generated association ID.
func WithAssociationID(id string) AssociationOption {
	return func(f *application.Association) {
		f.ID = id
	}
}

// WithAssociationName overrides the generated name.
func WithAssociationName(name string) AssociationOption {
	return func(f *application.Association) {
		f.Name = name
	}
}

// RoomOption configures a generated room fixture.
type RoomOption func(*application.Room)

// NewRoomFixture returns a deterministic room.
func NewRoomFixture(opts ...RoomOption) application.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := application.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Capacity:  6,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *application.Room) {
		f.ID = id
	}
}

// WithRoomAssociation attaches the room to an association.
func WithRoomAssociation(associationID string) RoomOption {
	return func(f *application.Room) {
		f.AssociationID = associationID
	}
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *application.Room) {
		f.Capacity = capacity
	}
}

// WithWeeklySlot appends a weekly slot template to the room.
func WithWeeklySlot(slot application.WeeklySlot) RoomOption {
	return func(f *application.Room) {
		f.WeeklySlots = append(f.WeeklySlots, slot)
	}
}

// ReservationOption configures a generated reservation fixture.
type ReservationOption func(*application.Reservation)

// NewReservationFixture returns a deterministic pending reservation.
func NewReservationFixture(opts ...ReservationOption) application.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := application.Reservation{
		ID:         fmt.Sprintf("res-%03d", idx),
		Date:       "2026-01-23",
		StartTime:  "19:00",
		EndTime:    "23:00",
		Status:     application.ReservationPending,
		GameName:   fmt.Sprintf("Game %03d", idx),
		MaxPlayers: 4,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *application.Reservation) {
		f.ID = id
	}
}

// WithReservationRoom attaches the reservation to a room.
func WithReservationRoom(roomID string) ReservationOption {
	return func(f *application.Reservation) {
		f.RoomID = roomID
	}
}

// WithReservationUser sets the requesting user.
func WithReservationUser(userID string) ReservationOption {
	return func(f *application.Reservation) {
		f.UserID = userID
	}
}

// WithReservationCell places the reservation on a specific calendar cell.
func WithReservationCell(date, startTime string) ReservationOption {
	return func(f *application.Reservation) {
		f.Date = date
		f.StartTime = startTime
	}
}

// WithReservationStatus overrides the generated status.
func WithReservationStatus(status application.ReservationStatus) ReservationOption {
	return func(f *application.Reservation) {
		f.Status = status
	}
}
