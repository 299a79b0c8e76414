package application

import (
	"time"

	"github.com/example/tabletop-booking/internal/availability"
)

// Principal represents the authenticated member invoking a service method.
// Role assignments are per association, so the principal itself carries no
// admin flag.
type Principal struct {
	UserID string
}

// Role is the relationship a principal holds towards one association.
type Role string

const (
	// RolePlayer marks a regular member who can browse and request slots.
	RolePlayer Role = "PLAYER"
	// RoleAdmin marks a member who decides reservation requests for the
	// association's rooms.
	RoleAdmin Role = "ADMIN"
)

// User represents a member account known to the roster.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserCredentials models the authentication attributes stored for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
	Disabled     bool
}

// Association represents an organization owning bookable rooms.
type Association struct {
	ID          string
	Name        string
	Description string
	MemberCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership binds a user to an association with a role.
type Membership struct {
	UserID        string
	AssociationID string
	Role          Role
	CreatedAt     time.Time
}

// AssociationRole pairs an association with the requesting principal's role
// in it.
type AssociationRole struct {
	Association Association
	Role        Role
}

// WeeklySlot is a recurring weekly booking opportunity attached to a room.
// Slots are immutable once created; their declaration order is significant
// for calendar rendering.
type WeeklySlot struct {
	ID        string
	Name      string
	DayOfWeek availability.Weekday
	StartTime string
	EndTime   string
}

// Room represents a bookable space owned by an association.
type Room struct {
	ID            string
	AssociationID string
	Name          string
	Description   string
	Capacity      int
	WeeklySlots   []WeeklySlot
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReservationStatus enumerates the lifecycle states of a reservation.
type ReservationStatus string

const (
	// ReservationPending awaits an admin decision.
	ReservationPending ReservationStatus = "PENDING"
	// ReservationBooked has been approved; the state is terminal.
	ReservationBooked ReservationStatus = "BOOKED"
	// ReservationRejected has been declined; the state is terminal.
	ReservationRejected ReservationStatus = "REJECTED"
)

// Reservation is a concrete booking request tied to one calendar cell.
type Reservation struct {
	ID         string
	RoomID     string
	Date       string
	StartTime  string
	EndTime    string
	Status     ReservationStatus
	UserID     string
	GameName   string
	MaxPlayers int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReservationInput captures caller provided reservation fields.
type ReservationInput struct {
	RoomID     string
	Date       string
	StartTime  string
	EndTime    string
	GameName   string
	MaxPlayers int
}

// RequestReservationParams wraps the data required to request a reservation.
type RequestReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// DecideReservationParams wraps an admin decision on a pending reservation.
type DecideReservationParams struct {
	Principal     Principal
	ReservationID string
	Decision      ReservationStatus
}

// ReservationDetail is the read model joining a reservation with its room
// and association display names. Missing joins surface as explicit
// placeholders instead of failing the query.
type ReservationDetail struct {
	Reservation
	RoomName        string
	AssociationName string
}

// ReservationFilter narrows reservation list queries.
type ReservationFilter struct {
	RoomID         string
	UserID         string
	AssociationIDs []string
	Statuses       []ReservationStatus
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful login.
type AuthenticateResult struct {
	User    User
	Session Session
}
