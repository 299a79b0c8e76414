// Package memory provides the default store: a mutex-guarded, map-backed
// implementation of every repository interface the services declare. All
// state lives in process memory and is lost on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/tabletop-booking/internal/application"
	"github.com/example/tabletop-booking/internal/persistence"
)

// Store holds the whole data set behind one mutex. The data set is small
// enough that finer-grained locking would buy nothing.
type Store struct {
	mu sync.Mutex

	users        map[string]application.UserCredentials
	associations map[string]application.Association
	memberships  []application.Membership
	rooms        map[string]application.Room
	reservations map[string]application.Reservation
	sessions     map[string]application.Session
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]application.UserCredentials),
		associations: make(map[string]application.Association),
		rooms:        make(map[string]application.Room),
		reservations: make(map[string]application.Reservation),
		sessions:     make(map[string]application.Session),
	}
}

// PutUser inserts or replaces a user with credentials.
func (s *Store) PutUser(ctx context.Context, creds application.UserCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[creds.User.ID] = creds
	return nil
}

// PutAssociation inserts or replaces an association.
func (s *Store) PutAssociation(ctx context.Context, assoc application.Association) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.associations[assoc.ID] = assoc
	return nil
}

// PutMembership records a role binding. An existing binding for the same
// user and association is replaced.
func (s *Store) PutMembership(ctx context.Context, membership application.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.memberships {
		if existing.UserID == membership.UserID && existing.AssociationID == membership.AssociationID {
			s.memberships[i] = membership
			return nil
		}
	}
	s.memberships = append(s.memberships, membership)
	return nil
}

// PutRoom inserts or replaces a room together with its weekly slots.
func (s *Store) PutRoom(ctx context.Context, room application.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return nil
}

// PutReservation inserts or replaces a reservation without any cell checks.
// Seeding uses it to load historical state verbatim.
func (s *Store) PutReservation(ctx context.Context, reservation application.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[reservation.ID] = reservation
	return nil
}

// GetUser implements application.CredentialStore.
func (s *Store) GetUser(ctx context.Context, id string) (application.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, ok := s.users[id]
	if !ok {
		return application.User{}, persistence.ErrNotFound
	}
	return creds.User, nil
}

// GetUserCredentialsByEmail implements application.CredentialStore. The
// lookup is case-insensitive on the email.
func (s *Store) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, creds := range s.users {
		if strings.ToLower(creds.User.Email) == needle {
			return creds, nil
		}
	}
	return application.UserCredentials{}, persistence.ErrNotFound
}

// GetAssociation implements application.AssociationCatalog.
func (s *Store) GetAssociation(ctx context.Context, id string) (application.Association, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	assoc, ok := s.associations[id]
	if !ok {
		return application.Association{}, persistence.ErrNotFound
	}
	return assoc, nil
}

// ListAssociations implements application.AssociationLister.
func (s *Store) ListAssociations(ctx context.Context) ([]application.Association, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]application.Association, 0, len(s.associations))
	for _, assoc := range s.associations {
		out = append(out, assoc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListMemberships implements application.MembershipDirectory.
func (s *Store) ListMemberships(ctx context.Context, userID string) ([]application.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []application.Membership
	for _, membership := range s.memberships {
		if membership.UserID == userID {
			out = append(out, membership)
		}
	}
	return out, nil
}

// GetRoom implements application.RoomCatalog.
func (s *Store) GetRoom(ctx context.Context, id string) (application.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return application.Room{}, persistence.ErrNotFound
	}
	return cloneRoom(room), nil
}

// ListRooms implements application.RoomCatalog.
func (s *Store) ListRooms(ctx context.Context, associationID string) ([]application.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []application.Room
	for _, room := range s.rooms {
		if room.AssociationID == associationID {
			out = append(out, cloneRoom(room))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateReservation implements application.ReservationRepository. The cell
// check runs under the store lock so concurrent requests cannot both land a
// booked reservation on one cell.
func (s *Store) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reservations[reservation.ID]; exists {
		return application.Reservation{}, persistence.ErrDuplicate
	}
	if reservation.Status == application.ReservationBooked && s.cellBookedLocked(reservation.RoomID, reservation.Date, reservation.StartTime, reservation.ID) {
		return application.Reservation{}, persistence.ErrConflict
	}

	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

// GetReservation implements application.ReservationRepository.
func (s *Store) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reservation, ok := s.reservations[id]
	if !ok {
		return application.Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

// DecideReservation implements application.ReservationRepository. The
// pending guard and the booked-cell check both run under the store lock, so
// approving the second of two pending requests for one cell fails here even
// if the service checked moments earlier.
func (s *Store) DecideReservation(ctx context.Context, id string, status application.ReservationStatus, decidedAt time.Time) (application.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return application.Reservation{}, persistence.ErrNotFound
	}
	if reservation.Status != application.ReservationPending {
		return application.Reservation{}, persistence.ErrInvalidState
	}
	if status == application.ReservationBooked && s.cellBookedLocked(reservation.RoomID, reservation.Date, reservation.StartTime, reservation.ID) {
		return application.Reservation{}, persistence.ErrConflict
	}

	reservation.Status = status
	reservation.UpdatedAt = decidedAt
	s.reservations[id] = reservation
	return reservation, nil
}

// ListReservations implements application.ReservationRepository.
func (s *Store) ListReservations(ctx context.Context, filter application.ReservationFilter) ([]application.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	associationIDs := make(map[string]struct{}, len(filter.AssociationIDs))
	for _, id := range filter.AssociationIDs {
		associationIDs[id] = struct{}{}
	}

	var out []application.Reservation
	for _, reservation := range s.reservations {
		if filter.RoomID != "" && reservation.RoomID != filter.RoomID {
			continue
		}
		if filter.UserID != "" && reservation.UserID != filter.UserID {
			continue
		}
		if len(associationIDs) > 0 {
			room, ok := s.rooms[reservation.RoomID]
			if !ok {
				continue
			}
			if _, ok := associationIDs[room.AssociationID]; !ok {
				continue
			}
		}
		if len(filter.Statuses) > 0 && !statusIn(reservation.Status, filter.Statuses) {
			continue
		}
		out = append(out, reservation)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateSession implements application.SessionRepository.
func (s *Store) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.Token]; exists {
		return application.Session{}, persistence.ErrDuplicate
	}
	s.sessions[session.Token] = session
	return session, nil
}

// GetSession implements application.SessionRepository.
func (s *Store) GetSession(ctx context.Context, token string) (application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return application.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

// RevokeSession implements application.SessionRepository.
func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return application.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	session.UpdatedAt = revokedAt
	s.sessions[token] = session
	return session, nil
}

// DeleteExpiredSessions implements application.SessionRepository.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *Store) cellBookedLocked(roomID, date, startTime, excludeID string) bool {
	for _, reservation := range s.reservations {
		if reservation.ID == excludeID {
			continue
		}
		if reservation.Status != application.ReservationBooked {
			continue
		}
		if reservation.RoomID == roomID && reservation.Date == date && reservation.StartTime == startTime {
			return true
		}
	}
	return false
}

func statusIn(status application.ReservationStatus, statuses []application.ReservationStatus) bool {
	for _, candidate := range statuses {
		if status == candidate {
			return true
		}
	}
	return false
}

func cloneRoom(room application.Room) application.Room {
	if len(room.WeeklySlots) == 0 {
		return room
	}
	slots := make([]application.WeeklySlot, len(room.WeeklySlots))
	copy(slots, room.WeeklySlots)
	room.WeeklySlots = slots
	return room
}
