package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/tabletop-booking/internal/availability"
	"github.com/example/tabletop-booking/internal/booking"
	"github.com/example/tabletop-booking/internal/persistence"
)

// ReservationRepository captures the persistence interactions needed by the
// reservation service. CreateReservation and DecideReservation are atomic
// with respect to the booked-cell invariant: the store re-checks the cell
// under its own lock so that check-then-act cannot race.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	DecideReservation(ctx context.Context, id string, status ReservationStatus, decidedAt time.Time) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
}

// RoomCatalog exposes room lookup operations.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, associationID string) ([]Room, error)
}

// AssociationCatalog exposes association lookup operations.
type AssociationCatalog interface {
	GetAssociation(ctx context.Context, id string) (Association, error)
}

// MembershipDirectory exposes role assignments per principal.
type MembershipDirectory interface {
	ListMemberships(ctx context.Context, userID string) ([]Membership, error)
}

// Placeholders substituted into reservation read models when a join target
// has gone missing.
const (
	unknownRoomName        = "Unknown room"
	unknownAssociationName = "Unknown association"
)

// ReservationService validates and commits reservation requests and admin
// decisions against the booking conflict rules.
type ReservationService struct {
	reservations ReservationRepository
	rooms        RoomCatalog
	associations AssociationCatalog
	memberships  MembershipDirectory
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(reservations ReservationRepository, rooms RoomCatalog, associations AssociationCatalog, memberships MembershipDirectory, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, rooms, associations, memberships, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a ReservationService with a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, rooms RoomCatalog, associations AssociationCatalog, memberships MembershipDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		associations: associations,
		memberships:  memberships,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// RequestReservation validates a reservation request and commits it in
// PENDING state. Constraint order: the room must exist, the cell must not be
// booked, then the input fields must pass validation.
//
// A request for a time with no matching weekly slot template is still
// accepted: the calendar only ever offers template-backed cells, and the
// command path stays deliberately permissive about off-template requests.
func (s *ReservationService) RequestReservation(ctx context.Context, params RequestReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.rooms == nil {
		err = fmt.Errorf("reservation service not fully configured")
		return
	}

	input := params.Input
	logger := s.loggerWith(ctx, "RequestReservation",
		"principal_id", params.Principal.UserID,
		"room_id", input.RoomID,
		"date", input.Date,
		"start_time", input.StartTime,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to request reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation requested")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(ctx, input.RoomID)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	var occupied bool
	occupied, err = s.cellBooked(ctx, input.RoomID, input.Date, input.StartTime)
	if err != nil {
		return
	}
	if occupied {
		err = ErrConflict
		return
	}

	vErr := validateReservationInput(input, room.Capacity)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	reservation = Reservation{
		ID:         s.idGenerator(),
		RoomID:     room.ID,
		Date:       input.Date,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Status:     ReservationPending,
		UserID:     params.Principal.UserID,
		GameName:   strings.TrimSpace(input.GameName),
		MaxPlayers: input.MaxPlayers,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	var persisted Reservation
	persisted, err = s.reservations.CreateReservation(ctx, reservation)
	if err != nil {
		err = mapStoreError(err)
		reservation = Reservation{}
		return
	}

	reservation = persisted
	return
}

// Decide applies an admin decision to a pending reservation. Only the status
// field changes. Approving re-checks the cell so that sequentially approving
// two pending requests for the same cell fails with ErrConflict instead of
// double-booking it.
func (s *ReservationService) Decide(ctx context.Context, params DecideReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.rooms == nil || s.memberships == nil {
		err = fmt.Errorf("reservation service not fully configured")
		return
	}

	logger := s.loggerWith(ctx, "Decide",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
		"decision", string(params.Decision),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to decide reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation decided")
	}()

	if params.Decision != ReservationBooked && params.Decision != ReservationRejected {
		vErr := &ValidationError{}
		vErr.add("decision", "decision must be BOOKED or REJECTED")
		err = vErr
		return
	}

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(ctx, existing.RoomID)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	var isAdmin bool
	isAdmin, err = s.holdsAdminRole(ctx, params.Principal, room.AssociationID)
	if err != nil {
		return
	}
	if !isAdmin {
		err = ErrUnauthorized
		return
	}

	if existing.Status != ReservationPending {
		err = ErrInvalidState
		return
	}

	reservation, err = s.reservations.DecideReservation(ctx, params.ReservationID, params.Decision, s.now())
	if err != nil {
		err = mapStoreError(err)
		reservation = Reservation{}
		return
	}

	return
}

// ListMyReservations returns every reservation created by the principal,
// regardless of status, most recent date first.
func (s *ReservationService) ListMyReservations(ctx context.Context, principal Principal) (details []ReservationDetail, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListMyReservations", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(details)).InfoContext(ctx, "reservations listed")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	var reservations []Reservation
	reservations, err = s.reservations.ListReservations(ctx, ReservationFilter{UserID: principal.UserID})
	if err != nil {
		err = mapStoreError(err)
		return
	}

	details = s.joinDetails(ctx, reservations)
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].Date > details[j].Date
	})
	return
}

// ListPendingReservations returns the pending reservations the principal may
// decide: those in rooms of associations where the principal holds the ADMIN
// role. A principal who administers nothing gets an empty result, never a
// fallback view.
func (s *ReservationService) ListPendingReservations(ctx context.Context, principal Principal) (details []ReservationDetail, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.memberships == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListPendingReservations", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list pending reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(details)).InfoContext(ctx, "pending reservations listed")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	var memberships []Membership
	memberships, err = s.memberships.ListMemberships(ctx, principal.UserID)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	adminIDs := make([]string, 0, len(memberships))
	for _, membership := range memberships {
		if membership.Role == RoleAdmin {
			adminIDs = append(adminIDs, membership.AssociationID)
		}
	}
	if len(adminIDs) == 0 {
		return nil, nil
	}

	var reservations []Reservation
	reservations, err = s.reservations.ListReservations(ctx, ReservationFilter{
		AssociationIDs: adminIDs,
		Statuses:       []ReservationStatus{ReservationPending},
	})
	if err != nil {
		err = mapStoreError(err)
		return
	}

	details = s.joinDetails(ctx, reservations)
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].Date == details[j].Date {
			return details[i].ID < details[j].ID
		}
		return details[i].Date < details[j].Date
	})
	return
}

func (s *ReservationService) cellBooked(ctx context.Context, roomID, date, startTime string) (bool, error) {
	reservations, err := s.reservations.ListReservations(ctx, ReservationFilter{
		RoomID:   roomID,
		Statuses: []ReservationStatus{ReservationBooked},
	})
	if err != nil {
		return false, mapStoreError(err)
	}
	return booking.IsBooked(toBookingReservations(reservations), roomID, date, startTime), nil
}

func (s *ReservationService) holdsAdminRole(ctx context.Context, principal Principal, associationID string) (bool, error) {
	if principal.UserID == "" {
		return false, nil
	}
	memberships, err := s.memberships.ListMemberships(ctx, principal.UserID)
	if err != nil {
		return false, mapStoreError(err)
	}
	for _, membership := range memberships {
		if membership.AssociationID == associationID && membership.Role == RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (s *ReservationService) joinDetails(ctx context.Context, reservations []Reservation) []ReservationDetail {
	if len(reservations) == 0 {
		return nil
	}

	details := make([]ReservationDetail, 0, len(reservations))
	for _, reservation := range reservations {
		detail := ReservationDetail{
			Reservation:     reservation,
			RoomName:        unknownRoomName,
			AssociationName: unknownAssociationName,
		}
		if s.rooms != nil {
			if room, err := s.rooms.GetRoom(ctx, reservation.RoomID); err == nil {
				detail.RoomName = room.Name
				if s.associations != nil {
					if assoc, err := s.associations.GetAssociation(ctx, room.AssociationID); err == nil {
						detail.AssociationName = assoc.Name
					}
				}
			}
		}
		details = append(details, detail)
	}
	return details
}

func toBookingReservations(reservations []Reservation) []booking.Reservation {
	out := make([]booking.Reservation, len(reservations))
	for i, res := range reservations {
		out[i] = booking.Reservation{
			ID:        res.ID,
			RoomID:    res.RoomID,
			Date:      res.Date,
			StartTime: res.StartTime,
			Status:    booking.Status(res.Status),
		}
	}
	return out
}

func validateReservationInput(input ReservationInput, roomCapacity int) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.GameName) == "" {
		vErr.add("game_name", "game name is required")
	}

	if _, err := availability.ParseDate(input.Date); err != nil {
		vErr.add("date", "date must be an ISO calendar date")
	}

	startOK := true
	if _, err := availability.ParseClock(input.StartTime); err != nil {
		vErr.add("start_time", "start time must be HH:MM")
		startOK = false
	}
	if _, err := availability.ParseClock(input.EndTime); err != nil {
		vErr.add("end_time", "end time must be HH:MM")
	} else if startOK && input.EndTime <= input.StartTime {
		vErr.add("time", "start time must be before end time")
	}

	if input.MaxPlayers < 2 {
		vErr.add("max_players", "at least 2 players are required")
	} else if roomCapacity > 0 && input.MaxPlayers > roomCapacity {
		vErr.add("max_players", "max players exceeds room capacity")
	}

	return vErr
}

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConflict):
		return ErrConflict
	case errors.Is(err, persistence.ErrInvalidState):
		return ErrInvalidState
	case errors.Is(err, persistence.ErrDuplicate):
		vErr := &ValidationError{}
		vErr.add("id", "record already exists")
		return vErr
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("input", "record violates a storage constraint")
		return vErr
	}
	return err
}
