package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/tabletop-booking/internal/availability"
)

// AssociationLister exposes the full association catalog. Only the directory
// service needs it; command-side services look associations up by ID.
type AssociationLister interface {
	AssociationCatalog
	ListAssociations(ctx context.Context) ([]Association, error)
}

// DirectoryService answers browse queries: the principal's associations,
// the rooms of an association, and the weekly availability calendar of a
// room. Calendars are recomputed from templates and reservation state on
// every call, never cached.
type DirectoryService struct {
	associations AssociationLister
	rooms        RoomCatalog
	memberships  MembershipDirectory
	reservations ReservationRepository
	logger       *slog.Logger
}

// NewDirectoryService wires dependencies for browse queries.
func NewDirectoryService(associations AssociationLister, rooms RoomCatalog, memberships MembershipDirectory, reservations ReservationRepository) *DirectoryService {
	return NewDirectoryServiceWithLogger(associations, rooms, memberships, reservations, nil)
}

// NewDirectoryServiceWithLogger constructs a DirectoryService with a specified logger.
func NewDirectoryServiceWithLogger(associations AssociationLister, rooms RoomCatalog, memberships MembershipDirectory, reservations ReservationRepository, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{
		associations: associations,
		rooms:        rooms,
		memberships:  memberships,
		reservations: reservations,
		logger:       defaultLogger(logger),
	}
}

func (s *DirectoryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DirectoryService", operation, attrs...)
}

// ListAssociations returns the associations the principal belongs to, paired
// with the role held in each, sorted by association name. Memberships whose
// association record has gone missing are skipped.
func (s *DirectoryService) ListAssociations(ctx context.Context, principal Principal) (results []AssociationRole, err error) {
	if s == nil {
		err = fmt.Errorf("DirectoryService is nil")
		return
	}
	if s.memberships == nil || s.associations == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListAssociations", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list associations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(results)).InfoContext(ctx, "associations listed")
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

	for _, membership := range memberships {
		assoc, lookupErr := s.associations.GetAssociation(ctx, membership.AssociationID)
		if lookupErr != nil {
			continue
		}
		results = append(results, AssociationRole{Association: assoc, Role: membership.Role})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Association.Name == results[j].Association.Name {
			return results[i].Association.ID < results[j].Association.ID
		}
		return results[i].Association.Name < results[j].Association.Name
	})
	return
}

// ListRooms returns the rooms of one association sorted by name. The
// association must exist.
func (s *DirectoryService) ListRooms(ctx context.Context, principal Principal, associationID string) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("DirectoryService is nil")
		return
	}
	if s.associations == nil || s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms", "principal_id", principal.UserID, "association_id", associationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms listed")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	if _, err = s.associations.GetAssociation(ctx, associationID); err != nil {
		err = mapStoreError(err)
		return
	}

	rooms, err = s.rooms.ListRooms(ctx, associationID)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].Name == rooms[j].Name {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].Name < rooms[j].Name
	})
	return
}

// GetRoom returns one room with its weekly slot templates.
func (s *DirectoryService) GetRoom(ctx context.Context, principal Principal, roomID string) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("DirectoryService is nil")
		return
	}
	if s.rooms == nil {
		err = ErrNotFound
		return
	}

	logger := s.loggerWith(ctx, "GetRoom", "principal_id", principal.UserID, "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to get room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room fetched")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	room, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapStoreError(err)
		return
	}
	return
}

// ResolveWeek computes the availability calendar of one room for the week
// containing reference. Rejected reservations never occupy a cell, so their
// slots come back AVAILABLE.
func (s *DirectoryService) ResolveWeek(ctx context.Context, principal Principal, roomID string, reference time.Time) (slots []availability.Slot, weekStart time.Time, err error) {
	if s == nil {
		err = fmt.Errorf("DirectoryService is nil")
		return
	}
	if s.rooms == nil || s.reservations == nil {
		err = ErrNotFound
		return
	}

	weekStart = availability.StartOfWeek(reference)

	logger := s.loggerWith(ctx, "ResolveWeek",
		"principal_id", principal.UserID,
		"room_id", roomID,
		"week_start", availability.FormatDate(weekStart),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to resolve week", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("slot_count", len(slots)).InfoContext(ctx, "week resolved")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	var reservations []Reservation
	reservations, err = s.reservations.ListReservations(ctx, ReservationFilter{RoomID: roomID})
	if err != nil {
		err = mapStoreError(err)
		return
	}

	slots = availability.ResolveWeek(room.ID, toTemplates(room.WeeklySlots), weekStart, toBookingReservations(reservations))
	return
}

func toTemplates(weeklySlots []WeeklySlot) []availability.Template {
	templates := make([]availability.Template, len(weeklySlots))
	for i, slot := range weeklySlots {
		templates[i] = availability.Template{
			ID:        slot.ID,
			Name:      slot.Name,
			Day:       slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		}
	}
	return templates
}
