package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/tabletop-booking/internal/application"
	"github.com/example/tabletop-booking/internal/availability"
)

type directoryService interface {
	ListAssociations(ctx context.Context, principal application.Principal) ([]application.AssociationRole, error)
	ListRooms(ctx context.Context, principal application.Principal, associationID string) ([]application.Room, error)
	GetRoom(ctx context.Context, principal application.Principal, roomID string) (application.Room, error)
	ResolveWeek(ctx context.Context, principal application.Principal, roomID string, reference time.Time) ([]availability.Slot, time.Time, error)
}

// DirectoryHandler serves the browse endpoints: associations, rooms and
// weekly availability calendars.
type DirectoryHandler struct {
	service   directoryService
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewDirectoryHandler(service directoryService, now func() time.Time, logger *slog.Logger) *DirectoryHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &DirectoryHandler{service: service, now: now, responder: newResponder(base), logger: base}
}

func (h *DirectoryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DirectoryHandler", operation, attrs...)
}

// ListAssociations returns the principal's associations with their roles.
func (h *DirectoryHandler) ListAssociations(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListAssociations", "principal_id", principal.UserID)

	results, err := h.service.ListAssociations(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list associations", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]associationDTO, 0, len(results))
	for _, result := range results {
		payload = append(payload, toAssociationDTO(result))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// ListRooms returns the rooms of one association.
func (h *DirectoryHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	associationID, _ := AssociationIDFromContext(r.Context())
	logger := h.log(r.Context(), "ListRooms", "principal_id", principal.UserID, "association_id", associationID)

	rooms, err := h.service.ListRooms(r.Context(), principal, associationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list rooms", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		payload = append(payload, toRoomDTO(room))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// GetRoom returns one room with its weekly slot templates.
func (h *DirectoryHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID, _ := RoomIDFromContext(r.Context())
	logger := h.log(r.Context(), "GetRoom", "principal_id", principal.UserID, "room_id", roomID)

	room, err := h.service.GetRoom(r.Context(), principal, roomID)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to get room", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

// GetAvailability returns the weekly calendar of one room. The optional
// `week` query parameter picks the week containing that date; it defaults to
// the current week.
func (h *DirectoryHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID, _ := RoomIDFromContext(r.Context())

	reference := h.now()
	if raw := strings.TrimSpace(r.URL.Query().Get("week")); raw != "" {
		parsed, err := availability.ParseDate(raw)
		if err != nil {
			h.log(r.Context(), "GetAvailability", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid week parameter", "week", raw, "error", err)
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidWeekParam)
			return
		}
		reference = parsed
	}

	logger := h.log(r.Context(), "GetAvailability", "principal_id", principal.UserID, "room_id", roomID)

	slots, weekStart, err := h.service.ResolveWeek(r.Context(), principal, roomID, reference)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to resolve availability", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := availabilityResponse{
		RoomID:    roomID,
		WeekStart: availability.FormatDate(weekStart),
		Slots:     make([]slotDTO, 0, len(slots)),
	}
	for _, slot := range slots {
		payload.Slots = append(payload.Slots, slotDTO{
			Date:          slot.Date,
			DayOfWeek:     string(slot.Day),
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			Status:        string(slot.Status),
			ReservationID: slot.ReservationID,
			WeeklySlotID:  slot.TemplateID,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

type associationDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MemberCount int    `json:"member_count"`
	Role        string `json:"role"`
}

func toAssociationDTO(result application.AssociationRole) associationDTO {
	return associationDTO{
		ID:          result.Association.ID,
		Name:        result.Association.Name,
		Description: result.Association.Description,
		MemberCount: result.Association.MemberCount,
		Role:        string(result.Role),
	}
}

type roomDTO struct {
	ID            string          `json:"id"`
	AssociationID string          `json:"association_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Capacity      int             `json:"capacity"`
	WeeklySlots   []weeklySlotDTO `json:"weekly_slots"`
}

type weeklySlotDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func toRoomDTO(room application.Room) roomDTO {
	dto := roomDTO{
		ID:            room.ID,
		AssociationID: room.AssociationID,
		Name:          room.Name,
		Description:   room.Description,
		Capacity:      room.Capacity,
		WeeklySlots:   make([]weeklySlotDTO, 0, len(room.WeeklySlots)),
	}
	for _, slot := range room.WeeklySlots {
		dto.WeeklySlots = append(dto.WeeklySlots, weeklySlotDTO{
			ID:        slot.ID,
			Name:      slot.Name,
			DayOfWeek: string(slot.DayOfWeek),
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}
	return dto
}

type availabilityResponse struct {
	RoomID    string    `json:"room_id"`
	WeekStart string    `json:"week_start"`
	Slots     []slotDTO `json:"slots"`
}

type slotDTO struct {
	Date          string `json:"date"`
	DayOfWeek     string `json:"day_of_week"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	ReservationID string `json:"reservation_id,omitempty"`
	WeeklySlotID  string `json:"weekly_slot_id,omitempty"`
}
