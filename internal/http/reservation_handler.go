package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/tabletop-booking/internal/application"
)

type reservationService interface {
	RequestReservation(ctx context.Context, params application.RequestReservationParams) (application.Reservation, error)
	Decide(ctx context.Context, params application.DecideReservationParams) (application.Reservation, error)
	ListMyReservations(ctx context.Context, principal application.Principal) ([]application.ReservationDetail, error)
	ListPendingReservations(ctx context.Context, principal application.Principal) ([]application.ReservationDetail, error)
}

// ReservationHandler serves reservation requests, listings and admin
// decisions.
type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

// Create requests a new reservation for the authenticated member.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create",
		"principal_id", principal.UserID,
		"room_id", req.RoomID,
		"date", req.Date,
	)

	reservation, err := h.service.RequestReservation(r.Context(), application.RequestReservationParams{
		Principal: principal,
		Input: application.ReservationInput{
			RoomID:     req.RoomID,
			Date:       req.Date,
			StartTime:  req.StartTime,
			EndTime:    req.EndTime,
			GameName:   req.GameName,
			MaxPlayers: req.MaxPlayers,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create reservation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReservationDTO(reservation))
}

// ListMine returns every reservation of the authenticated member.
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListMine", "principal_id", principal.UserID)

	details, err := h.service.ListMyReservations(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list reservations", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDetailDTOs(details))
}

// ListPending returns the pending reservations the principal administers.
func (h *ReservationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListPending", "principal_id", principal.UserID)

	details, err := h.service.ListPendingReservations(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list pending reservations", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDetailDTOs(details))
}

// Decide applies an admin decision to a pending reservation.
func (h *ReservationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservationID, _ := ReservationIDFromContext(r.Context())

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Decide", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode decision request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Decide",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
		"decision", req.Decision,
	)

	reservation, err := h.service.Decide(r.Context(), application.DecideReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		Decision:      application.ReservationStatus(req.Decision),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to decide reservation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation decided")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

type reservationRequest struct {
	RoomID     string `json:"room_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	GameName   string `json:"game_name"`
	MaxPlayers int    `json:"max_players"`
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

type reservationDTO struct {
	ID              string `json:"id"`
	RoomID          string `json:"room_id"`
	RoomName        string `json:"room_name,omitempty"`
	AssociationName string `json:"association_name,omitempty"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Status          string `json:"status"`
	UserID          string `json:"user_id"`
	GameName        string `json:"game_name"`
	MaxPlayers      int    `json:"max_players"`
	CreatedAt       string `json:"created_at"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:         reservation.ID,
		RoomID:     reservation.RoomID,
		Date:       reservation.Date,
		StartTime:  reservation.StartTime,
		EndTime:    reservation.EndTime,
		Status:     string(reservation.Status),
		UserID:     reservation.UserID,
		GameName:   reservation.GameName,
		MaxPlayers: reservation.MaxPlayers,
		CreatedAt:  reservation.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toReservationDetailDTOs(details []application.ReservationDetail) []reservationDTO {
	out := make([]reservationDTO, 0, len(details))
	for _, detail := range details {
		dto := toReservationDTO(detail.Reservation)
		dto.RoomName = detail.RoomName
		dto.AssociationName = detail.AssociationName
		out = append(out, dto)
	}
	return out
}
