package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/resource-booking/internal/application"
)

type reservationService interface {
	Create(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	Edit(ctx context.Context, params application.EditReservationParams) (application.Reservation, error)
	Cancel(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	Confirm(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	Complete(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	Delete(ctx context.Context, principal application.Principal, reservationID string) error
	Get(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	List(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
}

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

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "resource_id", input.ResourceID)

	reservation, err := h.service.Create(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "reservation_id", reservationID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "reservation_id", reservationID)

	reservation, err := h.service.Edit(r.Context(), application.EditReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		Input:         input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.Get(r.Context(), principal, reservationID)
	if err != nil {
		h.log(r.Context(), "Get", "reservation_id", reservationID).ErrorContext(r.Context(), "reservation fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "reservation_id", reservationID)
	if err := h.service.Delete(r.Context(), principal, reservationID); err != nil {
		logger.ErrorContext(r.Context(), "reservation delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	params := application.ListReservationsParams{
		Principal:   principal,
		ResourceID:  strings.TrimSpace(query.Get("resource_id")),
		RequesterID: strings.TrimSpace(query.Get("requester_id")),
	}
	for _, state := range query["state"] {
		params.States = append(params.States, application.ReservationState(strings.TrimSpace(strings.ToLower(state))))
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	reservations, err := h.service.List(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(reservations)).InfoContext(r.Context(), "reservations listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

// Transition handles the lifecycle sub-routes: confirm, cancel, complete.
func (h *ReservationHandler) Transition(w http.ResponseWriter, r *http.Request, action string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Transition", "principal_id", principal.UserID, "reservation_id", reservationID, "action", action)

	var reservation application.Reservation
	var err error
	switch action {
	case "confirm":
		reservation, err = h.service.Confirm(r.Context(), principal, reservationID)
	case "cancel":
		reservation, err = h.service.Cancel(r.Context(), principal, reservationID)
	case "complete":
		reservation, err = h.service.Complete(r.Context(), principal, reservationID)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("state", reservation.State).InfoContext(r.Context(), "reservation transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

type reservationRequest struct {
	ResourceID  string `json:"resource_id"`
	RequesterID string `json:"requester_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Purpose     string `json:"purpose"`
}

func (r reservationRequest) toInput() (application.ReservationInput, error) {
	input := application.ReservationInput{
		ResourceID:  strings.TrimSpace(r.ResourceID),
		RequesterID: strings.TrimSpace(r.RequesterID),
		Purpose:     strings.TrimSpace(r.Purpose),
	}

	if trimmed := strings.TrimSpace(r.Start); trimmed != "" {
		start, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return application.ReservationInput{}, errors.New("start must be an RFC 3339 timestamp")
		}
		input.Start = start
	}
	if trimmed := strings.TrimSpace(r.End); trimmed != "" {
		end, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return application.ReservationInput{}, errors.New("end must be an RFC 3339 timestamp")
		}
		input.End = end
	}

	return input, nil
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID          string `json:"id"`
	ResourceID  string `json:"resource_id"`
	RequesterID string `json:"requester_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Purpose     string `json:"purpose"`
	State       string `json:"state"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:          reservation.ID,
		ResourceID:  reservation.ResourceID,
		RequesterID: reservation.RequesterID,
		Start:       reservation.Start.UTC().Format(time.RFC3339Nano),
		End:         reservation.End.UTC().Format(time.RFC3339Nano),
		Purpose:     reservation.Purpose,
		State:       string(reservation.State),
		CreatedAt:   reservation.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   reservation.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}
