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

type maintenanceService interface {
	Schedule(ctx context.Context, params application.ScheduleMaintenanceParams) (application.MaintenanceWindow, error)
	Start(ctx context.Context, principal application.Principal, windowID string) (application.MaintenanceWindow, error)
	Complete(ctx context.Context, principal application.Principal, windowID string) (application.MaintenanceWindow, error)
	Get(ctx context.Context, windowID string) (application.MaintenanceWindow, error)
	List(ctx context.Context, resourceID string) ([]application.MaintenanceWindow, error)
}

type MaintenanceHandler struct {
	service   maintenanceService
	responder responder
	logger    *slog.Logger
}

func NewMaintenanceHandler(service maintenanceService, logger *slog.Logger) *MaintenanceHandler {
	base := defaultLogger(logger)
	return &MaintenanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MaintenanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MaintenanceHandler", operation, attrs...)
}

func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req maintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode maintenance request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "resource_id", input.ResourceID)

	window, err := h.service.Schedule(r.Context(), application.ScheduleMaintenanceParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "maintenance scheduling failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("maintenance_id", window.ID).InfoContext(r.Context(), "maintenance scheduled")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, maintenanceResponse{Maintenance: toMaintenanceDTO(window)})
}

func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	windowID, ok := MaintenanceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(windowID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMaintenanceID)
		return
	}

	window, err := h.service.Get(r.Context(), windowID)
	if err != nil {
		h.log(r.Context(), "Get", "maintenance_id", windowID).ErrorContext(r.Context(), "maintenance fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, maintenanceResponse{Maintenance: toMaintenanceDTO(window)})
}

func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	resourceID := strings.TrimSpace(r.URL.Query().Get("resource_id"))
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	windows, err := h.service.List(r.Context(), resourceID)
	if err != nil {
		logger.ErrorContext(r.Context(), "maintenance list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(windows)).InfoContext(r.Context(), "maintenance windows listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMaintenanceResponse{Maintenance: toMaintenanceDTOs(windows)})
}

// Transition handles the lifecycle sub-routes: start, complete.
func (h *MaintenanceHandler) Transition(w http.ResponseWriter, r *http.Request, action string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	windowID, ok := MaintenanceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(windowID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMaintenanceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Transition", "principal_id", principal.UserID, "maintenance_id", windowID, "action", action)

	var window application.MaintenanceWindow
	var err error
	switch action {
	case "start":
		window, err = h.service.Start(r.Context(), principal, windowID)
	case "complete":
		window, err = h.service.Complete(r.Context(), principal, windowID)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "maintenance transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("state", window.State).InfoContext(r.Context(), "maintenance transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, maintenanceResponse{Maintenance: toMaintenanceDTO(window)})
}

type maintenanceRequest struct {
	ResourceID  string `json:"resource_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
}

func (r maintenanceRequest) toInput() (application.MaintenanceInput, error) {
	input := application.MaintenanceInput{
		ResourceID:  strings.TrimSpace(r.ResourceID),
		Description: strings.TrimSpace(r.Description),
	}

	if trimmed := strings.TrimSpace(r.Start); trimmed != "" {
		start, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return application.MaintenanceInput{}, errors.New("start must be an RFC 3339 timestamp")
		}
		input.Start = start
	}
	if trimmed := strings.TrimSpace(r.End); trimmed != "" {
		end, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return application.MaintenanceInput{}, errors.New("end must be an RFC 3339 timestamp")
		}
		input.End = &end
	}

	return input, nil
}

type maintenanceResponse struct {
	Maintenance maintenanceDTO `json:"maintenance"`
}

type listMaintenanceResponse struct {
	Maintenance []maintenanceDTO `json:"maintenance"`
}

type maintenanceDTO struct {
	ID          string  `json:"id"`
	ResourceID  string  `json:"resource_id"`
	PerformerID string  `json:"performer_id"`
	Start       string  `json:"start"`
	End         *string `json:"end,omitempty"`
	State       string  `json:"state"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toMaintenanceDTO(window application.MaintenanceWindow) maintenanceDTO {
	dto := maintenanceDTO{
		ID:          window.ID,
		ResourceID:  window.ResourceID,
		PerformerID: window.PerformerID,
		Start:       window.Start.UTC().Format(time.RFC3339Nano),
		State:       string(window.State),
		Description: window.Description,
		CreatedAt:   window.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   window.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if window.End != nil {
		end := window.End.UTC().Format(time.RFC3339Nano)
		dto.End = &end
	}
	return dto
}

func toMaintenanceDTOs(windows []application.MaintenanceWindow) []maintenanceDTO {
	if len(windows) == 0 {
		return nil
	}
	out := make([]maintenanceDTO, 0, len(windows))
	for _, window := range windows {
		out = append(out, toMaintenanceDTO(window))
	}
	return out
}
