package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/resource-booking/internal/application"
)

type incidentService interface {
	Report(ctx context.Context, params application.ReportIncidentParams) (application.Incident, error)
	Edit(ctx context.Context, params application.EditIncidentParams) (application.Incident, error)
	Delete(ctx context.Context, principal application.Principal, incidentID string) error
	Get(ctx context.Context, principal application.Principal, incidentID string) (application.Incident, error)
	List(ctx context.Context, principal application.Principal, resourceID string) ([]application.Incident, error)
}

type IncidentHandler struct {
	service   incidentService
	responder responder
	logger    *slog.Logger
}

func NewIncidentHandler(service incidentService, logger *slog.Logger) *IncidentHandler {
	base := defaultLogger(logger)
	return &IncidentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *IncidentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "IncidentHandler", operation, attrs...)
}

func (h *IncidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req incidentReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode incident report", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "reservation_id", req.ReservationID)

	incident, err := h.service.Report(r.Context(), application.ReportIncidentParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "incident report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("incident_id", incident.ID).InfoContext(r.Context(), "incident reported")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, incidentResponse{Incident: toIncidentDTO(incident)})
}

func (h *IncidentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	incidentID, ok := IncidentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(incidentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIncidentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req incidentEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "incident_id", incidentID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode incident update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "incident_id", incidentID, "version", req.Version)

	incident, err := h.service.Edit(r.Context(), application.EditIncidentParams{
		Principal:  principal,
		IncidentID: incidentID,
		Version:    req.Version,
		Edit:       req.toEdit(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "incident update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("state", incident.State).InfoContext(r.Context(), "incident updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, incidentResponse{Incident: toIncidentDTO(incident)})
}

func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	incidentID, ok := IncidentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(incidentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIncidentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	incident, err := h.service.Get(r.Context(), principal, incidentID)
	if err != nil {
		h.log(r.Context(), "Get", "incident_id", incidentID).ErrorContext(r.Context(), "incident fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, incidentResponse{Incident: toIncidentDTO(incident)})
}

func (h *IncidentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	incidentID, ok := IncidentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(incidentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIncidentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "incident_id", incidentID)
	if err := h.service.Delete(r.Context(), principal, incidentID); err != nil {
		logger.ErrorContext(r.Context(), "incident delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "incident deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	resourceID := strings.TrimSpace(r.URL.Query().Get("resource_id"))
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	incidents, err := h.service.List(r.Context(), principal, resourceID)
	if err != nil {
		logger.ErrorContext(r.Context(), "incident list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(incidents)).InfoContext(r.Context(), "incidents listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listIncidentsResponse{Incidents: toIncidentDTOs(incidents)})
}

type incidentReportRequest struct {
	ReservationID string `json:"reservation_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
}

func (r incidentReportRequest) toInput() application.IncidentInput {
	return application.IncidentInput{
		ReservationID: strings.TrimSpace(r.ReservationID),
		Title:         strings.TrimSpace(r.Title),
		Description:   strings.TrimSpace(r.Description),
		Priority:      application.IncidentPriority(strings.TrimSpace(strings.ToLower(r.Priority))),
	}
}

// incidentEditRequest uses pointers so that absent fields stay untouched.
type incidentEditRequest struct {
	Version       int64   `json:"version"`
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Priority      *string `json:"priority"`
	State         *string `json:"state"`
	ResolverNotes *string `json:"resolver_notes"`
}

func (r incidentEditRequest) toEdit() application.IncidentEdit {
	edit := application.IncidentEdit{
		Title:         r.Title,
		Description:   r.Description,
		ResolverNotes: r.ResolverNotes,
	}
	if r.Priority != nil {
		priority := application.IncidentPriority(strings.TrimSpace(strings.ToLower(*r.Priority)))
		edit.Priority = &priority
	}
	if r.State != nil {
		state := application.IncidentState(strings.TrimSpace(strings.ToLower(*r.State)))
		edit.State = &state
	}
	return edit
}

type incidentResponse struct {
	Incident incidentDTO `json:"incident"`
}

type listIncidentsResponse struct {
	Incidents []incidentDTO `json:"incidents"`
}

type incidentDTO struct {
	ID            string  `json:"id"`
	ResourceID    string  `json:"resource_id"`
	ReporterID    string  `json:"reporter_id"`
	ReservationID string  `json:"reservation_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Priority      string  `json:"priority"`
	State         string  `json:"state"`
	ResolverNotes string  `json:"resolver_notes,omitempty"`
	ResolverID    *string `json:"resolver_id,omitempty"`
	Version       int64   `json:"version"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toIncidentDTO(incident application.Incident) incidentDTO {
	return incidentDTO{
		ID:            incident.ID,
		ResourceID:    incident.ResourceID,
		ReporterID:    incident.ReporterID,
		ReservationID: incident.ReservationID,
		Title:         incident.Title,
		Description:   incident.Description,
		Priority:      string(incident.Priority),
		State:         string(incident.State),
		ResolverNotes: incident.ResolverNotes,
		ResolverID:    incident.ResolverID,
		Version:       incident.Version,
		CreatedAt:     incident.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     incident.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toIncidentDTOs(incidents []application.Incident) []incidentDTO {
	if len(incidents) == 0 {
		return nil
	}
	out := make([]incidentDTO, 0, len(incidents))
	for _, incident := range incidents {
		out = append(out, toIncidentDTO(incident))
	}
	return out
}
