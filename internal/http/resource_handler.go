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

type resourceService interface {
	Create(ctx context.Context, params application.CreateResourceParams) (application.Resource, error)
	Update(ctx context.Context, params application.UpdateResourceParams) (application.Resource, error)
	Get(ctx context.Context, resourceID string) (application.Resource, error)
	List(ctx context.Context) ([]application.Resource, error)
	Delete(ctx context.Context, principal application.Principal, resourceID string) error
	SetState(ctx context.Context, params application.SetResourceStateParams) (application.Resource, error)
	SetBookable(ctx context.Context, params application.SetResourceBookableParams) (application.Resource, error)
}

type availabilityService interface {
	CheckCached(ctx context.Context, params application.CheckAvailabilityParams) (application.Availability, error)
}

type ResourceHandler struct {
	service      resourceService
	availability availabilityService
	responder    responder
	logger       *slog.Logger
}

func NewResourceHandler(service resourceService, availability availabilityService, logger *slog.Logger) *ResourceHandler {
	base := defaultLogger(logger)
	return &ResourceHandler{service: service, availability: availability, responder: newResponder(base), logger: base}
}

func (h *ResourceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ResourceHandler", operation, attrs...)
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode resource request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	resource, err := h.service.Create(r.Context(), application.CreateResourceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("resource_id", resource.ID).InfoContext(r.Context(), "resource created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "resource_id", resourceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode resource update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "resource_id", resourceID)

	resource, err := h.service.Update(r.Context(), application.UpdateResourceParams{
		Principal:  principal,
		ResourceID: resourceID,
		Input:      req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	resource, err := h.service.Get(r.Context(), resourceID)
	if err != nil {
		h.log(r.Context(), "Get", "resource_id", resourceID).ErrorContext(r.Context(), "resource fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "resource_id", resourceID)
	if err := h.service.Delete(r.Context(), principal, resourceID); err != nil {
		logger.ErrorContext(r.Context(), "resource delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	resources, err := h.service.List(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "resource list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(resources)).InfoContext(r.Context(), "resources listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{Resources: toResourceDTOs(resources)})
}

// SetState handles PUT /resources/{id}/state.
func (h *ResourceHandler) SetState(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetState", "principal_id", principal.UserID, "resource_id", resourceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode state request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetState", "principal_id", principal.UserID, "resource_id", resourceID, "state", req.State)

	resource, err := h.service.SetState(r.Context(), application.SetResourceStateParams{
		Principal:  principal,
		ResourceID: resourceID,
		State:      application.ResourceState(strings.TrimSpace(strings.ToLower(req.State))),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource state change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource state changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

// SetBookable handles PUT /resources/{id}/bookable.
func (h *ResourceHandler) SetBookable(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceBookableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetBookable", "principal_id", principal.UserID, "resource_id", resourceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode bookable request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetBookable", "principal_id", principal.UserID, "resource_id", resourceID, "bookable", req.Bookable)

	resource, err := h.service.SetBookable(r.Context(), application.SetResourceBookableParams{
		Principal:  principal,
		ResourceID: resourceID,
		Bookable:   req.Bookable,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "bookable change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "bookable flag changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

// Availability handles GET /resources/{id}/availability with start and end
// query parameters in RFC 3339.
func (h *ResourceHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.availability == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	query := r.URL.Query()
	start, err := time.Parse(time.RFC3339, query.Get("start"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("start must be an RFC 3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339, query.Get("end"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("end must be an RFC 3339 timestamp"))
		return
	}

	params := application.CheckAvailabilityParams{
		ResourceID: resourceID,
		Start:      start,
		End:        end,
	}
	if exclude := strings.TrimSpace(query.Get("exclude_reservation_id")); exclude != "" {
		params.ExcludeReservationID = &exclude
	}

	logger := h.log(r.Context(), "Availability", "resource_id", resourceID)

	verdict, err := h.availability.CheckCached(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("available", verdict.Available, "reason", verdict.Reason).InfoContext(r.Context(), "availability checked")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAvailabilityDTO(verdict))
}

type resourceRequest struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Location string `json:"location"`
}

func (r resourceRequest) toInput() application.ResourceInput {
	return application.ResourceInput{
		Name:     strings.TrimSpace(r.Name),
		Kind:     strings.TrimSpace(r.Kind),
		Location: strings.TrimSpace(r.Location),
	}
}

type resourceStateRequest struct {
	State string `json:"state"`
}

type resourceBookableRequest struct {
	Bookable bool `json:"bookable"`
}

type resourceResponse struct {
	Resource resourceDTO `json:"resource"`
}

type listResourcesResponse struct {
	Resources []resourceDTO `json:"resources"`
}

type resourceDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Location  string `json:"location"`
	State     string `json:"state"`
	Bookable  bool   `json:"bookable"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toResourceDTO(resource application.Resource) resourceDTO {
	return resourceDTO{
		ID:        resource.ID,
		Name:      resource.Name,
		Kind:      resource.Kind,
		Location:  resource.Location,
		State:     string(resource.State),
		Bookable:  resource.Bookable,
		CreatedAt: resource.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: resource.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toResourceDTOs(resources []application.Resource) []resourceDTO {
	if len(resources) == 0 {
		return nil
	}
	out := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		out = append(out, toResourceDTO(resource))
	}
	return out
}

type availabilityDTO struct {
	Available bool            `json:"available"`
	Reason    string          `json:"reason"`
	Conflicts *conflictDetail `json:"conflicts,omitempty"`
}

func toAvailabilityDTO(verdict application.Availability) availabilityDTO {
	dto := availabilityDTO{
		Available: verdict.Available,
		Reason:    string(verdict.Reason),
	}
	if len(verdict.ConflictingReservations) > 0 || len(verdict.ConflictingMaintenance) > 0 {
		dto.Conflicts = toConflictDetail(&application.ConflictError{
			Reservations: verdict.ConflictingReservations,
			Maintenance:  verdict.ConflictingMaintenance,
		})
	}
	return dto
}
