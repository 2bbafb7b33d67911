package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/resource-booking/internal/persistence"
)

// GracePeriod is how long a reporter may amend their own incident after
// filing it.
const GracePeriod = 5 * time.Minute

// IncidentRepository captures the persistence interactions needed by the
// incident service.
type IncidentRepository interface {
	CreateIncident(ctx context.Context, incident Incident) (Incident, error)
	GetIncident(ctx context.Context, id string) (Incident, error)
	// UpdateIncident persists the incident only when the stored version
	// equals expectedVersion.
	UpdateIncident(ctx context.Context, incident Incident, expectedVersion int64) (Incident, error)
	ListIncidents(ctx context.Context, filter IncidentRepositoryFilter) ([]Incident, error)
	DeleteIncident(ctx context.Context, id string) error
}

// IncidentRepositoryFilter narrows queries issued to the incident
// repository.
type IncidentRepositoryFilter struct {
	ResourceID string
	ReporterID string
	States     []IncidentState
}

// ReservationReader exposes the reservation lookup needed when an incident
// is filed.
type ReservationReader interface {
	GetReservation(ctx context.Context, id string) (Reservation, error)
}

var incidentStateOrder = map[IncidentState]int{
	IncidentReported:   0,
	IncidentInReview:   1,
	IncidentInProgress: 2,
	IncidentResolved:   3,
	IncidentClosed:     4,
}

var incidentPriorities = map[IncidentPriority]struct{}{
	PriorityLow:      {},
	PriorityMedium:   {},
	PriorityHigh:     {},
	PriorityCritical: {},
}

// IncidentService manages problem reports filed against resources. Reporters
// get a short grace window to amend their own reports; privileged users
// drive the lifecycle.
type IncidentService struct {
	incidents    IncidentRepository
	reservations ReservationReader
	resources    ResourceReader
	notifier     *NotificationService
	gracePeriod  time.Duration
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewIncidentService wires dependencies for incident operations. A
// non-positive gracePeriod falls back to GracePeriod.
func NewIncidentService(incidents IncidentRepository, reservations ReservationReader, resources ResourceReader, notifier *NotificationService, gracePeriod time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *IncidentService {
	if gracePeriod <= 0 {
		gracePeriod = GracePeriod
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &IncidentService{
		incidents:    incidents,
		reservations: reservations,
		resources:    resources,
		notifier:     notifier,
		gracePeriod:  gracePeriod,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *IncidentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "IncidentService", operation, attrs...)
}

// Report files a new incident against a reservation the principal owns.
func (s *IncidentService) Report(ctx context.Context, params ReportIncidentParams) (incident Incident, err error) {
	if s == nil {
		err = fmt.Errorf("IncidentService is nil")
		return
	}
	if s.incidents == nil {
		err = fmt.Errorf("incident repository not configured")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation reader not configured")
		return
	}

	principal := params.Principal
	input := params.Input

	logger := s.loggerWith(ctx, "Report",
		"reservation_id", input.ReservationID,
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "incident report failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("incident_id", incident.ID).InfoContext(ctx, "incident reported")
	}()

	if vErr := validateIncidentInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	var reservation Reservation
	reservation, err = s.reservations.GetReservation(ctx, input.ReservationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			err = &NotFoundError{Entity: "reservation", ID: input.ReservationID}
		}
		return
	}
	if reservation.RequesterID != principal.UserID {
		err = &AuthorizationError{Entity: "incident", Operation: "report against another user's reservation"}
		return
	}

	now := s.now()
	incident = Incident{
		ID:            s.idGenerator(),
		ResourceID:    reservation.ResourceID,
		ReporterID:    principal.UserID,
		ReservationID: reservation.ID,
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Priority:      input.Priority,
		State:         IncidentReported,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	incident, err = s.incidents.CreateIncident(ctx, incident)
	return
}

// Edit applies the requested field changes after running the grace-period
// authorizer and the optimistic version check.
func (s *IncidentService) Edit(ctx context.Context, params EditIncidentParams) (incident Incident, err error) {
	if s == nil {
		err = fmt.Errorf("IncidentService is nil")
		return
	}
	if s.incidents == nil {
		err = fmt.Errorf("incident repository not configured")
		return
	}

	principal := params.Principal

	logger := s.loggerWith(ctx, "Edit",
		"incident_id", params.IncidentID,
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "incident edit failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "incident edited")
	}()

	var existing Incident
	existing, err = s.incidents.GetIncident(ctx, params.IncidentID)
	if err != nil {
		err = mapIncidentRepoError(err)
		return
	}

	if err = s.authorizeEdit(existing, principal, params.Edit, s.now()); err != nil {
		return
	}

	if vErr := validateIncidentEdit(existing, params.Edit); vErr.HasErrors() {
		err = vErr
		return
	}

	stateChanged := false
	updated := existing
	if params.Edit.Title != nil {
		updated.Title = strings.TrimSpace(*params.Edit.Title)
	}
	if params.Edit.Description != nil {
		updated.Description = strings.TrimSpace(*params.Edit.Description)
	}
	if params.Edit.Priority != nil {
		updated.Priority = *params.Edit.Priority
	}
	if params.Edit.ResolverNotes != nil {
		updated.ResolverNotes = strings.TrimSpace(*params.Edit.ResolverNotes)
	}
	if params.Edit.State != nil && *params.Edit.State != existing.State {
		updated.State = *params.Edit.State
		resolverID := principal.UserID
		updated.ResolverID = &resolverID
		stateChanged = true
	}
	updated.UpdatedAt = s.now()

	incident, err = s.incidents.UpdateIncident(ctx, updated, params.Version)
	if err != nil {
		err = mapIncidentRepoError(err)
		return
	}

	if stateChanged {
		s.notifier.Publish(ctx, IncidentStateChanged{
			Incident:     incident,
			ResourceName: s.resourceName(ctx, incident.ResourceID),
		})
	}
	return
}

// Delete removes an incident. Privileged principals only.
func (s *IncidentService) Delete(ctx context.Context, principal Principal, incidentID string) error {
	if s == nil {
		return fmt.Errorf("IncidentService is nil")
	}
	if s.incidents == nil {
		return fmt.Errorf("incident repository not configured")
	}
	if !principal.Privileged() {
		return &AuthorizationError{Entity: "incident", Operation: "delete"}
	}

	if err := s.incidents.DeleteIncident(ctx, incidentID); err != nil {
		return mapIncidentRepoError(err)
	}
	return nil
}

// Get returns an incident visible to the principal.
func (s *IncidentService) Get(ctx context.Context, principal Principal, incidentID string) (Incident, error) {
	if s == nil {
		return Incident{}, fmt.Errorf("IncidentService is nil")
	}
	if s.incidents == nil {
		return Incident{}, fmt.Errorf("incident repository not configured")
	}

	incident, err := s.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return Incident{}, mapIncidentRepoError(err)
	}
	if incident.ReporterID != principal.UserID && !principal.Privileged() {
		return Incident{}, &AuthorizationError{Entity: "incident", Operation: "view"}
	}
	return incident, nil
}

// List enumerates incidents. Non-privileged principals only see their own
// reports.
func (s *IncidentService) List(ctx context.Context, principal Principal, resourceID string) ([]Incident, error) {
	if s == nil {
		return nil, fmt.Errorf("IncidentService is nil")
	}
	if s.incidents == nil {
		return nil, nil
	}

	filter := IncidentRepositoryFilter{ResourceID: resourceID}
	if !principal.Privileged() {
		filter.ReporterID = principal.UserID
	}

	incidents, err := s.incidents.ListIncidents(ctx, filter)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return incidents, nil
}

// authorizeEdit decides whether the principal may apply the edit right now.
// Privileged principals may always edit. Reporters may amend title,
// description, and priority of their own incident within the grace period.
func (s *IncidentService) authorizeEdit(incident Incident, principal Principal, edit IncidentEdit, now time.Time) error {
	if principal.Privileged() {
		return nil
	}
	if incident.ReporterID != principal.UserID {
		return &AuthorizationError{Entity: "incident", Operation: "edit"}
	}

	deadline := incident.CreatedAt.Add(s.gracePeriod)
	if now.After(deadline) {
		return &TimingError{Rule: "incident grace period has elapsed", Instant: now, Deadline: deadline}
	}

	if edit.State != nil || edit.ResolverNotes != nil {
		return &StateError{Entity: "incident", State: string(incident.State), Operation: "change restricted fields"}
	}
	return nil
}

func validateIncidentInput(input IncidentInput) *ValidationError {
	vErr := &ValidationError{}

	if input.ReservationID == "" {
		vErr.add("reservation_id", "reservation is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if _, ok := incidentPriorities[input.Priority]; !ok {
		vErr.add("priority", "priority must be low, medium, high, or critical")
	}

	return vErr
}

// validateIncidentEdit checks field values and enforces the forward-only
// state machine: state may advance or jump to closed, never move back.
func validateIncidentEdit(existing Incident, edit IncidentEdit) *ValidationError {
	vErr := &ValidationError{}

	if edit.Title != nil && strings.TrimSpace(*edit.Title) == "" {
		vErr.add("title", "title is required")
	}
	if edit.Priority != nil {
		if _, ok := incidentPriorities[*edit.Priority]; !ok {
			vErr.add("priority", "priority must be low, medium, high, or critical")
		}
	}
	if edit.State != nil {
		next, ok := incidentStateOrder[*edit.State]
		if !ok {
			vErr.add("state", "unknown incident state")
		} else if next < incidentStateOrder[existing.State] && *edit.State != IncidentClosed {
			vErr.add("state", "incident state can only move forward or to closed")
		}
	}

	return vErr
}

func (s *IncidentService) resourceName(ctx context.Context, resourceID string) string {
	if s.resources == nil {
		return ""
	}
	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return ""
	}
	return resource.Name
}

func mapIncidentRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return &NotFoundError{Entity: "incident"}
	}
	if errors.Is(err, persistence.ErrVersionMismatch) {
		return &ConflictError{StaleVersion: true}
	}
	return err
}
