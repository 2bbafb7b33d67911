package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MaintenanceRepository captures the persistence interactions needed by the
// maintenance service.
type MaintenanceRepository interface {
	CreateMaintenanceWindow(ctx context.Context, window MaintenanceWindow) (MaintenanceWindow, error)
	GetMaintenanceWindow(ctx context.Context, id string) (MaintenanceWindow, error)
	UpdateMaintenanceWindow(ctx context.Context, window MaintenanceWindow) (MaintenanceWindow, error)
	ListMaintenanceWindows(ctx context.Context, filter MaintenanceRepositoryFilter) ([]MaintenanceWindow, error)
}

// MaintenanceRepositoryFilter narrows queries issued to the maintenance
// repository.
type MaintenanceRepositoryFilter struct {
	ResourceID string
	States     []MaintenanceState
}

// ResourceCascade exposes the resource transitions the maintenance lifecycle
// drives.
type ResourceCascade interface {
	GetResource(ctx context.Context, id string) (Resource, error)
	ForceState(ctx context.Context, resourceID string, state ResourceState, bookable bool) (Resource, error)
}

// MaintenanceService manages maintenance windows and keeps the owning
// resource's state in step with them.
type MaintenanceService struct {
	windows     MaintenanceRepository
	resources   ResourceCascade
	notifier    *NotificationService
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMaintenanceService wires dependencies for maintenance operations.
func NewMaintenanceService(windows MaintenanceRepository, resources ResourceCascade, notifier *NotificationService, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MaintenanceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MaintenanceService{
		windows:     windows,
		resources:   resources,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *MaintenanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MaintenanceService", operation, attrs...)
}

// Schedule creates a pending maintenance window and moves the resource into
// the maintenance state, cancelling upcoming reservations via the cascade.
// Privileged principals only.
func (s *MaintenanceService) Schedule(ctx context.Context, params ScheduleMaintenanceParams) (window MaintenanceWindow, err error) {
	if s == nil {
		err = fmt.Errorf("MaintenanceService is nil")
		return
	}
	if s.windows == nil {
		err = fmt.Errorf("maintenance repository not configured")
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource cascade not configured")
		return
	}

	principal := params.Principal
	input := params.Input

	logger := s.loggerWith(ctx, "Schedule",
		"resource_id", input.ResourceID,
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "maintenance scheduling failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("maintenance_id", window.ID).InfoContext(ctx, "maintenance scheduled")
	}()

	if !principal.Privileged() {
		err = &AuthorizationError{Entity: "maintenance window", Operation: "schedule"}
		return
	}

	if vErr := validateMaintenanceInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	var resource Resource
	resource, err = s.resources.GetResource(ctx, input.ResourceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = &NotFoundError{Entity: "resource", ID: input.ResourceID}
		}
		return
	}
	if resource.State == ResourceRetired {
		err = &StateError{Entity: "resource", State: string(resource.State), Operation: "schedule maintenance"}
		return
	}

	// An open window implies the resource is in maintenance, so the state
	// transition commits before the window does.
	transitioned := false
	if resource.State != ResourceMaintenance {
		if _, err = s.resources.ForceState(ctx, input.ResourceID, ResourceMaintenance, resource.Bookable); err != nil {
			return
		}
		transitioned = true
	}

	now := s.now()
	window = MaintenanceWindow{
		ID:          s.idGenerator(),
		ResourceID:  input.ResourceID,
		PerformerID: principal.UserID,
		Start:       input.Start,
		End:         copyTimePtr(input.End),
		State:       MaintenancePending,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	window, err = s.windows.CreateMaintenanceWindow(ctx, window)
	if err != nil {
		if transitioned {
			if _, revertErr := s.resources.ForceState(ctx, input.ResourceID, resource.State, resource.Bookable); revertErr != nil {
				logger.ErrorContext(ctx, "failed to restore resource state after window creation failure", "error", revertErr)
			}
		}
		return
	}

	s.notifier.Publish(ctx, MaintenanceScheduled{
		Window:       window,
		ResourceName: resource.Name,
		ActorID:      principal.UserID,
	})
	return
}

// Start moves a pending window to in_progress. Privileged principals only.
func (s *MaintenanceService) Start(ctx context.Context, principal Principal, windowID string) (window MaintenanceWindow, err error) {
	if s == nil {
		err = fmt.Errorf("MaintenanceService is nil")
		return
	}
	if s.windows == nil {
		err = fmt.Errorf("maintenance repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Start", "maintenance_id", windowID, "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "maintenance start failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "maintenance started")
	}()

	if !principal.Privileged() {
		err = &AuthorizationError{Entity: "maintenance window", Operation: "start"}
		return
	}

	var existing MaintenanceWindow
	existing, err = s.windows.GetMaintenanceWindow(ctx, windowID)
	if err != nil {
		err = mapMaintenanceRepoError(err)
		return
	}
	if existing.State != MaintenancePending {
		err = &StateError{Entity: "maintenance window", State: string(existing.State), Operation: "start"}
		return
	}

	updated := existing
	updated.State = MaintenanceInProgress
	updated.UpdatedAt = s.now()

	window, err = s.windows.UpdateMaintenanceWindow(ctx, updated)
	if err != nil {
		err = mapMaintenanceRepoError(err)
	}
	return
}

// Complete closes a pending or in-progress window, stamps its end when it
// was open-ended, and returns the resource to available and bookable.
// Privileged principals only.
func (s *MaintenanceService) Complete(ctx context.Context, principal Principal, windowID string) (window MaintenanceWindow, err error) {
	if s == nil {
		err = fmt.Errorf("MaintenanceService is nil")
		return
	}
	if s.windows == nil {
		err = fmt.Errorf("maintenance repository not configured")
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource cascade not configured")
		return
	}

	logger := s.loggerWith(ctx, "Complete", "maintenance_id", windowID, "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "maintenance completion failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "maintenance completed")
	}()

	if !principal.Privileged() {
		err = &AuthorizationError{Entity: "maintenance window", Operation: "complete"}
		return
	}

	var existing MaintenanceWindow
	existing, err = s.windows.GetMaintenanceWindow(ctx, windowID)
	if err != nil {
		err = mapMaintenanceRepoError(err)
		return
	}
	if existing.State == MaintenanceCompleted {
		err = &StateError{Entity: "maintenance window", State: string(existing.State), Operation: "complete"}
		return
	}

	now := s.now()
	updated := existing
	updated.State = MaintenanceCompleted
	if updated.End == nil {
		end := now
		updated.End = &end
	}
	updated.UpdatedAt = now

	window, err = s.windows.UpdateMaintenanceWindow(ctx, updated)
	if err != nil {
		err = mapMaintenanceRepoError(err)
		return
	}

	open, err := s.openWindowsRemain(ctx, window.ResourceID, window.ID)
	if err != nil {
		return
	}
	if !open {
		if _, err = s.resources.ForceState(ctx, window.ResourceID, ResourceAvailable, true); err != nil {
			return
		}
	}
	return
}

// Get returns a single maintenance window.
func (s *MaintenanceService) Get(ctx context.Context, windowID string) (MaintenanceWindow, error) {
	if s == nil {
		return MaintenanceWindow{}, fmt.Errorf("MaintenanceService is nil")
	}
	if s.windows == nil {
		return MaintenanceWindow{}, fmt.Errorf("maintenance repository not configured")
	}

	window, err := s.windows.GetMaintenanceWindow(ctx, windowID)
	if err != nil {
		return MaintenanceWindow{}, mapMaintenanceRepoError(err)
	}
	return window, nil
}

// List enumerates maintenance windows, optionally filtered by resource.
func (s *MaintenanceService) List(ctx context.Context, resourceID string) ([]MaintenanceWindow, error) {
	if s == nil {
		return nil, fmt.Errorf("MaintenanceService is nil")
	}
	if s.windows == nil {
		return nil, nil
	}

	windows, err := s.windows.ListMaintenanceWindows(ctx, MaintenanceRepositoryFilter{ResourceID: resourceID})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return windows, nil
}

// openWindowsRemain reports whether another pending or in-progress window
// still holds the resource in maintenance.
func (s *MaintenanceService) openWindowsRemain(ctx context.Context, resourceID, excludeID string) (bool, error) {
	windows, err := s.windows.ListMaintenanceWindows(ctx, MaintenanceRepositoryFilter{
		ResourceID: resourceID,
		States:     []MaintenanceState{MaintenancePending, MaintenanceInProgress},
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, window := range windows {
		if window.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func validateMaintenanceInput(input MaintenanceInput) *ValidationError {
	vErr := &ValidationError{}

	if input.ResourceID == "" {
		vErr.add("resource_id", "resource is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End != nil && !input.Start.IsZero() && !input.Start.Before(*input.End) {
		vErr.add("time", "start must be before end")
	}
	if strings.TrimSpace(input.Description) == "" {
		vErr.add("description", "description is required")
	}

	return vErr
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}

func mapMaintenanceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return &NotFoundError{Entity: "maintenance window"}
	}
	return err
}
