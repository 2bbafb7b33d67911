package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/resource-booking/internal/persistence"
)

// ResourceRepository captures the persistence interactions needed by the
// resource service.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) (Resource, error)
	GetResource(ctx context.Context, id string) (Resource, error)
	UpdateResource(ctx context.Context, resource Resource) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
	DeleteResource(ctx context.Context, id string) error

	// ApplyStateCascade persists the resource update, the cancellation of
	// the supplied reservations, and the notification records in a single
	// transaction.
	ApplyStateCascade(ctx context.Context, resource Resource, cancelled []Reservation, notifications []Notification) error
}

var resourceKinds = map[string]struct{}{
	"room":      {},
	"equipment": {},
	"digital":   {},
}

// ResourceService manages the resource catalog and the state transitions
// that pull a resource out of the bookable pool.
type ResourceService struct {
	resources    ResourceRepository
	reservations ReservationLister
	availability *AvailabilityService
	notifier     *NotificationService
	locks        *ResourceLockSet
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewResourceService wires dependencies for resource operations. The lock set
// must be shared with the reservation service so state cascades and
// reservation writes on the same resource serialize.
func NewResourceService(resources ResourceRepository, reservations ReservationLister, availability *AvailabilityService, notifier *NotificationService, locks *ResourceLockSet, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ResourceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = NewResourceLockSet()
	}
	return &ResourceService{
		resources:    resources,
		reservations: reservations,
		availability: availability,
		notifier:     notifier,
		locks:        locks,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ResourceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ResourceService", operation, attrs...)
}

// Create validates input and persists a new resource for privileged users.
// New resources start available and bookable.
func (s *ResourceService) Create(ctx context.Context, params CreateResourceParams) (Resource, error) {
	if s == nil {
		return Resource{}, fmt.Errorf("ResourceService is nil")
	}
	if !params.Principal.Privileged() {
		return Resource{}, ErrUnauthorized
	}

	normalized := normalizeResourceInput(params.Input)
	if vErr := validateResourceInput(normalized); vErr.HasErrors() {
		return Resource{}, vErr
	}

	now := s.now()
	resource := Resource{
		ID:        s.idGenerator(),
		Name:      normalized.Name,
		Kind:      normalized.Kind,
		Location:  normalized.Location,
		State:     ResourceAvailable,
		Bookable:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.resources == nil {
		return resource, nil
	}

	persisted, err := s.resources.CreateResource(ctx, resource)
	if err != nil {
		return Resource{}, mapResourceRepoError(err)
	}
	return persisted, nil
}

// Update replaces the descriptive fields of a resource for privileged users.
func (s *ResourceService) Update(ctx context.Context, params UpdateResourceParams) (Resource, error) {
	if s == nil {
		return Resource{}, fmt.Errorf("ResourceService is nil")
	}
	if !params.Principal.Privileged() {
		return Resource{}, ErrUnauthorized
	}
	if s.resources == nil {
		return Resource{}, fmt.Errorf("resource repository not configured")
	}

	existing, err := s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		return Resource{}, mapResourceRepoError(err)
	}

	normalized := normalizeResourceInput(params.Input)
	if vErr := validateResourceInput(normalized); vErr.HasErrors() {
		return Resource{}, vErr
	}

	updated := existing
	updated.Name = normalized.Name
	updated.Kind = normalized.Kind
	updated.Location = normalized.Location
	updated.UpdatedAt = s.now()

	persisted, err := s.resources.UpdateResource(ctx, updated)
	if err != nil {
		return Resource{}, mapResourceRepoError(err)
	}
	return persisted, nil
}

// Get returns a single resource.
func (s *ResourceService) Get(ctx context.Context, resourceID string) (Resource, error) {
	if s == nil {
		return Resource{}, fmt.Errorf("ResourceService is nil")
	}
	if s.resources == nil {
		return Resource{}, fmt.Errorf("resource repository not configured")
	}

	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return Resource{}, mapResourceRepoError(err)
	}
	return resource, nil
}

// GetResource satisfies ResourceReader for the availability and reservation
// services.
func (s *ResourceService) GetResource(ctx context.Context, resourceID string) (Resource, error) {
	return s.Get(ctx, resourceID)
}

// List returns all resources ordered by name.
func (s *ResourceService) List(ctx context.Context) ([]Resource, error) {
	if s == nil {
		return nil, fmt.Errorf("ResourceService is nil")
	}
	if s.resources == nil {
		return nil, nil
	}

	resources, err := s.resources.ListResources(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Resource, len(resources))
	copy(out, resources)
	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Name, out[j].Name) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Delete removes a resource for privileged users. Foreign keys reject the
// deletion while reservations or maintenance windows still reference it.
func (s *ResourceService) Delete(ctx context.Context, principal Principal, resourceID string) error {
	if s == nil {
		return fmt.Errorf("ResourceService is nil")
	}
	if !principal.Privileged() {
		return ErrUnauthorized
	}
	if s.resources == nil {
		return fmt.Errorf("resource repository not configured")
	}

	if err := s.resources.DeleteResource(ctx, resourceID); err != nil {
		if errors.Is(err, persistence.ErrForeignKeyViolation) {
			return &StateError{Entity: "resource", State: "in_use", Operation: "delete"}
		}
		return mapResourceRepoError(err)
	}

	s.availability.Invalidate(resourceID)
	return nil
}

// SetState transitions a resource's lifecycle state for privileged users.
// Transitions into maintenance, damaged, or retired cascade onto upcoming
// reservations.
func (s *ResourceService) SetState(ctx context.Context, params SetResourceStateParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetState",
		"resource_id", params.ResourceID,
		"state", params.State,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "resource state change failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource state changed")
	}()

	if !params.Principal.Privileged() {
		err = &AuthorizationError{Entity: "resource", Operation: "change state"}
		return
	}

	switch params.State {
	case ResourceAvailable, ResourceMaintenance, ResourceDamaged, ResourceRetired:
	default:
		vErr := &ValidationError{}
		vErr.add("state", "unknown resource state")
		err = vErr
		return
	}

	var existing Resource
	existing, err = s.Get(ctx, params.ResourceID)
	if err != nil {
		return
	}
	if existing.State == params.State {
		resource = existing
		return
	}

	resource, err = s.ForceState(ctx, params.ResourceID, params.State, existing.Bookable)
	return
}

// SetBookable flips the bookable flag for privileged users. Turning the flag
// off cascades onto upcoming reservations.
func (s *ResourceService) SetBookable(ctx context.Context, params SetResourceBookableParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetBookable",
		"resource_id", params.ResourceID,
		"bookable", params.Bookable,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "bookable change failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "bookable flag changed")
	}()

	if !params.Principal.Privileged() {
		err = &AuthorizationError{Entity: "resource", Operation: "change bookable flag"}
		return
	}

	var existing Resource
	existing, err = s.Get(ctx, params.ResourceID)
	if err != nil {
		return
	}
	if existing.Bookable == params.Bookable {
		resource = existing
		return
	}

	resource, err = s.ForceState(ctx, params.ResourceID, existing.State, params.Bookable)
	return
}

// ForceState applies a state and bookable combination without an
// authorization check; the maintenance service drives it when windows open
// and close. Transitions that make the resource unavailable cancel every
// upcoming active reservation and record one notification per affected
// owner, all inside one transaction. The resource lock is held from the
// enumeration to the commit so no reservation slips in between.
func (s *ResourceService) ForceState(ctx context.Context, resourceID string, state ResourceState, bookable bool) (Resource, error) {
	if s == nil {
		return Resource{}, fmt.Errorf("ResourceService is nil")
	}
	if s.resources == nil {
		return Resource{}, fmt.Errorf("resource repository not configured")
	}

	unlock := s.locks.Lock(resourceID)
	defer unlock()

	existing, err := s.Get(ctx, resourceID)
	if err != nil {
		return Resource{}, err
	}

	now := s.now()
	updated := existing
	updated.State = state
	updated.Bookable = bookable
	updated.UpdatedAt = now

	becameUnavailable := existing.Offerable() && !updated.Offerable()
	if !becameUnavailable {
		persisted, err := s.resources.UpdateResource(ctx, updated)
		if err != nil {
			return Resource{}, mapResourceRepoError(err)
		}
		s.availability.Invalidate(resourceID)
		return persisted, nil
	}

	cancelled, err := s.upcomingActiveReservations(ctx, resourceID, now)
	if err != nil {
		return Resource{}, err
	}
	for i := range cancelled {
		cancelled[i].State = ReservationCancelled
		cancelled[i].UpdatedAt = now
	}

	notifications := s.notifier.ComposeResourceUnavailable(updated, cancelled)

	if err := s.resources.ApplyStateCascade(ctx, updated, cancelled, notifications); err != nil {
		return Resource{}, mapResourceRepoError(err)
	}

	s.availability.Invalidate(resourceID)
	s.loggerWith(ctx, "ForceState", "resource_id", resourceID).InfoContext(ctx, "resource cascade applied",
		"state", state,
		"bookable", bookable,
		"cancelled", len(cancelled),
		"notified", len(notifications),
	)
	return updated, nil
}

func (s *ResourceService) upcomingActiveReservations(ctx context.Context, resourceID string, now time.Time) ([]Reservation, error) {
	if s.reservations == nil {
		return nil, nil
	}

	reservations, err := s.reservations.ListReservations(ctx, ReservationRepositoryFilter{
		ResourceID:  resourceID,
		States:      []ReservationState{ReservationPending, ReservationConfirmed},
		StartsAfter: &now,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return reservations, nil
}

func normalizeResourceInput(input ResourceInput) ResourceInput {
	return ResourceInput{
		Name:     strings.TrimSpace(input.Name),
		Kind:     strings.ToLower(strings.TrimSpace(input.Kind)),
		Location: strings.TrimSpace(input.Location),
	}
}

func validateResourceInput(input ResourceInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Kind == "" {
		vErr.add("kind", "kind is required")
	} else if _, ok := resourceKinds[input.Kind]; !ok {
		vErr.add("kind", "kind must be room, equipment, or digital")
	}

	return vErr
}

func mapResourceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return &NotFoundError{Entity: "resource"}
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
