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

// ReservationRepository captures the persistence interactions needed by the
// reservation service.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	ListReservations(ctx context.Context, filter ReservationRepositoryFilter) ([]Reservation, error)
}

// ReservationRepositoryFilter narrows queries issued to the reservation
// repository.
type ReservationRepositoryFilter struct {
	ResourceID  string
	RequesterID string
	States      []ReservationState
	ExcludeID   string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ListReservationsParams wraps the data required to list reservations.
type ListReservationsParams struct {
	Principal   Principal
	ResourceID  string
	RequesterID string
	States      []ReservationState
}

// ReservationService orchestrates the reservation lifecycle: creation with
// conflict detection, edits, cancellation, approval, and completion.
type ReservationService struct {
	reservations ReservationRepository
	resources    ResourceReader
	availability *AvailabilityService
	notifier     *NotificationService
	locks        *ResourceLockSet
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService wires dependencies for reservation operations. The
// lock set must be the same instance the resource service cascades under; a
// nil set gets a private one, which is only safe when no cascade path exists.
func NewReservationService(reservations ReservationRepository, resources ResourceReader, availability *AvailabilityService, notifier *NotificationService, locks *ResourceLockSet, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = NewResourceLockSet()
	}
	return &ReservationService{
		reservations: reservations,
		resources:    resources,
		availability: availability,
		notifier:     notifier,
		locks:        locks,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// Create validates the request, checks availability under the resource lock,
// and persists the reservation. Privileged creators get a confirmed
// reservation; everyone else gets a pending one that privileged users are
// notified about.
func (s *ReservationService) Create(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	principal := params.Principal
	input := params.Input

	logger := s.loggerWith(ctx, "Create",
		"resource_id", input.ResourceID,
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "reservation creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID, "state", reservation.State).InfoContext(ctx, "reservation created")
	}()

	if input.RequesterID == "" {
		input.RequesterID = principal.UserID
	}
	if input.RequesterID != principal.UserID && !principal.Privileged() {
		err = ErrUnauthorized
		return
	}

	if vErr := validateReservationInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	if !principal.Privileged() && !input.Start.After(now) {
		err = &TimingError{Rule: "reservation must start in the future", Instant: now, Deadline: input.Start}
		return
	}

	var resource Resource
	resource, err = s.getResource(ctx, input.ResourceID)
	if err != nil {
		return
	}

	unlock := s.locks.Lock(input.ResourceID)
	defer unlock()

	if err = s.ensureAvailable(ctx, resource, CheckAvailabilityParams{
		ResourceID: input.ResourceID,
		Start:      input.Start,
		End:        input.End,
	}); err != nil {
		return
	}

	state := ReservationPending
	if principal.Privileged() {
		state = ReservationConfirmed
	}

	reservation = Reservation{
		ID:          s.idGenerator(),
		ResourceID:  input.ResourceID,
		RequesterID: input.RequesterID,
		Start:       input.Start,
		End:         input.End,
		Purpose:     strings.TrimSpace(input.Purpose),
		State:       state,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	reservation, err = s.reservations.CreateReservation(ctx, reservation)
	if err != nil {
		err = s.mapRepoError(err)
		return
	}

	s.availability.Invalidate(reservation.ResourceID)

	if state == ReservationPending {
		s.notifier.Publish(ctx, ReservationRequested{Reservation: reservation, ResourceName: resource.Name})
	}
	return
}

// Edit replaces the mutable fields of a pending or confirmed reservation.
// Interval or resource changes re-run the availability check excluding the
// reservation itself.
func (s *ReservationService) Edit(ctx context.Context, params EditReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	principal := params.Principal
	input := params.Input

	logger := s.loggerWith(ctx, "Edit",
		"reservation_id", params.ReservationID,
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "reservation edit failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation edited")
	}()

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = s.mapRepoError(err)
		return
	}

	if existing.RequesterID != principal.UserID && !principal.Privileged() {
		err = &AuthorizationError{Entity: "reservation", Operation: "edit"}
		return
	}
	if !existing.State.Active() {
		err = &StateError{Entity: "reservation", State: string(existing.State), Operation: "edit"}
		return
	}

	now := s.now()
	if !existing.Start.After(now) {
		err = &TimingError{Rule: "reservation has already started", Instant: now, Deadline: existing.Start}
		return
	}

	if input.ResourceID == "" {
		input.ResourceID = existing.ResourceID
	}
	if input.RequesterID == "" {
		input.RequesterID = existing.RequesterID
	}
	vErr := &ValidationError{}
	if input.RequesterID != existing.RequesterID {
		vErr.add("requester_id", "requester cannot be changed")
	}
	vErr.merge(validateReservationInput(input))
	if vErr.HasErrors() {
		err = vErr
		return
	}

	intervalChanged := input.ResourceID != existing.ResourceID ||
		!input.Start.Equal(existing.Start) || !input.End.Equal(existing.End)

	var resource Resource
	resource, err = s.getResource(ctx, input.ResourceID)
	if err != nil {
		return
	}

	if intervalChanged {
		unlock := s.locks.Lock(input.ResourceID)
		defer unlock()

		excluded := existing.ID
		if err = s.ensureAvailable(ctx, resource, CheckAvailabilityParams{
			ResourceID:           input.ResourceID,
			Start:                input.Start,
			End:                  input.End,
			ExcludeReservationID: &excluded,
		}); err != nil {
			return
		}
	}

	updated := existing
	updated.ResourceID = input.ResourceID
	updated.Start = input.Start
	updated.End = input.End
	updated.Purpose = strings.TrimSpace(input.Purpose)
	updated.UpdatedAt = now

	reservation, err = s.reservations.UpdateReservation(ctx, updated)
	if err != nil {
		err = s.mapRepoError(err)
		return
	}

	s.availability.Invalidate(existing.ResourceID)
	s.availability.Invalidate(reservation.ResourceID)

	if principal.UserID != reservation.RequesterID {
		s.notifier.Publish(ctx, ReservationModified{
			Reservation:  reservation,
			ResourceName: resource.Name,
			ActorID:      principal.UserID,
		})
	}
	return
}

// Cancel moves an active reservation to cancelled and notifies the
// counterpart of whoever cancelled it.
func (s *ReservationService) Cancel(ctx context.Context, principal Principal, reservationID string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Cancel",
		"reservation_id", reservationID,
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "reservation cancel failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		err = s.mapRepoError(err)
		return
	}

	if existing.RequesterID != principal.UserID && !principal.Privileged() {
		err = &AuthorizationError{Entity: "reservation", Operation: "cancel"}
		return
	}
	if !existing.State.Active() {
		err = &StateError{Entity: "reservation", State: string(existing.State), Operation: "cancel"}
		return
	}

	now := s.now()
	if !existing.End.After(now) {
		err = &TimingError{Rule: "reservation has already ended", Instant: now, Deadline: existing.End}
		return
	}

	updated := existing
	updated.State = ReservationCancelled
	updated.UpdatedAt = now

	reservation, err = s.reservations.UpdateReservation(ctx, updated)
	if err != nil {
		err = s.mapRepoError(err)
		return
	}

	s.availability.Invalidate(reservation.ResourceID)

	s.notifier.Publish(ctx, ReservationCancelledEvent{
		Reservation:  reservation,
		ResourceName: s.resourceName(ctx, reservation.ResourceID),
		ActorID:      principal.UserID,
	})
	return
}

// Confirm approves a pending reservation. Privileged principals only.
func (s *ReservationService) Confirm(ctx context.Context, principal Principal, reservationID string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Confirm",
		"reservation_id", reservationID,
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "reservation confirm failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation confirmed")
	}()

	if !principal.Privileged() {
		err = &AuthorizationError{Entity: "reservation", Operation: "confirm"}
		return
	}

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		err = s.mapRepoError(err)
		return
	}
	if existing.State != ReservationPending {
		err = &StateError{Entity: "reservation", State: string(existing.State), Operation: "confirm"}
		return
	}

	updated := existing
	updated.State = ReservationConfirmed
	updated.UpdatedAt = s.now()

	reservation, err = s.reservations.UpdateReservation(ctx, updated)
	if err != nil {
		err = s.mapRepoError(err)
		return
	}

	s.notifier.Publish(ctx, ReservationConfirmedEvent{
		Reservation:  reservation,
		ResourceName: s.resourceName(ctx, reservation.ResourceID),
	})
	return
}

// Complete marks a confirmed reservation as completed once its interval has
// elapsed. Privileged principals only.
func (s *ReservationService) Complete(ctx context.Context, principal Principal, reservationID string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Complete",
		"reservation_id", reservationID,
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "reservation complete failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation completed")
	}()

	if !principal.Privileged() {
		err = &AuthorizationError{Entity: "reservation", Operation: "complete"}
		return
	}

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		err = s.mapRepoError(err)
		return
	}
	if existing.State != ReservationConfirmed {
		err = &StateError{Entity: "reservation", State: string(existing.State), Operation: "complete"}
		return
	}

	now := s.now()
	if existing.End.After(now) {
		err = &TimingError{Rule: "reservation has not ended yet", Instant: now, Deadline: existing.End}
		return
	}

	updated := existing
	updated.State = ReservationCompleted
	updated.UpdatedAt = now

	reservation, err = s.reservations.UpdateReservation(ctx, updated)
	if err != nil {
		err = s.mapRepoError(err)
	}
	return
}

// Delete physically removes a reservation that has not started yet. Owner or
// privileged principals only.
func (s *ReservationService) Delete(ctx context.Context, principal Principal, reservationID string) error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}

	existing, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return s.mapRepoError(err)
	}

	if existing.RequesterID != principal.UserID && !principal.Privileged() {
		return &AuthorizationError{Entity: "reservation", Operation: "delete"}
	}

	now := s.now()
	if !existing.Start.After(now) {
		return &TimingError{Rule: "reservation has already started", Instant: now, Deadline: existing.Start}
	}

	if err := s.reservations.DeleteReservation(ctx, reservationID); err != nil {
		return s.mapRepoError(err)
	}

	s.availability.Invalidate(existing.ResourceID)
	return nil
}

// Get returns a reservation visible to the principal.
func (s *ReservationService) Get(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation repository not configured")
	}

	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, s.mapRepoError(err)
	}
	if reservation.RequesterID != principal.UserID && !principal.Privileged() {
		return Reservation{}, &AuthorizationError{Entity: "reservation", Operation: "view"}
	}
	return reservation, nil
}

// List enumerates reservations. Non-privileged principals only see their
// own.
func (s *ReservationService) List(ctx context.Context, params ListReservationsParams) ([]Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return nil, nil
	}

	filter := ReservationRepositoryFilter{
		ResourceID:  params.ResourceID,
		RequesterID: params.RequesterID,
		States:      params.States,
	}
	if !params.Principal.Privileged() {
		filter.RequesterID = params.Principal.UserID
	}

	reservations, err := s.reservations.ListReservations(ctx, filter)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return reservations, nil
}

func (s *ReservationService) getResource(ctx context.Context, resourceID string) (Resource, error) {
	if s.resources == nil {
		return Resource{}, fmt.Errorf("resource reader not configured")
	}
	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return Resource{}, &NotFoundError{Entity: "resource", ID: resourceID}
		}
		return Resource{}, err
	}
	return resource, nil
}

func (s *ReservationService) resourceName(ctx context.Context, resourceID string) string {
	if s.resources == nil {
		return ""
	}
	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return ""
	}
	return resource.Name
}

// ensureAvailable rejects the interval when the resource is not offerable or
// a conflicting reservation or maintenance window exists.
func (s *ReservationService) ensureAvailable(ctx context.Context, resource Resource, params CheckAvailabilityParams) error {
	if !resource.Offerable() {
		return &StateError{Entity: "resource", State: string(resource.State), Operation: "reserve"}
	}
	if s.availability == nil {
		return nil
	}

	verdict, err := s.availability.Check(ctx, params)
	if err != nil {
		return err
	}
	if verdict.Available {
		return nil
	}
	if verdict.Reason == ReasonResourceNotBookable {
		return &StateError{Entity: "resource", State: string(resource.State), Operation: "reserve"}
	}
	return &ConflictError{
		Reservations: verdict.ConflictingReservations,
		Maintenance:  verdict.ConflictingMaintenance,
	}
}

func validateReservationInput(input ReservationInput) *ValidationError {
	vErr := &ValidationError{}

	if input.ResourceID == "" {
		vErr.add("resource_id", "resource is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}
	if strings.TrimSpace(input.Purpose) == "" {
		vErr.add("purpose", "purpose is required")
	}

	return vErr
}

func (s *ReservationService) mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return &NotFoundError{Entity: "reservation"}
	}
	if errors.Is(err, ErrAlreadyExists) || errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
