package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/resource-booking/internal/interval"
	"github.com/example/resource-booking/internal/persistence"
)

// ResourceReader exposes the resource lookup needed for availability checks.
type ResourceReader interface {
	GetResource(ctx context.Context, id string) (Resource, error)
}

// ReservationLister exposes the reservation query needed for availability
// checks.
type ReservationLister interface {
	ListReservations(ctx context.Context, filter ReservationRepositoryFilter) ([]Reservation, error)
}

// MaintenanceLister exposes the maintenance window query needed for
// availability checks.
type MaintenanceLister interface {
	ListMaintenanceWindows(ctx context.Context, filter MaintenanceRepositoryFilter) ([]MaintenanceWindow, error)
}

// CheckAvailabilityParams wraps the data required for an availability check.
// ExcludeReservationID, when non-nil, removes that reservation from conflict
// consideration so an edit does not collide with itself.
type CheckAvailabilityParams struct {
	ResourceID           string
	Start                time.Time
	End                  time.Time
	ExcludeReservationID *string
}

// AvailabilityService decides whether a resource can host a given interval.
// The same decision backs the read-only check endpoint and every mutating
// reservation flow.
type AvailabilityService struct {
	resources    ResourceReader
	reservations ReservationLister
	maintenance  MaintenanceLister
	cache        *availabilityCache
	logger       *slog.Logger
}

// NewAvailabilityService wires dependencies for availability decisions.
func NewAvailabilityService(resources ResourceReader, reservations ReservationLister, maintenance MaintenanceLister, logger *slog.Logger) *AvailabilityService {
	return &AvailabilityService{
		resources:    resources,
		reservations: reservations,
		maintenance:  maintenance,
		cache:        newAvailabilityCache(),
		logger:       defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

// CheckCached serves the read-only availability flow through a short-TTL
// cache. Mutating flows must use Check.
func (s *AvailabilityService) CheckCached(ctx context.Context, params CheckAvailabilityParams) (Availability, error) {
	if s == nil {
		return Availability{}, fmt.Errorf("AvailabilityService is nil")
	}

	key := availabilityCacheKey(params.ResourceID, params.Start, params.End, excludeID(params.ExcludeReservationID))
	if verdict, ok := s.cache.Get(key); ok {
		return verdict, nil
	}

	verdict, err := s.Check(ctx, params)
	if err != nil {
		return Availability{}, err
	}
	s.cache.Put(key, verdict)
	return verdict, nil
}

// Check computes a fresh availability verdict. It is read-only and
// idempotent: checking never holds a slot.
func (s *AvailabilityService) Check(ctx context.Context, params CheckAvailabilityParams) (verdict Availability, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource reader not configured")
		return
	}

	logger := s.loggerWith(ctx, "Check", "resource_id", params.ResourceID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "availability check failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "availability checked", "available", verdict.Available, "reason", verdict.Reason)
	}()

	span, ok := interval.New(params.Start, params.End)
	if !ok {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		err = vErr
		return
	}

	var resource Resource
	resource, err = s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			err = &NotFoundError{Entity: "resource", ID: params.ResourceID}
		}
		return
	}

	if !resource.Offerable() {
		verdict = Availability{Available: false, Reason: ReasonResourceNotBookable}
		return
	}

	reservationConflicts, maintenanceConflicts, err := s.findConflicts(ctx, params.ResourceID, span, excludeID(params.ExcludeReservationID))
	if err != nil {
		return
	}

	if len(reservationConflicts) > 0 || len(maintenanceConflicts) > 0 {
		verdict = Availability{
			Available:               false,
			Reason:                  ReasonTimeConflict,
			ConflictingReservations: reservationConflicts,
			ConflictingMaintenance:  maintenanceConflicts,
		}
		return
	}

	verdict = Availability{Available: true, Reason: ReasonOK}
	return
}

// Invalidate drops cached verdicts for the resource. Mutating services call
// this after every committed write that affects the resource's calendar.
func (s *AvailabilityService) Invalidate(resourceID string) {
	if s == nil {
		return
	}
	s.cache.Invalidate(resourceID)
}

func (s *AvailabilityService) findConflicts(ctx context.Context, resourceID string, span interval.Span, exclude string) ([]ReservationConflict, []MaintenanceConflict, error) {
	var reservationConflicts []ReservationConflict
	if s.reservations != nil {
		reservations, err := s.reservations.ListReservations(ctx, ReservationRepositoryFilter{
			ResourceID: resourceID,
			States:     []ReservationState{ReservationPending, ReservationConfirmed},
			ExcludeID:  exclude,
		})
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, persistence.ErrNotFound) {
			return nil, nil, err
		}
		for _, reservation := range reservations {
			existing, ok := interval.New(reservation.Start, reservation.End)
			if !ok {
				continue
			}
			if interval.Overlaps(span, existing) {
				reservationConflicts = append(reservationConflicts, ReservationConflict{
					ReservationID: reservation.ID,
					Start:         reservation.Start,
					End:           reservation.End,
				})
			}
		}
	}

	var maintenanceConflicts []MaintenanceConflict
	if s.maintenance != nil {
		windows, err := s.maintenance.ListMaintenanceWindows(ctx, MaintenanceRepositoryFilter{
			ResourceID: resourceID,
			States:     []MaintenanceState{MaintenancePending, MaintenanceInProgress},
		})
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, persistence.ErrNotFound) {
			return nil, nil, err
		}
		for _, window := range windows {
			existing := interval.OpenEnded(window.Start)
			if window.End != nil {
				bounded, ok := interval.New(window.Start, *window.End)
				if !ok {
					continue
				}
				existing = bounded
			}
			if interval.Overlaps(span, existing) {
				maintenanceConflicts = append(maintenanceConflicts, MaintenanceConflict{
					MaintenanceID: window.ID,
					Start:         window.Start,
					End:           window.End,
				})
			}
		}
	}

	return reservationConflicts, maintenanceConflicts, nil
}

func excludeID(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
