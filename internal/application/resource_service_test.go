package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/resource-booking/internal/persistence"
)

func newResourceService(repo *resourceRepoStub, reservations *reservationRepoStub, notifications *notificationRepoStub) *ResourceService {
	notifier := NewNotificationService(notifications, &privilegedDirectoryStub{ids: []string{"staff-1"}}, sequenceIDs("note"), clockAt(hourOf(9)), nil)
	return NewResourceService(repo, reservations, nil, notifier, nil, sequenceIDs("room"), clockAt(hourOf(9)), nil)
}

func TestResourceService_Create_RequiresPrivilege(t *testing.T) {
	t.Parallel()

	svc := newResourceService(&resourceRepoStub{}, &reservationRepoStub{}, &notificationRepoStub{})

	_, err := svc.Create(context.Background(), CreateResourceParams{
		Principal: Principal{UserID: "user-1", Role: RoleMember},
		Input:     ResourceInput{Name: "Meeting Room A", Kind: "room"},
	})

	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestResourceService_Create_ValidatesKind(t *testing.T) {
	t.Parallel()

	svc := newResourceService(&resourceRepoStub{}, &reservationRepoStub{}, &notificationRepoStub{})

	_, err := svc.Create(context.Background(), CreateResourceParams{
		Principal: Principal{UserID: "staff-1", Role: RoleStaff},
		Input:     ResourceInput{Name: "Meeting Room A", Kind: "vehicle"},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["kind"]; !ok {
		t.Fatalf("expected kind validation error, got %v", vErr.FieldErrors)
	}
}

func TestResourceService_Create_StartsAvailableAndBookable(t *testing.T) {
	t.Parallel()

	repo := &resourceRepoStub{}
	svc := newResourceService(repo, &reservationRepoStub{}, &notificationRepoStub{})

	resource, err := svc.Create(context.Background(), CreateResourceParams{
		Principal: Principal{UserID: "staff-1", Role: RoleStaff},
		Input:     ResourceInput{Name: "  Projector  ", Kind: "Equipment"},
	})
	if err != nil {
		t.Fatalf("expected creation to succeed, got %v", err)
	}

	if resource.State != ResourceAvailable || !resource.Bookable {
		t.Fatalf("expected available and bookable resource, got %s bookable=%v", resource.State, resource.Bookable)
	}
	if repo.created.Name != "Projector" || repo.created.Kind != "equipment" {
		t.Fatalf("expected normalized fields, got %q %q", repo.created.Name, repo.created.Kind)
	}
}

func TestResourceService_SetState_NoOpWhenStateUnchanged(t *testing.T) {
	t.Parallel()

	repo := &resourceRepoStub{resource: bookableResource()}
	svc := newResourceService(repo, &reservationRepoStub{}, &notificationRepoStub{})

	resource, err := svc.SetState(context.Background(), SetResourceStateParams{
		Principal:  Principal{UserID: "staff-1", Role: RoleStaff},
		ResourceID: "room-1",
		State:      ResourceAvailable,
	})
	if err != nil {
		t.Fatalf("expected no-op to succeed, got %v", err)
	}

	if resource.ID != "room-1" {
		t.Fatalf("expected existing resource back, got %+v", resource)
	}
	if repo.updated.ID != "" || len(repo.cascades) != 0 {
		t.Fatalf("expected no writes for unchanged state")
	}
}

func TestResourceService_SetState_CancelsUpcomingReservationsInOneTransaction(t *testing.T) {
	t.Parallel()

	repo := &resourceRepoStub{resource: bookableResource()}
	reservations := &reservationRepoStub{list: []Reservation{
		{ID: "resv-past", ResourceID: "room-1", RequesterID: "user-1", Start: hourOf(7), End: hourOf(8), State: ReservationCompleted},
		{ID: "resv-1", ResourceID: "room-1", RequesterID: "user-1", Start: hourOf(10), End: hourOf(11), State: ReservationConfirmed},
		{ID: "resv-2", ResourceID: "room-1", RequesterID: "user-1", Start: hourOf(12), End: hourOf(13), State: ReservationPending},
		{ID: "resv-3", ResourceID: "room-1", RequesterID: "user-2", Start: hourOf(14), End: hourOf(15), State: ReservationConfirmed},
	}}
	notifications := &notificationRepoStub{}
	svc := newResourceService(repo, reservations, notifications)

	resource, err := svc.SetState(context.Background(), SetResourceStateParams{
		Principal:  Principal{UserID: "staff-1", Role: RoleStaff},
		ResourceID: "room-1",
		State:      ResourceDamaged,
	})
	if err != nil {
		t.Fatalf("expected state change to succeed, got %v", err)
	}
	if resource.State != ResourceDamaged {
		t.Fatalf("expected damaged state, got %s", resource.State)
	}

	if len(repo.cascades) != 1 {
		t.Fatalf("expected one cascade transaction, got %d", len(repo.cascades))
	}
	cascade := repo.cascades[0]

	if len(cascade.cancelled) != 3 {
		t.Fatalf("expected three upcoming reservations cancelled, got %d", len(cascade.cancelled))
	}
	for _, reservation := range cascade.cancelled {
		if reservation.ID == "resv-past" {
			t.Fatalf("expected past reservation to be untouched")
		}
		if reservation.State != ReservationCancelled {
			t.Fatalf("expected cancelled state, got %s for %s", reservation.State, reservation.ID)
		}
	}

	// One record per distinct owner, written inside the same transaction.
	if len(cascade.notifications) != 2 {
		t.Fatalf("expected one notification per owner, got %d", len(cascade.notifications))
	}
	if repo.updated.ID != "" {
		t.Fatalf("expected the cascade to carry the resource update, not a separate write")
	}
}

func TestResourceService_ForceState_SerializesWithReservationWrites(t *testing.T) {
	t.Parallel()

	locks := NewResourceLockSet()
	repo := &resourceRepoStub{resource: bookableResource()}
	reservations := &reservationRepoStub{list: []Reservation{
		{ID: "resv-1", ResourceID: "room-1", RequesterID: "user-1", Start: hourOf(10), End: hourOf(11), State: ReservationConfirmed},
	}}
	notifier := NewNotificationService(&notificationRepoStub{}, &privilegedDirectoryStub{}, sequenceIDs("note"), clockAt(hourOf(9)), nil)
	svc := NewResourceService(repo, reservations, nil, notifier, locks, sequenceIDs("room"), clockAt(hourOf(9)), nil)

	// A reservation flow holds the resource lock while it checks and writes.
	unlock := locks.Lock("room-1")

	done := make(chan error, 1)
	go func() {
		_, err := svc.ForceState(context.Background(), "room-1", ResourceRetired, false)
		done <- err
	}()

	select {
	case <-done:
		t.Fatalf("expected the cascade to wait for the resource lock")
	case <-time.After(50 * time.Millisecond):
	}
	if len(repo.cascades) != 0 {
		t.Fatalf("expected no cascade while the lock is held, got %d", len(repo.cascades))
	}

	unlock()
	if err := <-done; err != nil {
		t.Fatalf("expected cascade to succeed once the lock is free, got %v", err)
	}
	if len(repo.cascades) != 1 || len(repo.cascades[0].cancelled) != 1 {
		t.Fatalf("expected the cascade to run after the lock is released, got %+v", repo.cascades)
	}
}

func TestResourceService_SetBookable_NoCascadeWhenAlreadyUnavailable(t *testing.T) {
	t.Parallel()

	resource := bookableResource()
	resource.State = ResourceMaintenance
	repo := &resourceRepoStub{resource: resource}
	svc := newResourceService(repo, &reservationRepoStub{}, &notificationRepoStub{})

	_, err := svc.SetBookable(context.Background(), SetResourceBookableParams{
		Principal:  Principal{UserID: "staff-1", Role: RoleStaff},
		ResourceID: "room-1",
		Bookable:   false,
	})
	if err != nil {
		t.Fatalf("expected bookable change to succeed, got %v", err)
	}

	if len(repo.cascades) != 0 {
		t.Fatalf("expected no cascade for an already unavailable resource")
	}
	if repo.updated.Bookable {
		t.Fatalf("expected bookable flag cleared in the plain update")
	}
}

func TestResourceService_SetBookable_RequiresPrivilege(t *testing.T) {
	t.Parallel()

	svc := newResourceService(&resourceRepoStub{resource: bookableResource()}, &reservationRepoStub{}, &notificationRepoStub{})

	_, err := svc.SetBookable(context.Background(), SetResourceBookableParams{
		Principal:  Principal{UserID: "user-1", Role: RoleMember},
		ResourceID: "room-1",
		Bookable:   false,
	})

	var aErr *AuthorizationError
	if !errors.As(err, &aErr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
}

func TestResourceService_SetState_RejectsUnknownState(t *testing.T) {
	t.Parallel()

	svc := newResourceService(&resourceRepoStub{resource: bookableResource()}, &reservationRepoStub{}, &notificationRepoStub{})

	_, err := svc.SetState(context.Background(), SetResourceStateParams{
		Principal:  Principal{UserID: "staff-1", Role: RoleStaff},
		ResourceID: "room-1",
		State:      ResourceState("broken"),
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["state"]; !ok {
		t.Fatalf("expected state validation error, got %v", vErr.FieldErrors)
	}
}

func TestResourceService_Delete_MapsForeignKeyToStateError(t *testing.T) {
	t.Parallel()

	repo := &resourceRepoStub{resource: bookableResource(), deleteErr: persistence.ErrForeignKeyViolation}
	svc := newResourceService(repo, &reservationRepoStub{}, &notificationRepoStub{})

	err := svc.Delete(context.Background(), Principal{UserID: "staff-1", Role: RoleStaff}, "room-1")

	var sErr *StateError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestResourceService_List_SortsByName(t *testing.T) {
	t.Parallel()

	repo := &resourceRepoStub{list: []Resource{
		{ID: "r-2", Name: "projector"},
		{ID: "r-1", Name: "Auditorium"},
		{ID: "r-3", Name: "Lab bench"},
	}}
	svc := newResourceService(repo, &reservationRepoStub{}, &notificationRepoStub{})

	resources, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("expected list to succeed, got %v", err)
	}

	if len(resources) != 3 || resources[0].Name != "Auditorium" || resources[1].Name != "Lab bench" || resources[2].Name != "projector" {
		t.Fatalf("expected case-insensitive name order, got %+v", resources)
	}
}
