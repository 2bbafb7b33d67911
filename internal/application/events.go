package application

// Event is a domain occurrence that fans out to notification recipients.
// Concrete event types decide recipients and message text in the
// notification service.
type Event interface {
	eventName() string
}

// ReservationRequested fires when a non-privileged user creates a pending
// reservation awaiting approval.
type ReservationRequested struct {
	Reservation  Reservation
	ResourceName string
}

func (ReservationRequested) eventName() string { return "reservation_requested" }

// ReservationConfirmedEvent fires when a privileged user approves a
// reservation. The Event suffix keeps it distinct from the reservation state
// of the same name.
type ReservationConfirmedEvent struct {
	Reservation  Reservation
	ResourceName string
}

func (ReservationConfirmedEvent) eventName() string { return "reservation_confirmed" }

// ReservationCancelledEvent fires when a reservation is cancelled. ActorID is
// the principal who cancelled; recipients depend on whether that was the
// owner.
type ReservationCancelledEvent struct {
	Reservation  Reservation
	ResourceName string
	ActorID      string
}

func (ReservationCancelledEvent) eventName() string { return "reservation_cancelled" }

// ReservationModified fires when someone other than the owner edits a
// reservation.
type ReservationModified struct {
	Reservation  Reservation
	ResourceName string
	ActorID      string
}

func (ReservationModified) eventName() string { return "reservation_modified" }

// MaintenanceScheduled fires when a maintenance window is created.
type MaintenanceScheduled struct {
	Window       MaintenanceWindow
	ResourceName string
	ActorID      string
}

func (MaintenanceScheduled) eventName() string { return "maintenance_scheduled" }

// IncidentStateChanged fires when an incident moves to a new lifecycle state.
type IncidentStateChanged struct {
	Incident     Incident
	ResourceName string
}

func (IncidentStateChanged) eventName() string { return "incident_state_changed" }
