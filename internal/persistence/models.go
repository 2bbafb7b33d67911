package persistence

import "time"

// ResourceState enumerates the lifecycle states of a bookable resource.
type ResourceState string

const (
	ResourceAvailable   ResourceState = "available"
	ResourceMaintenance ResourceState = "maintenance"
	ResourceDamaged     ResourceState = "damaged"
	ResourceRetired     ResourceState = "retired"
)

// Resource represents a single bookable unit such as a room or device.
// Bookable is independent of State; a resource is offerable for new
// reservations only when State is available and Bookable is set.
type Resource struct {
	ID        string
	Name      string
	Kind      string
	Location  string
	State     ResourceState
	Bookable  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservationState enumerates the lifecycle states of a reservation.
type ReservationState string

const (
	ReservationPending   ReservationState = "pending"
	ReservationConfirmed ReservationState = "confirmed"
	ReservationCancelled ReservationState = "cancelled"
	ReservationCompleted ReservationState = "completed"
)

// Reservation represents a user's claim on a resource for a time interval.
type Reservation struct {
	ID          string
	ResourceID  string
	RequesterID string
	Start       time.Time
	End         time.Time
	Purpose     string
	State       ReservationState
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaintenanceState enumerates the lifecycle states of a maintenance window.
type MaintenanceState string

const (
	MaintenancePending    MaintenanceState = "pending"
	MaintenanceInProgress MaintenanceState = "in_progress"
	MaintenanceCompleted  MaintenanceState = "completed"
)

// MaintenanceWindow represents a period during which a resource is removed
// from the bookable pool. End is nil while the window is open-ended.
type MaintenanceWindow struct {
	ID          string
	ResourceID  string
	PerformerID string
	Start       time.Time
	End         *time.Time
	State       MaintenanceState
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IncidentState enumerates the lifecycle states of a reported incident.
type IncidentState string

const (
	IncidentReported   IncidentState = "reported"
	IncidentInReview   IncidentState = "in_review"
	IncidentInProgress IncidentState = "in_progress"
	IncidentResolved   IncidentState = "resolved"
	IncidentClosed     IncidentState = "closed"
)

// IncidentPriority grades the severity of an incident.
type IncidentPriority string

const (
	PriorityLow      IncidentPriority = "low"
	PriorityMedium   IncidentPriority = "medium"
	PriorityHigh     IncidentPriority = "high"
	PriorityCritical IncidentPriority = "critical"
)

// Incident represents a user-reported problem tied to a past reservation.
// Version increments on every update and supports optimistic concurrency.
type Incident struct {
	ID            string
	ResourceID    string
	ReporterID    string
	ReservationID string
	Title         string
	Description   string
	Priority      IncidentPriority
	State         IncidentState
	ResolverNotes string
	ResolverID    *string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Notification represents an append-only message addressed to one recipient.
type Notification struct {
	ID            string
	RecipientID   string
	ReservationID *string
	Message       string
	Read          bool
	CreatedAt     time.Time
}

// UserRole enumerates the account roles recognised by the service.
type UserRole string

const (
	RoleMember UserRole = "member"
	RoleStaff  UserRole = "staff"
	RoleAdmin  UserRole = "admin"
)

// User represents an account in the booking domain.
type User struct {
	ID             string
	Email          string
	DisplayName    string
	Role           UserRole
	PasswordHash   string
	Disabled       bool
	FailedAttempts int
	LastFailedAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}
