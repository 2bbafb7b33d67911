package application

import "time"

// Role enumerates the account roles recognised by the services.
type Role string

const (
	RoleMember Role = "member"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

// Privileged reports whether the role may approve reservations and manage
// resources.
func (r Role) Privileged() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// Privileged reports whether the principal holds a staff or admin role.
func (p Principal) Privileged() bool {
	return p.Role.Privileged()
}

// ResourceState enumerates the lifecycle states of a resource.
type ResourceState string

const (
	ResourceAvailable   ResourceState = "available"
	ResourceMaintenance ResourceState = "maintenance"
	ResourceDamaged     ResourceState = "damaged"
	ResourceRetired     ResourceState = "retired"
)

// ResourceInput captures caller provided resource fields.
type ResourceInput struct {
	Name     string
	Kind     string
	Location string
}

// Resource represents a catalog entry for a bookable unit.
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

// Offerable reports whether new reservations may target the resource.
func (r Resource) Offerable() bool {
	return r.State == ResourceAvailable && r.Bookable
}

// CreateResourceParams wraps the data required to create a resource.
type CreateResourceParams struct {
	Principal Principal
	Input     ResourceInput
}

// UpdateResourceParams wraps the data required to update a resource.
type UpdateResourceParams struct {
	Principal  Principal
	ResourceID string
	Input      ResourceInput
}

// SetResourceStateParams wraps a resource state transition request.
type SetResourceStateParams struct {
	Principal  Principal
	ResourceID string
	State      ResourceState
}

// SetResourceBookableParams wraps a bookable flag change request.
type SetResourceBookableParams struct {
	Principal  Principal
	ResourceID string
	Bookable   bool
}

// ReservationState enumerates the lifecycle states of a reservation.
type ReservationState string

const (
	ReservationPending   ReservationState = "pending"
	ReservationConfirmed ReservationState = "confirmed"
	ReservationCancelled ReservationState = "cancelled"
	ReservationCompleted ReservationState = "completed"
)

// Active reports whether the state still occupies the resource's calendar.
func (s ReservationState) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// ReservationInput captures caller provided reservation fields.
type ReservationInput struct {
	ResourceID  string
	RequesterID string
	Start       time.Time
	End         time.Time
	Purpose     string
}

// Reservation represents a persisted claim on a resource.
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

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// EditReservationParams wraps the data required to edit a reservation.
type EditReservationParams struct {
	Principal     Principal
	ReservationID string
	Input         ReservationInput
}

// AvailabilityReason explains an availability verdict.
type AvailabilityReason string

const (
	ReasonOK                  AvailabilityReason = "ok"
	ReasonResourceNotBookable AvailabilityReason = "resource_not_bookable"
	ReasonTimeConflict        AvailabilityReason = "time_conflict"
)

// ReservationConflict identifies a reservation blocking a requested interval.
type ReservationConflict struct {
	ReservationID string
	Start         time.Time
	End           time.Time
}

// MaintenanceConflict identifies a maintenance window blocking a requested
// interval. End is nil for open-ended windows.
type MaintenanceConflict struct {
	MaintenanceID string
	Start         time.Time
	End           *time.Time
}

// Availability is the verdict for one resource and interval.
type Availability struct {
	Available               bool
	Reason                  AvailabilityReason
	ConflictingReservations []ReservationConflict
	ConflictingMaintenance  []MaintenanceConflict
}

// MaintenanceState enumerates the lifecycle states of a maintenance window.
type MaintenanceState string

const (
	MaintenancePending    MaintenanceState = "pending"
	MaintenanceInProgress MaintenanceState = "in_progress"
	MaintenanceCompleted  MaintenanceState = "completed"
)

// MaintenanceInput captures caller provided maintenance window fields.
type MaintenanceInput struct {
	ResourceID  string
	Start       time.Time
	End         *time.Time
	Description string
}

// MaintenanceWindow represents a period during which a resource is pulled
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

// ScheduleMaintenanceParams wraps the data required to schedule maintenance.
type ScheduleMaintenanceParams struct {
	Principal Principal
	Input     MaintenanceInput
}

// IncidentState enumerates the lifecycle states of an incident.
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

// IncidentInput captures caller provided incident fields at report time.
type IncidentInput struct {
	ReservationID string
	Title         string
	Description   string
	Priority      IncidentPriority
}

// Incident represents a persisted problem report tied to a reservation.
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

// ReportIncidentParams wraps the data required to report an incident.
type ReportIncidentParams struct {
	Principal Principal
	Input     IncidentInput
}

// IncidentEdit carries the fields an edit wants to change; nil means keep.
type IncidentEdit struct {
	Title         *string
	Description   *string
	Priority      *IncidentPriority
	State         *IncidentState
	ResolverNotes *string
}

// EditIncidentParams wraps the data required to edit an incident. Version is
// the version the caller read; a stale value is rejected.
type EditIncidentParams struct {
	Principal  Principal
	IncidentID string
	Version    int64
	Edit       IncidentEdit
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

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Role        Role
	Password    string
}

// User represents an account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User           User
	PasswordHash   string
	Disabled       bool
	FailedAttempts int
	LastFailedAt   *time.Time
}

// Session represents an authenticated session issued to a user.
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

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}
