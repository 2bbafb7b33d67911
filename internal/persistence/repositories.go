package persistence

import (
	"context"
	"time"
)

// ResourceRepository exposes CRUD and state-transition operations for resources.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) error
	UpdateResource(ctx context.Context, resource Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
	DeleteResource(ctx context.Context, id string) error

	// ApplyStateCascade persists a resource update together with the
	// cancellation of the supplied reservations and the insertion of the
	// supplied notification records in a single transaction. Either every
	// write commits or none does.
	ApplyStateCascade(ctx context.Context, resource Resource, cancelled []Reservation, notifications []Notification) error
}

// ReservationFilter narrows reservation queries.
type ReservationFilter struct {
	ResourceID  string
	RequesterID string
	States      []ReservationState
	ExcludeID   string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ReservationRepository stores reservation records.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}

// MaintenanceFilter narrows maintenance window queries.
type MaintenanceFilter struct {
	ResourceID string
	States     []MaintenanceState
}

// MaintenanceRepository stores maintenance window records.
type MaintenanceRepository interface {
	CreateMaintenanceWindow(ctx context.Context, window MaintenanceWindow) error
	UpdateMaintenanceWindow(ctx context.Context, window MaintenanceWindow) error
	GetMaintenanceWindow(ctx context.Context, id string) (MaintenanceWindow, error)
	ListMaintenanceWindows(ctx context.Context, filter MaintenanceFilter) ([]MaintenanceWindow, error)
}

// IncidentFilter narrows incident queries.
type IncidentFilter struct {
	ResourceID string
	ReporterID string
	States     []IncidentState
}

// IncidentRepository stores incident records with optimistic concurrency.
type IncidentRepository interface {
	CreateIncident(ctx context.Context, incident Incident) error
	// UpdateIncident persists the incident only when the stored version
	// equals expectedVersion; otherwise it returns ErrVersionMismatch.
	UpdateIncident(ctx context.Context, incident Incident, expectedVersion int64) error
	GetIncident(ctx context.Context, id string) (Incident, error)
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error)
	DeleteIncident(ctx context.Context, id string) error
}

// NotificationRepository stores append-only notification records.
type NotificationRepository interface {
	CreateNotifications(ctx context.Context, notifications []Notification) error
	ListNotificationsForRecipient(ctx context.Context, recipientID string) ([]Notification, error)
	// MarkNotificationRead flips the read flag when the notification belongs
	// to recipientID; it returns ErrNotFound otherwise.
	MarkNotificationRead(ctx context.Context, id, recipientID string) error
}

// UserRepository exposes CRUD operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListUsersByRole(ctx context.Context, roles []UserRole) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
