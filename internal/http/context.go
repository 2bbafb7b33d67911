package http

import (
	"context"
	"log/slog"

	"github.com/example/resource-booking/internal/application"
	"github.com/example/resource-booking/internal/logging"
)

type contextKey string

const (
	principalContextKey      contextKey = "principal"
	resourceIDContextKey     contextKey = "resource_id"
	reservationIDContextKey  contextKey = "reservation_id"
	maintenanceIDContextKey  contextKey = "maintenance_id"
	incidentIDContextKey     contextKey = "incident_id"
	notificationIDContextKey contextKey = "notification_id"
	userIDContextKey         contextKey = "user_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithLogger attaches a request-scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts a request-scoped logger from the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithResourceID injects the resource identifier resolved from the request path.
func ContextWithResourceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, resourceIDContextKey, id)
}

// ResourceIDFromContext extracts a resource identifier previously associated with the context.
func ResourceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(resourceIDContextKey).(string)
	return id, ok
}

// ContextWithReservationID injects the reservation identifier resolved from the request path.
func ContextWithReservationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reservationIDContextKey, id)
}

// ReservationIDFromContext extracts a reservation identifier previously associated with the context.
func ReservationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(reservationIDContextKey).(string)
	return id, ok
}

// ContextWithMaintenanceID injects the maintenance window identifier resolved from the request path.
func ContextWithMaintenanceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, maintenanceIDContextKey, id)
}

// MaintenanceIDFromContext extracts a maintenance window identifier previously associated with the context.
func MaintenanceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(maintenanceIDContextKey).(string)
	return id, ok
}

// ContextWithIncidentID injects the incident identifier resolved from the request path.
func ContextWithIncidentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, incidentIDContextKey, id)
}

// IncidentIDFromContext extracts an incident identifier previously associated with the context.
func IncidentIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(incidentIDContextKey).(string)
	return id, ok
}

// ContextWithNotificationID injects the notification identifier resolved from the request path.
func ContextWithNotificationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, notificationIDContextKey, id)
}

// NotificationIDFromContext extracts a notification identifier previously associated with the context.
func NotificationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(notificationIDContextKey).(string)
	return id, ok
}

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}
