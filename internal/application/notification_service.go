package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/resource-booking/internal/persistence"
)

// NotificationRepository captures the persistence interactions for
// notification records.
type NotificationRepository interface {
	CreateNotifications(ctx context.Context, notifications []Notification) error
	ListNotificationsForRecipient(ctx context.Context, recipientID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, recipientID string) error
}

// PrivilegedDirectory resolves the user IDs that hold approval roles.
type PrivilegedDirectory interface {
	ListPrivilegedUserIDs(ctx context.Context) ([]string, error)
}

// NotificationService turns domain events into per-recipient notification
// records. Publish never propagates storage failures to its caller.
type NotificationService struct {
	notifications NotificationRepository
	privileged    PrivilegedDirectory
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewNotificationService wires dependencies for notification fan-out.
func NewNotificationService(notifications NotificationRepository, privileged PrivilegedDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *NotificationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		notifications: notifications,
		privileged:    privileged,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

// Publish composes and persists notification records for the event. Failures
// are logged and swallowed so notification plumbing never fails the
// originating operation.
func (s *NotificationService) Publish(ctx context.Context, event Event) {
	if s == nil || event == nil {
		return
	}

	logger := s.loggerWith(ctx, "Publish", "event", event.eventName())

	records, err := s.Compose(ctx, event)
	if err != nil {
		logger.ErrorContext(ctx, "failed to compose notifications", "error", err, "error_kind", ErrorKind(err))
		return
	}
	if len(records) == 0 {
		return
	}
	if s.notifications == nil {
		return
	}

	if err := s.notifications.CreateNotifications(ctx, records); err != nil {
		logger.ErrorContext(ctx, "failed to persist notifications", "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.InfoContext(ctx, "notifications published", "recipients", len(records))
}

// Compose resolves recipients and builds one unread record per recipient.
func (s *NotificationService) Compose(ctx context.Context, event Event) ([]Notification, error) {
	if s == nil {
		return nil, fmt.Errorf("NotificationService is nil")
	}

	switch e := event.(type) {
	case ReservationRequested:
		recipients, err := s.privilegedRecipients(ctx, e.Reservation.RequesterID)
		if err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Reservation for %s from %s to %s awaits approval.",
			displayName(e.ResourceName, e.Reservation.ResourceID),
			formatInstant(e.Reservation.Start), formatInstant(e.Reservation.End))
		return s.build(recipients, &e.Reservation.ID, message), nil

	case ReservationConfirmedEvent:
		message := fmt.Sprintf("Your reservation for %s from %s to %s was confirmed.",
			displayName(e.ResourceName, e.Reservation.ResourceID),
			formatInstant(e.Reservation.Start), formatInstant(e.Reservation.End))
		return s.build([]string{e.Reservation.RequesterID}, &e.Reservation.ID, message), nil

	case ReservationCancelledEvent:
		if e.ActorID == e.Reservation.RequesterID {
			recipients, err := s.privilegedRecipients(ctx, e.ActorID)
			if err != nil {
				return nil, err
			}
			message := fmt.Sprintf("Reservation for %s from %s to %s was cancelled by its owner.",
				displayName(e.ResourceName, e.Reservation.ResourceID),
				formatInstant(e.Reservation.Start), formatInstant(e.Reservation.End))
			return s.build(recipients, &e.Reservation.ID, message), nil
		}
		message := fmt.Sprintf("Your reservation for %s from %s to %s was cancelled.",
			displayName(e.ResourceName, e.Reservation.ResourceID),
			formatInstant(e.Reservation.Start), formatInstant(e.Reservation.End))
		return s.build([]string{e.Reservation.RequesterID}, &e.Reservation.ID, message), nil

	case ReservationModified:
		if e.ActorID == e.Reservation.RequesterID {
			return nil, nil
		}
		message := fmt.Sprintf("Your reservation for %s was modified; it now runs from %s to %s.",
			displayName(e.ResourceName, e.Reservation.ResourceID),
			formatInstant(e.Reservation.Start), formatInstant(e.Reservation.End))
		return s.build([]string{e.Reservation.RequesterID}, &e.Reservation.ID, message), nil

	case MaintenanceScheduled:
		recipients, err := s.privilegedRecipients(ctx, e.ActorID)
		if err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Maintenance on %s is scheduled from %s.",
			displayName(e.ResourceName, e.Window.ResourceID), formatInstant(e.Window.Start))
		return s.build(recipients, nil, message), nil

	case IncidentStateChanged:
		message := fmt.Sprintf("Your incident %q on %s is now %s.",
			e.Incident.Title, displayName(e.ResourceName, e.Incident.ResourceID), e.Incident.State)
		reservationID := e.Incident.ReservationID
		var ref *string
		if reservationID != "" {
			ref = &reservationID
		}
		return s.build([]string{e.Incident.ReporterID}, ref, message), nil
	}

	return nil, fmt.Errorf("unknown event %q", event.eventName())
}

// ComposeResourceUnavailable builds one record per distinct owner of the
// cancelled reservations. The caller inserts these inside the cascade
// transaction.
func (s *NotificationService) ComposeResourceUnavailable(resource Resource, cancelled []Reservation) []Notification {
	if s == nil || len(cancelled) == 0 {
		return nil
	}

	message := fmt.Sprintf("%s is no longer available; your upcoming reservation was cancelled.",
		displayName(resource.Name, resource.ID))

	seen := make(map[string]struct{}, len(cancelled))
	var records []Notification
	for _, reservation := range cancelled {
		if _, ok := seen[reservation.RequesterID]; ok {
			continue
		}
		seen[reservation.RequesterID] = struct{}{}
		reservationID := reservation.ID
		records = append(records, Notification{
			ID:            s.idGenerator(),
			RecipientID:   reservation.RequesterID,
			ReservationID: &reservationID,
			Message:       message,
			CreatedAt:     s.now(),
		})
	}
	return records
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, principal Principal) ([]Notification, error) {
	if s == nil {
		return nil, fmt.Errorf("NotificationService is nil")
	}
	if s.notifications == nil {
		return nil, nil
	}
	return s.notifications.ListNotificationsForRecipient(ctx, principal.UserID)
}

// MarkRead flips the read flag when the notification belongs to the
// principal.
func (s *NotificationService) MarkRead(ctx context.Context, principal Principal, notificationID string) error {
	if s == nil {
		return fmt.Errorf("NotificationService is nil")
	}
	if s.notifications == nil {
		return fmt.Errorf("notification repository not configured")
	}

	err := s.notifications.MarkNotificationRead(ctx, notificationID, principal.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return &AuthorizationError{Entity: "notification", Operation: "mark read"}
		}
		return err
	}
	return nil
}

func (s *NotificationService) privilegedRecipients(ctx context.Context, exclude string) ([]string, error) {
	if s.privileged == nil {
		return nil, nil
	}
	ids, err := s.privileged.ListPrivilegedUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(ids))
	recipients := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}
	sort.Strings(recipients)
	return recipients, nil
}

func (s *NotificationService) build(recipients []string, reservationID *string, message string) []Notification {
	if len(recipients) == 0 {
		return nil
	}
	records := make([]Notification, 0, len(recipients))
	for _, recipient := range recipients {
		var ref *string
		if reservationID != nil {
			id := *reservationID
			ref = &id
		}
		records = append(records, Notification{
			ID:            s.idGenerator(),
			RecipientID:   recipient,
			ReservationID: ref,
			Message:       message,
			CreatedAt:     s.now(),
		})
	}
	return records
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func formatInstant(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
