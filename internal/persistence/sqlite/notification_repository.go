package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/resource-booking/internal/persistence"
)

// NotificationRepository implements persistence.NotificationRepository using SQLite.
type NotificationRepository struct {
	pool *ConnectionPool
}

// NewNotificationRepository creates a new SQLite notification repository.
var _ persistence.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// CreateNotifications inserts the supplied notification rows in one transaction.
func (r *NotificationRepository) CreateNotifications(ctx context.Context, notifications []persistence.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, notification := range notifications {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO notifications (id, recipient_id, reservation_id, message, read, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`,
				notification.ID,
				notification.RecipientID,
				nullString(notification.ReservationID),
				notification.Message,
				boolToInt(notification.Read),
				formatTime(notification.CreatedAt),
			)
			if err != nil {
				return mapSQLiteError(err)
			}
		}
		return nil
	})
}

// ListNotificationsForRecipient returns a recipient's notifications, newest first.
func (r *NotificationRepository) ListNotificationsForRecipient(ctx context.Context, recipientID string) ([]persistence.Notification, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, recipient_id, reservation_id, message, read, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC, id ASC
	`, recipientID)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		var notification persistence.Notification
		var reservationID sql.NullString
		var read int
		var createdAt string

		err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&reservationID,
			&notification.Message,
			&read,
			&createdAt,
		)
		if err != nil {
			return nil, mapSQLiteError(err)
		}

		notification.ReservationID = stringPtr(reservationID)
		notification.Read = read != 0
		if notification.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return notifications, nil
}

// MarkNotificationRead flips the read flag for a notification owned by recipientID.
func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = 1
		WHERE id = ? AND recipient_id = ?
	`, id, recipientID)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}
