package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/resource-booking/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository using SQLite.
type ResourceRepository struct {
	pool *ConnectionPool
}

// NewResourceRepository creates a new SQLite resource repository.
var _ persistence.ResourceRepository = (*ResourceRepository)(nil)

func NewResourceRepository(pool *ConnectionPool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

const resourceColumns = "id, name, kind, location, state, bookable, created_at, updated_at"

// CreateResource inserts a new resource row.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO resources (` + resourceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		resource.ID,
		resource.Name,
		resource.Kind,
		resource.Location,
		string(resource.State),
		boolToInt(resource.Bookable),
		formatTime(resource.CreatedAt),
		formatTime(resource.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateResource persists changes to an existing resource row.
func (r *ResourceRepository) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	query := `
		UPDATE resources
		SET name = ?, kind = ?, location = ?, state = ?, bookable = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		resource.Name,
		resource.Kind,
		resource.Location,
		string(resource.State),
		boolToInt(resource.Bookable),
		formatTime(resource.UpdatedAt),
		resource.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// GetResource retrieves a resource by ID.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if id == "" {
		return persistence.Resource{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	return scanResource(row)
}

// ListResources returns all resources ordered by name.
func (r *ResourceRepository) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	rows, err := r.pool.db.QueryContext(ctx, `SELECT `+resourceColumns+` FROM resources ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return resources, nil
}

// DeleteResource removes a resource. Foreign keys block deletion while
// reservations or maintenance windows still reference the row.
func (r *ResourceRepository) DeleteResource(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// ApplyStateCascade updates the resource row, cancels the given reservations
// and inserts the given notifications atomically.
func (r *ResourceRepository) ApplyStateCascade(ctx context.Context, resource persistence.Resource, cancelled []persistence.Reservation, notifications []persistence.Notification) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE resources
			SET state = ?, bookable = ?, updated_at = ?
			WHERE id = ?
		`,
			string(resource.State),
			boolToInt(resource.Bookable),
			formatTime(resource.UpdatedAt),
			resource.ID,
		)
		if err != nil {
			return mapSQLiteError(err)
		}
		if err := requireRowsAffected(result); err != nil {
			return err
		}

		for _, reservation := range cancelled {
			result, err := tx.ExecContext(ctx, `
				UPDATE reservations
				SET state = ?, updated_at = ?
				WHERE id = ?
			`,
				string(reservation.State),
				formatTime(reservation.UpdatedAt),
				reservation.ID,
			)
			if err != nil {
				return mapSQLiteError(err)
			}
			if err := requireRowsAffected(result); err != nil {
				return err
			}
		}

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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (persistence.Resource, error) {
	var resource persistence.Resource
	var state string
	var bookable int
	var createdAt, updatedAt string

	err := row.Scan(
		&resource.ID,
		&resource.Name,
		&resource.Kind,
		&resource.Location,
		&state,
		&bookable,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Resource{}, mapSQLiteError(err)
	}

	resource.State = persistence.ResourceState(state)
	resource.Bookable = bookable != 0

	if resource.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Resource{}, err
	}
	if resource.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Resource{}, err
	}
	return resource, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func requireRowsAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
