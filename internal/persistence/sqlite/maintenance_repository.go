package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/resource-booking/internal/persistence"
)

// MaintenanceRepository implements persistence.MaintenanceRepository using SQLite.
type MaintenanceRepository struct {
	pool *ConnectionPool
}

// NewMaintenanceRepository creates a new SQLite maintenance repository.
var _ persistence.MaintenanceRepository = (*MaintenanceRepository)(nil)

func NewMaintenanceRepository(pool *ConnectionPool) *MaintenanceRepository {
	return &MaintenanceRepository{pool: pool}
}

const maintenanceColumns = "id, resource_id, performer_id, start_time, end_time, state, description, created_at, updated_at"

// CreateMaintenanceWindow inserts a new maintenance window row.
func (r *MaintenanceRepository) CreateMaintenanceWindow(ctx context.Context, window persistence.MaintenanceWindow) error {
	if window.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO maintenance_windows (` + maintenanceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		window.ID,
		window.ResourceID,
		window.PerformerID,
		formatTime(window.Start),
		formatNullTime(window.End),
		string(window.State),
		window.Description,
		formatTime(window.CreatedAt),
		formatTime(window.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateMaintenanceWindow persists changes to an existing window row.
func (r *MaintenanceRepository) UpdateMaintenanceWindow(ctx context.Context, window persistence.MaintenanceWindow) error {
	query := `
		UPDATE maintenance_windows
		SET start_time = ?, end_time = ?, state = ?, description = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		formatTime(window.Start),
		formatNullTime(window.End),
		string(window.State),
		window.Description,
		formatTime(window.UpdatedAt),
		window.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// GetMaintenanceWindow retrieves a maintenance window by ID.
func (r *MaintenanceRepository) GetMaintenanceWindow(ctx context.Context, id string) (persistence.MaintenanceWindow, error) {
	if id == "" {
		return persistence.MaintenanceWindow{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_windows WHERE id = ?`, id)
	return scanMaintenanceWindow(row)
}

// ListMaintenanceWindows returns windows matching the filter ordered by start time.
func (r *MaintenanceRepository) ListMaintenanceWindows(ctx context.Context, filter persistence.MaintenanceFilter) ([]persistence.MaintenanceWindow, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_windows`

	var conditions []string
	var args []any

	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			placeholders[i] = "?"
			args = append(args, string(state))
		}
		conditions = append(conditions, "state IN ("+strings.Join(placeholders, ",")+")")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var windows []persistence.MaintenanceWindow
	for rows.Next() {
		window, err := scanMaintenanceWindow(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return windows, nil
}

func scanMaintenanceWindow(row rowScanner) (persistence.MaintenanceWindow, error) {
	var window persistence.MaintenanceWindow
	var start, state, createdAt, updatedAt string
	var end sql.NullString

	err := row.Scan(
		&window.ID,
		&window.ResourceID,
		&window.PerformerID,
		&start,
		&end,
		&state,
		&window.Description,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.MaintenanceWindow{}, mapSQLiteError(err)
	}

	window.State = persistence.MaintenanceState(state)

	if window.Start, err = parseTime(start, "start_time"); err != nil {
		return persistence.MaintenanceWindow{}, err
	}
	if window.End, err = parseNullTime(end, "end_time"); err != nil {
		return persistence.MaintenanceWindow{}, err
	}
	if window.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.MaintenanceWindow{}, err
	}
	if window.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.MaintenanceWindow{}, err
	}
	return window, nil
}
