package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/resource-booking/internal/persistence"
)

// IncidentRepository implements persistence.IncidentRepository using SQLite.
type IncidentRepository struct {
	pool *ConnectionPool
}

// NewIncidentRepository creates a new SQLite incident repository.
var _ persistence.IncidentRepository = (*IncidentRepository)(nil)

func NewIncidentRepository(pool *ConnectionPool) *IncidentRepository {
	return &IncidentRepository{pool: pool}
}

const incidentColumns = "id, resource_id, reporter_id, reservation_id, title, description, priority, state, resolver_notes, resolver_id, version, created_at, updated_at"

// CreateIncident inserts a new incident row at version 1.
func (r *IncidentRepository) CreateIncident(ctx context.Context, incident persistence.Incident) error {
	if incident.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if incident.Version == 0 {
		incident.Version = 1
	}

	query := `
		INSERT INTO incidents (` + incidentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		incident.ID,
		incident.ResourceID,
		incident.ReporterID,
		incident.ReservationID,
		incident.Title,
		incident.Description,
		string(incident.Priority),
		string(incident.State),
		incident.ResolverNotes,
		nullString(incident.ResolverID),
		incident.Version,
		formatTime(incident.CreatedAt),
		formatTime(incident.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateIncident persists the incident only when the stored version equals
// expectedVersion, incrementing the version on success.
func (r *IncidentRepository) UpdateIncident(ctx context.Context, incident persistence.Incident, expectedVersion int64) error {
	query := `
		UPDATE incidents
		SET title = ?, description = ?, priority = ?, state = ?, resolver_notes = ?, resolver_id = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		incident.Title,
		incident.Description,
		string(incident.Priority),
		string(incident.State),
		incident.ResolverNotes,
		nullString(incident.ResolverID),
		formatTime(incident.UpdatedAt),
		incident.ID,
		expectedVersion,
	)
	if err != nil {
		return mapSQLiteError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return mapSQLiteError(err)
	}
	if affected == 0 {
		// Distinguish a missing row from a stale version.
		if _, getErr := r.GetIncident(ctx, incident.ID); getErr != nil {
			return getErr
		}
		return persistence.ErrVersionMismatch
	}
	return nil
}

// GetIncident retrieves an incident by ID.
func (r *IncidentRepository) GetIncident(ctx context.Context, id string) (persistence.Incident, error) {
	if id == "" {
		return persistence.Incident{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = ?`, id)
	return scanIncident(row)
}

// ListIncidents returns incidents matching the filter, newest first.
func (r *IncidentRepository) ListIncidents(ctx context.Context, filter persistence.IncidentFilter) ([]persistence.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents`

	var conditions []string
	var args []any

	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.ReporterID != "" {
		conditions = append(conditions, "reporter_id = ?")
		args = append(args, filter.ReporterID)
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
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var incidents []persistence.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return incidents, nil
}

// DeleteIncident removes an incident row.
func (r *IncidentRepository) DeleteIncident(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

func scanIncident(row rowScanner) (persistence.Incident, error) {
	var incident persistence.Incident
	var priority, state, createdAt, updatedAt string
	var resolverID sql.NullString

	err := row.Scan(
		&incident.ID,
		&incident.ResourceID,
		&incident.ReporterID,
		&incident.ReservationID,
		&incident.Title,
		&incident.Description,
		&priority,
		&state,
		&incident.ResolverNotes,
		&resolverID,
		&incident.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Incident{}, mapSQLiteError(err)
	}

	incident.Priority = persistence.IncidentPriority(priority)
	incident.State = persistence.IncidentState(state)
	incident.ResolverID = stringPtr(resolverID)

	if incident.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Incident{}, err
	}
	if incident.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Incident{}, err
	}
	return incident, nil
}
