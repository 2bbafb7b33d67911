package sqlite

import (
	"context"
	"strings"

	"github.com/example/resource-booking/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository using SQLite.
type ReservationRepository struct {
	pool *ConnectionPool
}

// NewReservationRepository creates a new SQLite reservation repository.
var _ persistence.ReservationRepository = (*ReservationRepository)(nil)

func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

const reservationColumns = "id, resource_id, requester_id, start_time, end_time, purpose, state, created_at, updated_at"

// CreateReservation inserts a new reservation row.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		reservation.ID,
		reservation.ResourceID,
		reservation.RequesterID,
		formatTime(reservation.Start),
		formatTime(reservation.End),
		reservation.Purpose,
		string(reservation.State),
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateReservation persists changes to an existing reservation row. The
// requester and creation timestamp never change after insert.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	query := `
		UPDATE reservations
		SET resource_id = ?, start_time = ?, end_time = ?, purpose = ?, state = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		reservation.ResourceID,
		formatTime(reservation.Start),
		formatTime(reservation.End),
		reservation.Purpose,
		string(reservation.State),
		formatTime(reservation.UpdatedAt),
		reservation.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// GetReservation retrieves a reservation by ID.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// ListReservations returns reservations matching the filter ordered by start time.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query, args := buildReservationQuery(filter)

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return reservations, nil
}

// DeleteReservation removes a reservation row.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

func buildReservationQuery(filter persistence.ReservationFilter) (string, []any) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`

	var conditions []string
	var args []any

	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			placeholders[i] = "?"
			args = append(args, string(state))
		}
		conditions = append(conditions, "state IN ("+strings.Join(placeholders, ",")+")")
	}
	if filter.ExcludeID != "" {
		conditions = append(conditions, "id <> ?")
		args = append(args, filter.ExcludeID)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "start_time > ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "end_time < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"
	return query, args
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var start, end, state, createdAt, updatedAt string

	err := row.Scan(
		&reservation.ID,
		&reservation.ResourceID,
		&reservation.RequesterID,
		&start,
		&end,
		&reservation.Purpose,
		&state,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Reservation{}, mapSQLiteError(err)
	}

	reservation.State = persistence.ReservationState(state)

	if reservation.Start, err = parseTime(start, "start_time"); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.End, err = parseTime(end, "end_time"); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}
