package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/resource-booking/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a new SQLite user repository.
var _ persistence.UserRepository = (*UserRepository)(nil)

func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = "id, email, display_name, role, password_hash, disabled, failed_attempts, last_failed_at, created_at, updated_at"

// CreateUser inserts a new user row.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		string(user.Role),
		user.PasswordHash,
		boolToInt(user.Disabled),
		user.FailedAttempts,
		formatNullTime(user.LastFailedAt),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateUser persists changes to an existing user row.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	query := `
		UPDATE users
		SET email = ?, display_name = ?, role = ?, password_hash = ?, disabled = ?, failed_attempts = ?, last_failed_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		user.Email,
		user.DisplayName,
		string(user.Role),
		user.PasswordHash,
		boolToInt(user.Disabled),
		user.FailedAttempts,
		formatNullTime(user.LastFailedAt),
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email address (case-insensitive).
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	return scanUser(row)
}

// ListUsers returns all users ordered by creation time.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
}

// ListUsersByRole returns users holding any of the supplied roles.
func (r *UserRepository) ListUsersByRole(ctx context.Context, roles []persistence.UserRole) ([]persistence.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(roles))
	args := make([]any, len(roles))
	for i, role := range roles {
		placeholders[i] = "?"
		args[i] = string(role)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE role IN (` + strings.Join(placeholders, ",") + `) ORDER BY created_at ASC, id ASC`
	return r.queryUsers(ctx, query, args...)
}

// DeleteUser removes a user row.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteError(err)
	}
	return requireRowsAffected(result)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return users, nil
}

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var role, createdAt, updatedAt string
	var disabled int
	var lastFailedAt sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&role,
		&user.PasswordHash,
		&disabled,
		&user.FailedAttempts,
		&lastFailedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.User{}, mapSQLiteError(err)
	}

	user.Role = persistence.UserRole(role)
	user.Disabled = disabled != 0

	if user.LastFailedAt, err = parseNullTime(lastFailedAt, "last_failed_at"); err != nil {
		return persistence.User{}, err
	}
	if user.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
