package sqlite

import "context"

// Migrate applies the idempotent schema. Every statement is safe to re-run
// on an already-migrated database.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		display_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		password_hash TEXT NOT NULL,
		disabled INTEGER NOT NULL DEFAULT 0,
		failed_attempts INTEGER NOT NULL DEFAULT 0,
		last_failed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		token TEXT NOT NULL UNIQUE,
		fingerprint TEXT NOT NULL DEFAULT '',
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	);

	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		location TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'available'
			CHECK (state IN ('available', 'maintenance', 'damaged', 'retired')),
		bookable INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id),
		requester_id TEXT NOT NULL REFERENCES users(id),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		purpose TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT 'pending'
			CHECK (state IN ('pending', 'confirmed', 'cancelled', 'completed')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_time > start_time)
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_resource_state
		ON reservations(resource_id, state);

	CREATE TABLE IF NOT EXISTS maintenance_windows (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id),
		performer_id TEXT NOT NULL REFERENCES users(id),
		start_time TEXT NOT NULL,
		end_time TEXT,
		state TEXT NOT NULL DEFAULT 'pending'
			CHECK (state IN ('pending', 'in_progress', 'completed')),
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_maintenance_resource_state
		ON maintenance_windows(resource_id, state);

	CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id),
		reporter_id TEXT NOT NULL REFERENCES users(id),
		reservation_id TEXT NOT NULL REFERENCES reservations(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium'
			CHECK (priority IN ('low', 'medium', 'high', 'critical')),
		state TEXT NOT NULL DEFAULT 'reported'
			CHECK (state IN ('reported', 'in_review', 'in_progress', 'resolved', 'closed')),
		resolver_notes TEXT NOT NULL DEFAULT '',
		resolver_id TEXT REFERENCES users(id),
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		recipient_id TEXT NOT NULL REFERENCES users(id),
		reservation_id TEXT REFERENCES reservations(id),
		message TEXT NOT NULL,
		read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_recipient
		ON notifications(recipient_id, read);
	`

	if _, err := cp.db.ExecContext(ctx, schema); err != nil {
		return mapSQLiteError(err)
	}
	return nil
}
