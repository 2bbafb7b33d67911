package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when an insert collides with an existing record.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a check constraint rejects the write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing
	// or still referenced by dependent rows.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrVersionMismatch is returned when an optimistic-concurrency update
	// observes a version other than the one it read.
	ErrVersionMismatch = errors.New("persistence: version mismatch")
)
