package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/resource-booking/internal/persistence/sqlite"
)

// OpenSQLite opens a migrated throwaway database under t.TempDir. The pool is
// closed automatically when the test finishes.
func OpenSQLite(t *testing.T) *sqlite.ConnectionPool {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "booking_test.db") + "?_foreign_keys=on"
	pool, err := sqlite.NewConnectionPool(dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if cerr := pool.Close(); cerr != nil {
			t.Errorf("failed to close test database: %v", cerr)
		}
	})

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return pool
}
