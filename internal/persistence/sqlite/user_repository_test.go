package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/resource-booking/internal/persistence"
	"github.com/example/resource-booking/internal/persistence/sqlite"
	"github.com/example/resource-booking/internal/testfixtures"
)

func TestUserRepository_EmailIsUniqueCaseInsensitive(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	seedUser(t, pool, "user-1")
	repo := sqlite.NewUserRepository(pool)

	err := repo.CreateUser(context.Background(), persistence.User{
		ID:           "user-2",
		Email:        "USER-1@Example.com",
		DisplayName:  "Impostor",
		Role:         persistence.RoleMember,
		PasswordHash: "hash",
		CreatedAt:    testfixtures.BaseTime,
		UpdatedAt:    testfixtures.BaseTime,
	})
	require.ErrorIs(t, err, persistence.ErrDuplicate)
}

func TestUserRepository_GetByEmailIgnoresCase(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	seedUser(t, pool, "user-1")

	stored, err := sqlite.NewUserRepository(pool).GetUserByEmail(context.Background(), "USER-1@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.ID)
}

func TestUserRepository_LockoutFieldsRoundTrip(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	user := seedUser(t, pool, "user-1")
	repo := sqlite.NewUserRepository(pool)

	failedAt := testfixtures.BaseTime.Add(time.Minute)
	user.FailedAttempts = 3
	user.LastFailedAt = &failedAt
	user.UpdatedAt = failedAt
	require.NoError(t, repo.UpdateUser(context.Background(), user))

	stored, err := repo.GetUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.FailedAttempts)
	require.NotNil(t, stored.LastFailedAt)
	assert.True(t, stored.LastFailedAt.Equal(failedAt))

	// Clearing the counter nulls the timestamp again.
	stored.FailedAttempts = 0
	stored.LastFailedAt = nil
	require.NoError(t, repo.UpdateUser(context.Background(), stored))

	cleared, err := repo.GetUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, cleared.FailedAttempts)
	assert.Nil(t, cleared.LastFailedAt)
}

func TestUserRepository_ListUsersByRole(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	seedUser(t, pool, "user-1")
	repo := sqlite.NewUserRepository(pool)

	staff := persistence.User{
		ID:           "staff-1",
		Email:        "staff-1@example.com",
		DisplayName:  "Staff One",
		Role:         persistence.RoleStaff,
		PasswordHash: "hash",
		CreatedAt:    testfixtures.BaseTime,
		UpdatedAt:    testfixtures.BaseTime,
	}
	admin := persistence.User{
		ID:           "admin-1",
		Email:        "admin-1@example.com",
		DisplayName:  "Admin One",
		Role:         persistence.RoleAdmin,
		PasswordHash: "hash",
		CreatedAt:    testfixtures.BaseTime.Add(time.Minute),
		UpdatedAt:    testfixtures.BaseTime.Add(time.Minute),
	}
	require.NoError(t, repo.CreateUser(context.Background(), staff))
	require.NoError(t, repo.CreateUser(context.Background(), admin))

	privileged, err := repo.ListUsersByRole(context.Background(), []persistence.UserRole{persistence.RoleStaff, persistence.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, privileged, 2)
	assert.Equal(t, "staff-1", privileged[0].ID)
	assert.Equal(t, "admin-1", privileged[1].ID)

	none, err := repo.ListUsersByRole(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserRepository_DeleteMissingRowReportsNotFound(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	err := sqlite.NewUserRepository(pool).DeleteUser(context.Background(), "user-missing")
	require.ErrorIs(t, err, persistence.ErrNotFound)
}
