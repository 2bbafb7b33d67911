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

func TestNotificationRepository_ListNewestFirst(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	seedUser(t, pool, "user-1")
	seedUser(t, pool, "user-2")
	seedResource(t, pool, "room-1")
	seedReservation(t, pool, "resv-1", "room-1", "user-1", testfixtures.BaseTime.Add(time.Hour))
	repo := sqlite.NewNotificationRepository(pool)

	reservationID := "resv-1"
	require.NoError(t, repo.CreateNotifications(context.Background(), []persistence.Notification{
		{ID: "note-old", RecipientID: "user-1", ReservationID: &reservationID, Message: "requested", CreatedAt: testfixtures.BaseTime},
		{ID: "note-new", RecipientID: "user-1", Message: "confirmed", CreatedAt: testfixtures.BaseTime.Add(time.Minute)},
		{ID: "note-other", RecipientID: "user-2", Message: "unrelated", CreatedAt: testfixtures.BaseTime},
	}))

	inbox, err := repo.ListNotificationsForRecipient(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "note-new", inbox[0].ID)
	assert.Equal(t, "note-old", inbox[1].ID)
	assert.Nil(t, inbox[0].ReservationID)
	require.NotNil(t, inbox[1].ReservationID)
	assert.Equal(t, "resv-1", *inbox[1].ReservationID)
}

func TestNotificationRepository_MarkReadScopesToRecipient(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	seedUser(t, pool, "user-1")
	repo := sqlite.NewNotificationRepository(pool)

	require.NoError(t, repo.CreateNotifications(context.Background(), []persistence.Notification{
		{ID: "note-1", RecipientID: "user-1", Message: "requested", CreatedAt: testfixtures.BaseTime},
	}))

	// Another user cannot flip the flag.
	err := repo.MarkNotificationRead(context.Background(), "note-1", "user-2")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, repo.MarkNotificationRead(context.Background(), "note-1", "user-1"))

	inbox, err := repo.ListNotificationsForRecipient(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.True(t, inbox[0].Read)
}

func TestNotificationRepository_CreateEmptyBatchIsNoOp(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	repo := sqlite.NewNotificationRepository(pool)
	require.NoError(t, repo.CreateNotifications(context.Background(), nil))
}
