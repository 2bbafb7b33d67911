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

func TestResourceRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	repo := sqlite.NewResourceRepository(pool)
	created := seedResource(t, pool, "room-1")

	stored, err := repo.GetResource(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, created.Name, stored.Name)
	assert.Equal(t, persistence.ResourceAvailable, stored.State)
	assert.True(t, stored.Bookable)

	stored.State = persistence.ResourceDamaged
	stored.Bookable = false
	stored.UpdatedAt = testfixtures.BaseTime.Add(time.Minute)
	require.NoError(t, repo.UpdateResource(context.Background(), stored))

	updated, err := repo.GetResource(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, persistence.ResourceDamaged, updated.State)
	assert.False(t, updated.Bookable)
}

func TestResourceRepository_ListOrdersByName(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	repo := sqlite.NewResourceRepository(pool)

	for _, resource := range []persistence.Resource{
		{ID: "r-1", Name: "Zebra Room", Kind: "room", State: persistence.ResourceAvailable, Bookable: true, CreatedAt: testfixtures.BaseTime, UpdatedAt: testfixtures.BaseTime},
		{ID: "r-2", Name: "Atrium", Kind: "room", State: persistence.ResourceAvailable, Bookable: true, CreatedAt: testfixtures.BaseTime, UpdatedAt: testfixtures.BaseTime},
	} {
		require.NoError(t, repo.CreateResource(context.Background(), resource))
	}

	listed, err := repo.ListResources(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Atrium", listed[0].Name)
	assert.Equal(t, "Zebra Room", listed[1].Name)
}

func TestResourceRepository_ApplyStateCascade(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	seedUser(t, pool, "user-1")
	resource := seedResource(t, pool, "room-1")
	seedReservation(t, pool, "resv-1", "room-1", "user-1", testfixtures.BaseTime.Add(time.Hour))
	seedReservation(t, pool, "resv-2", "room-1", "user-1", testfixtures.BaseTime.Add(3*time.Hour))

	now := testfixtures.BaseTime.Add(time.Minute)
	resource.State = persistence.ResourceRetired
	resource.Bookable = false
	resource.UpdatedAt = now

	cancelled := []persistence.Reservation{
		{ID: "resv-1", State: persistence.ReservationCancelled, UpdatedAt: now},
		{ID: "resv-2", State: persistence.ReservationCancelled, UpdatedAt: now},
	}
	notifications := []persistence.Notification{
		{ID: "note-1", RecipientID: "user-1", Message: "Resource room-1 is no longer available.", CreatedAt: now},
	}

	repo := sqlite.NewResourceRepository(pool)
	require.NoError(t, repo.ApplyStateCascade(context.Background(), resource, cancelled, notifications))

	stored, err := repo.GetResource(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, persistence.ResourceRetired, stored.State)
	assert.False(t, stored.Bookable)

	reservations, err := sqlite.NewReservationRepository(pool).ListReservations(context.Background(), persistence.ReservationFilter{ResourceID: "room-1"})
	require.NoError(t, err)
	require.Len(t, reservations, 2)
	for _, reservation := range reservations {
		assert.Equal(t, persistence.ReservationCancelled, reservation.State)
	}

	inbox, err := sqlite.NewNotificationRepository(pool).ListNotificationsForRecipient(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "note-1", inbox[0].ID)
}

func TestResourceRepository_CascadeRollsBackOnMissingReservation(t *testing.T) {
	t.Parallel()

	pool := testfixtures.OpenSQLite(t)
	seedUser(t, pool, "user-1")
	resource := seedResource(t, pool, "room-1")
	seedReservation(t, pool, "resv-1", "room-1", "user-1", testfixtures.BaseTime.Add(time.Hour))

	now := testfixtures.BaseTime.Add(time.Minute)
	resource.State = persistence.ResourceDamaged
	resource.Bookable = false
	resource.UpdatedAt = now

	repo := sqlite.NewResourceRepository(pool)
	err := repo.ApplyStateCascade(context.Background(), resource, []persistence.Reservation{
		{ID: "resv-1", State: persistence.ReservationCancelled, UpdatedAt: now},
		{ID: "resv-missing", State: persistence.ReservationCancelled, UpdatedAt: now},
	}, nil)
	require.ErrorIs(t, err, persistence.ErrNotFound)

	// The whole cascade must roll back, including the parts that succeeded.
	stored, err := repo.GetResource(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, persistence.ResourceAvailable, stored.State)
	assert.True(t, stored.Bookable)

	reservation, err := sqlite.NewReservationRepository(pool).GetReservation(context.Background(), "resv-1")
	require.NoError(t, err)
	assert.Equal(t, persistence.ReservationConfirmed, reservation.State)
}
