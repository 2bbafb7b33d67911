package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/resource-booking/internal/persistence"
	"github.com/example/resource-booking/internal/persistence/sqlite"
	"github.com/example/resource-booking/internal/testfixtures"
)

func seedUser(t *testing.T, pool *sqlite.ConnectionPool, id string) persistence.User {
	t.Helper()

	user := persistence.User{
		ID:           id,
		Email:        id + "@example.com",
		DisplayName:  "User " + id,
		Role:         persistence.RoleMember,
		PasswordHash: "hash",
		CreatedAt:    testfixtures.BaseTime,
		UpdatedAt:    testfixtures.BaseTime,
	}
	require.NoError(t, sqlite.NewUserRepository(pool).CreateUser(context.Background(), user))
	return user
}

func seedResource(t *testing.T, pool *sqlite.ConnectionPool, id string) persistence.Resource {
	t.Helper()

	resource := persistence.Resource{
		ID:        id,
		Name:      "Resource " + id,
		Kind:      "room",
		Location:  "Building A",
		State:     persistence.ResourceAvailable,
		Bookable:  true,
		CreatedAt: testfixtures.BaseTime,
		UpdatedAt: testfixtures.BaseTime,
	}
	require.NoError(t, sqlite.NewResourceRepository(pool).CreateResource(context.Background(), resource))
	return resource
}

func seedReservation(t *testing.T, pool *sqlite.ConnectionPool, id, resourceID, requesterID string, start time.Time) persistence.Reservation {
	t.Helper()

	reservation := persistence.Reservation{
		ID:          id,
		ResourceID:  resourceID,
		RequesterID: requesterID,
		Start:       start,
		End:         start.Add(time.Hour),
		Purpose:     "team meeting",
		State:       persistence.ReservationConfirmed,
		CreatedAt:   testfixtures.BaseTime,
		UpdatedAt:   testfixtures.BaseTime,
	}
	require.NoError(t, sqlite.NewReservationRepository(pool).CreateReservation(context.Background(), reservation))
	return reservation
}
