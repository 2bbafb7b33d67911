package testfixtures

import (
	"time"

	"github.com/example/resource-booking/internal/application"
)

// BaseTime is an arbitrary fixed reference instant used across suites.
var BaseTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// Member returns a non-privileged principal.
func Member(id string) application.Principal {
	return application.Principal{UserID: id, Role: application.RoleMember}
}

// Staff returns a staff principal.
func Staff(id string) application.Principal {
	return application.Principal{UserID: id, Role: application.RoleStaff}
}

// Admin returns an admin principal.
func Admin(id string) application.Principal {
	return application.Principal{UserID: id, Role: application.RoleAdmin}
}

// Resource returns an offerable resource with sensible defaults.
func Resource(id string) application.Resource {
	return application.Resource{
		ID:        id,
		Name:      "Resource " + id,
		Kind:      "room",
		Location:  "Building A",
		State:     application.ResourceAvailable,
		Bookable:  true,
		CreatedAt: BaseTime,
		UpdatedAt: BaseTime,
	}
}

// Reservation returns a confirmed reservation spanning one hour from start.
func Reservation(id, resourceID, requesterID string, start time.Time) application.Reservation {
	return application.Reservation{
		ID:          id,
		ResourceID:  resourceID,
		RequesterID: requesterID,
		Start:       start,
		End:         start.Add(time.Hour),
		Purpose:     "team meeting",
		State:       application.ReservationConfirmed,
		CreatedAt:   BaseTime,
		UpdatedAt:   BaseTime,
	}
}

// MaintenanceWindow returns a pending window starting at start with no end.
func MaintenanceWindow(id, resourceID, performerID string, start time.Time) application.MaintenanceWindow {
	return application.MaintenanceWindow{
		ID:          id,
		ResourceID:  resourceID,
		PerformerID: performerID,
		Start:       start,
		State:       application.MaintenancePending,
		Description: "scheduled inspection",
		CreatedAt:   BaseTime,
		UpdatedAt:   BaseTime,
	}
}

// Incident returns a freshly reported incident at version 1.
func Incident(id, resourceID, reporterID, reservationID string, createdAt time.Time) application.Incident {
	return application.Incident{
		ID:            id,
		ResourceID:    resourceID,
		ReporterID:    reporterID,
		ReservationID: reservationID,
		Title:         "projector flickers",
		Description:   "the projector cuts out intermittently",
		Priority:      application.PriorityMedium,
		State:         application.IncidentReported,
		Version:       1,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

// User returns a member account with sensible defaults.
func User(id string) application.User {
	return application.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "User " + id,
		Role:        application.RoleMember,
		CreatedAt:   BaseTime,
		UpdatedAt:   BaseTime,
	}
}
