package main

import (
	"context"
	"time"

	"github.com/example/resource-booking/internal/application"
	"github.com/example/resource-booking/internal/persistence"
	"github.com/example/resource-booking/internal/persistence/sqlite"
)

type resourceRepositoryAdapter struct {
	repo *sqlite.ResourceRepository
}

func newResourceRepositoryAdapter(repo *sqlite.ResourceRepository) *resourceRepositoryAdapter {
	return &resourceRepositoryAdapter{repo: repo}
}

func (a *resourceRepositoryAdapter) CreateResource(ctx context.Context, resource application.Resource) (application.Resource, error) {
	if err := a.repo.CreateResource(ctx, toPersistenceResource(resource)); err != nil {
		return application.Resource{}, err
	}
	stored, err := a.repo.GetResource(ctx, resource.ID)
	if err != nil {
		return application.Resource{}, err
	}
	return toApplicationResource(stored), nil
}

func (a *resourceRepositoryAdapter) GetResource(ctx context.Context, id string) (application.Resource, error) {
	stored, err := a.repo.GetResource(ctx, id)
	if err != nil {
		return application.Resource{}, err
	}
	return toApplicationResource(stored), nil
}

func (a *resourceRepositoryAdapter) UpdateResource(ctx context.Context, resource application.Resource) (application.Resource, error) {
	if err := a.repo.UpdateResource(ctx, toPersistenceResource(resource)); err != nil {
		return application.Resource{}, err
	}
	stored, err := a.repo.GetResource(ctx, resource.ID)
	if err != nil {
		return application.Resource{}, err
	}
	return toApplicationResource(stored), nil
}

func (a *resourceRepositoryAdapter) ListResources(ctx context.Context) ([]application.Resource, error) {
	models, err := a.repo.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	resources := make([]application.Resource, 0, len(models))
	for _, model := range models {
		resources = append(resources, toApplicationResource(model))
	}
	return resources, nil
}

func (a *resourceRepositoryAdapter) DeleteResource(ctx context.Context, id string) error {
	return a.repo.DeleteResource(ctx, id)
}

func (a *resourceRepositoryAdapter) ApplyStateCascade(ctx context.Context, resource application.Resource, cancelled []application.Reservation, notifications []application.Notification) error {
	persistedCancelled := make([]persistence.Reservation, 0, len(cancelled))
	for _, reservation := range cancelled {
		persistedCancelled = append(persistedCancelled, toPersistenceReservation(reservation))
	}
	persistedNotifications := make([]persistence.Notification, 0, len(notifications))
	for _, notification := range notifications {
		persistedNotifications = append(persistedNotifications, toPersistenceNotification(notification))
	}
	return a.repo.ApplyStateCascade(ctx, toPersistenceResource(resource), persistedCancelled, persistedNotifications)
}

type reservationRepositoryAdapter struct {
	repo *sqlite.ReservationRepository
}

func newReservationRepositoryAdapter(repo *sqlite.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.CreateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	stored, err := a.repo.GetReservation(ctx, reservation.ID)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) UpdateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.UpdateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	stored, err := a.repo.GetReservation(ctx, reservation.ID)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) DeleteReservation(ctx context.Context, id string) error {
	return a.repo.DeleteReservation(ctx, id)
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context, filter application.ReservationRepositoryFilter) ([]application.Reservation, error) {
	states := make([]persistence.ReservationState, 0, len(filter.States))
	for _, state := range filter.States {
		states = append(states, persistence.ReservationState(state))
	}
	models, err := a.repo.ListReservations(ctx, persistence.ReservationFilter{
		ResourceID:  filter.ResourceID,
		RequesterID: filter.RequesterID,
		States:      states,
		ExcludeID:   filter.ExcludeID,
		StartsAfter: cloneTime(filter.StartsAfter),
		EndsBefore:  cloneTime(filter.EndsBefore),
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations, nil
}

type maintenanceRepositoryAdapter struct {
	repo *sqlite.MaintenanceRepository
}

func newMaintenanceRepositoryAdapter(repo *sqlite.MaintenanceRepository) *maintenanceRepositoryAdapter {
	return &maintenanceRepositoryAdapter{repo: repo}
}

func (a *maintenanceRepositoryAdapter) CreateMaintenanceWindow(ctx context.Context, window application.MaintenanceWindow) (application.MaintenanceWindow, error) {
	if err := a.repo.CreateMaintenanceWindow(ctx, toPersistenceMaintenanceWindow(window)); err != nil {
		return application.MaintenanceWindow{}, err
	}
	stored, err := a.repo.GetMaintenanceWindow(ctx, window.ID)
	if err != nil {
		return application.MaintenanceWindow{}, err
	}
	return toApplicationMaintenanceWindow(stored), nil
}

func (a *maintenanceRepositoryAdapter) GetMaintenanceWindow(ctx context.Context, id string) (application.MaintenanceWindow, error) {
	stored, err := a.repo.GetMaintenanceWindow(ctx, id)
	if err != nil {
		return application.MaintenanceWindow{}, err
	}
	return toApplicationMaintenanceWindow(stored), nil
}

func (a *maintenanceRepositoryAdapter) UpdateMaintenanceWindow(ctx context.Context, window application.MaintenanceWindow) (application.MaintenanceWindow, error) {
	if err := a.repo.UpdateMaintenanceWindow(ctx, toPersistenceMaintenanceWindow(window)); err != nil {
		return application.MaintenanceWindow{}, err
	}
	stored, err := a.repo.GetMaintenanceWindow(ctx, window.ID)
	if err != nil {
		return application.MaintenanceWindow{}, err
	}
	return toApplicationMaintenanceWindow(stored), nil
}

func (a *maintenanceRepositoryAdapter) ListMaintenanceWindows(ctx context.Context, filter application.MaintenanceRepositoryFilter) ([]application.MaintenanceWindow, error) {
	states := make([]persistence.MaintenanceState, 0, len(filter.States))
	for _, state := range filter.States {
		states = append(states, persistence.MaintenanceState(state))
	}
	models, err := a.repo.ListMaintenanceWindows(ctx, persistence.MaintenanceFilter{
		ResourceID: filter.ResourceID,
		States:     states,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	windows := make([]application.MaintenanceWindow, 0, len(models))
	for _, model := range models {
		windows = append(windows, toApplicationMaintenanceWindow(model))
	}
	return windows, nil
}

type incidentRepositoryAdapter struct {
	repo *sqlite.IncidentRepository
}

func newIncidentRepositoryAdapter(repo *sqlite.IncidentRepository) *incidentRepositoryAdapter {
	return &incidentRepositoryAdapter{repo: repo}
}

func (a *incidentRepositoryAdapter) CreateIncident(ctx context.Context, incident application.Incident) (application.Incident, error) {
	if err := a.repo.CreateIncident(ctx, toPersistenceIncident(incident)); err != nil {
		return application.Incident{}, err
	}
	stored, err := a.repo.GetIncident(ctx, incident.ID)
	if err != nil {
		return application.Incident{}, err
	}
	return toApplicationIncident(stored), nil
}

func (a *incidentRepositoryAdapter) GetIncident(ctx context.Context, id string) (application.Incident, error) {
	stored, err := a.repo.GetIncident(ctx, id)
	if err != nil {
		return application.Incident{}, err
	}
	return toApplicationIncident(stored), nil
}

func (a *incidentRepositoryAdapter) UpdateIncident(ctx context.Context, incident application.Incident, expectedVersion int64) (application.Incident, error) {
	if err := a.repo.UpdateIncident(ctx, toPersistenceIncident(incident), expectedVersion); err != nil {
		return application.Incident{}, err
	}
	stored, err := a.repo.GetIncident(ctx, incident.ID)
	if err != nil {
		return application.Incident{}, err
	}
	return toApplicationIncident(stored), nil
}

func (a *incidentRepositoryAdapter) ListIncidents(ctx context.Context, filter application.IncidentRepositoryFilter) ([]application.Incident, error) {
	states := make([]persistence.IncidentState, 0, len(filter.States))
	for _, state := range filter.States {
		states = append(states, persistence.IncidentState(state))
	}
	models, err := a.repo.ListIncidents(ctx, persistence.IncidentFilter{
		ResourceID: filter.ResourceID,
		ReporterID: filter.ReporterID,
		States:     states,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	incidents := make([]application.Incident, 0, len(models))
	for _, model := range models {
		incidents = append(incidents, toApplicationIncident(model))
	}
	return incidents, nil
}

func (a *incidentRepositoryAdapter) DeleteIncident(ctx context.Context, id string) error {
	return a.repo.DeleteIncident(ctx, id)
}

type notificationRepositoryAdapter struct {
	repo *sqlite.NotificationRepository
}

func newNotificationRepositoryAdapter(repo *sqlite.NotificationRepository) *notificationRepositoryAdapter {
	return &notificationRepositoryAdapter{repo: repo}
}

func (a *notificationRepositoryAdapter) CreateNotifications(ctx context.Context, notifications []application.Notification) error {
	models := make([]persistence.Notification, 0, len(notifications))
	for _, notification := range notifications {
		models = append(models, toPersistenceNotification(notification))
	}
	return a.repo.CreateNotifications(ctx, models)
}

func (a *notificationRepositoryAdapter) ListNotificationsForRecipient(ctx context.Context, recipientID string) ([]application.Notification, error) {
	models, err := a.repo.ListNotificationsForRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	notifications := make([]application.Notification, 0, len(models))
	for _, model := range models {
		notifications = append(notifications, toApplicationNotification(model))
	}
	return notifications, nil
}

func (a *notificationRepositoryAdapter) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	return a.repo.MarkNotificationRead(ctx, id, recipientID)
}

type privilegedDirectoryAdapter struct {
	repo *sqlite.UserRepository
}

func newPrivilegedDirectoryAdapter(repo *sqlite.UserRepository) *privilegedDirectoryAdapter {
	return &privilegedDirectoryAdapter{repo: repo}
}

func (a *privilegedDirectoryAdapter) ListPrivilegedUserIDs(ctx context.Context) ([]string, error) {
	models, err := a.repo.ListUsersByRole(ctx, []persistence.UserRole{persistence.RoleStaff, persistence.RoleAdmin})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(models))
	for _, model := range models {
		ids = append(ids, model.ID)
	}
	return ids, nil
}

type userRepositoryAdapter struct {
	repo *sqlite.UserRepository
}

func newUserRepositoryAdapter(repo *sqlite.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

// UpdateUser keeps the stored hash and lockout counters when passwordHash is
// empty.
func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	current, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	if passwordHash == "" {
		passwordHash = current.PasswordHash
	}
	model := toPersistenceUser(user, passwordHash)
	model.Disabled = current.Disabled
	model.FailedAttempts = current.FailedAttempts
	model.LastFailedAt = cloneTime(current.LastFailedAt)
	if err := a.repo.UpdateUser(ctx, model); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type credentialStoreAdapter struct {
	repo *sqlite.UserRepository
}

func newCredentialStoreAdapter(repo *sqlite.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:           toApplicationUser(stored),
		PasswordHash:   stored.PasswordHash,
		Disabled:       stored.Disabled,
		FailedAttempts: stored.FailedAttempts,
		LastFailedAt:   cloneTime(stored.LastFailedAt),
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *credentialStoreAdapter) RecordFailedLogin(ctx context.Context, userID string, attempts int, at time.Time) error {
	stored, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	stored.FailedAttempts = attempts
	stored.LastFailedAt = &at
	return a.repo.UpdateUser(ctx, stored)
}

func (a *credentialStoreAdapter) ClearFailedLogins(ctx context.Context, userID string) error {
	stored, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if stored.FailedAttempts == 0 && stored.LastFailedAt == nil {
		return nil
	}
	stored.FailedAttempts = 0
	stored.LastFailedAt = nil
	return a.repo.UpdateUser(ctx, stored)
}

type sessionRepositoryAdapter struct {
	repo *sqlite.SessionRepository
}

func newSessionRepositoryAdapter(repo *sqlite.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func toApplicationResource(model persistence.Resource) application.Resource {
	return application.Resource{
		ID:        model.ID,
		Name:      model.Name,
		Kind:      model.Kind,
		Location:  model.Location,
		State:     application.ResourceState(model.State),
		Bookable:  model.Bookable,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceResource(resource application.Resource) persistence.Resource {
	return persistence.Resource{
		ID:        resource.ID,
		Name:      resource.Name,
		Kind:      resource.Kind,
		Location:  resource.Location,
		State:     persistence.ResourceState(resource.State),
		Bookable:  resource.Bookable,
		CreatedAt: resource.CreatedAt,
		UpdatedAt: resource.UpdatedAt,
	}
}

func toApplicationReservation(model persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:          model.ID,
		ResourceID:  model.ResourceID,
		RequesterID: model.RequesterID,
		Start:       model.Start,
		End:         model.End,
		Purpose:     model.Purpose,
		State:       application.ReservationState(model.State),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:          reservation.ID,
		ResourceID:  reservation.ResourceID,
		RequesterID: reservation.RequesterID,
		Start:       reservation.Start,
		End:         reservation.End,
		Purpose:     reservation.Purpose,
		State:       persistence.ReservationState(reservation.State),
		CreatedAt:   reservation.CreatedAt,
		UpdatedAt:   reservation.UpdatedAt,
	}
}

func toApplicationMaintenanceWindow(model persistence.MaintenanceWindow) application.MaintenanceWindow {
	return application.MaintenanceWindow{
		ID:          model.ID,
		ResourceID:  model.ResourceID,
		PerformerID: model.PerformerID,
		Start:       model.Start,
		End:         cloneTime(model.End),
		State:       application.MaintenanceState(model.State),
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceMaintenanceWindow(window application.MaintenanceWindow) persistence.MaintenanceWindow {
	return persistence.MaintenanceWindow{
		ID:          window.ID,
		ResourceID:  window.ResourceID,
		PerformerID: window.PerformerID,
		Start:       window.Start,
		End:         cloneTime(window.End),
		State:       persistence.MaintenanceState(window.State),
		Description: window.Description,
		CreatedAt:   window.CreatedAt,
		UpdatedAt:   window.UpdatedAt,
	}
}

func toApplicationIncident(model persistence.Incident) application.Incident {
	return application.Incident{
		ID:            model.ID,
		ResourceID:    model.ResourceID,
		ReporterID:    model.ReporterID,
		ReservationID: model.ReservationID,
		Title:         model.Title,
		Description:   model.Description,
		Priority:      application.IncidentPriority(model.Priority),
		State:         application.IncidentState(model.State),
		ResolverNotes: model.ResolverNotes,
		ResolverID:    cloneString(model.ResolverID),
		Version:       model.Version,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toPersistenceIncident(incident application.Incident) persistence.Incident {
	return persistence.Incident{
		ID:            incident.ID,
		ResourceID:    incident.ResourceID,
		ReporterID:    incident.ReporterID,
		ReservationID: incident.ReservationID,
		Title:         incident.Title,
		Description:   incident.Description,
		Priority:      persistence.IncidentPriority(incident.Priority),
		State:         persistence.IncidentState(incident.State),
		ResolverNotes: incident.ResolverNotes,
		ResolverID:    cloneString(incident.ResolverID),
		Version:       incident.Version,
		CreatedAt:     incident.CreatedAt,
		UpdatedAt:     incident.UpdatedAt,
	}
}

func toApplicationNotification(model persistence.Notification) application.Notification {
	return application.Notification{
		ID:            model.ID,
		RecipientID:   model.RecipientID,
		ReservationID: cloneString(model.ReservationID),
		Message:       model.Message,
		Read:          model.Read,
		CreatedAt:     model.CreatedAt,
	}
}

func toPersistenceNotification(notification application.Notification) persistence.Notification {
	return persistence.Notification{
		ID:            notification.ID,
		RecipientID:   notification.RecipientID,
		ReservationID: cloneString(notification.ReservationID),
		Message:       notification.Message,
		Read:          notification.Read,
		CreatedAt:     notification.CreatedAt,
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		Role:        application.Role(model.Role),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         persistence.UserRole(user.Role),
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
