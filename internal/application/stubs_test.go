package application

import (
	"context"
	"fmt"
	"time"
)

// testDay anchors every test clock so intervals can be written as hour
// offsets.
var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func hourOf(h int) time.Time {
	return testDay.Add(time.Duration(h) * time.Hour)
}

func clockAt(instant time.Time) func() time.Time {
	return func() time.Time { return instant }
}

func sequenceIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

type resourceReaderStub struct {
	resource Resource
	err      error
}

func (r *resourceReaderStub) GetResource(ctx context.Context, id string) (Resource, error) {
	if r.err != nil {
		return Resource{}, r.err
	}
	if r.resource.ID == "" || r.resource.ID != id {
		return Resource{}, ErrNotFound
	}
	return r.resource, nil
}

type reservationRepoStub struct {
	reservation Reservation
	created     Reservation
	updated     Reservation
	deletedID   string
	list        []Reservation
	lastFilter  ReservationRepositoryFilter
	listCalls   int
	err         error
	listErr     error
}

func (s *reservationRepoStub) CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	if s.err != nil {
		return Reservation{}, s.err
	}
	s.created = reservation
	// New rows join the listable set so follow-up conflict checks see them.
	s.list = append(s.list, reservation)
	return reservation, nil
}

func (s *reservationRepoStub) GetReservation(ctx context.Context, id string) (Reservation, error) {
	if s.err != nil {
		return Reservation{}, s.err
	}
	if s.reservation.ID == "" {
		return Reservation{}, ErrNotFound
	}
	return s.reservation, nil
}

func (s *reservationRepoStub) UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	if s.err != nil {
		return Reservation{}, s.err
	}
	s.updated = reservation
	return reservation, nil
}

func (s *reservationRepoStub) DeleteReservation(ctx context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deletedID = id
	return nil
}

// ListReservations applies the filter the way the real repository does so
// conflict and cascade paths see realistic result sets.
func (s *reservationRepoStub) ListReservations(ctx context.Context, filter ReservationRepositoryFilter) ([]Reservation, error) {
	s.listCalls++
	s.lastFilter = filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Reservation
	for _, reservation := range s.list {
		if filter.ResourceID != "" && reservation.ResourceID != filter.ResourceID {
			continue
		}
		if filter.RequesterID != "" && reservation.RequesterID != filter.RequesterID {
			continue
		}
		if filter.ExcludeID != "" && reservation.ID == filter.ExcludeID {
			continue
		}
		if filter.StartsAfter != nil && !reservation.Start.After(*filter.StartsAfter) {
			continue
		}
		if len(filter.States) > 0 && !containsReservationState(filter.States, reservation.State) {
			continue
		}
		out = append(out, reservation)
	}
	return out, nil
}

func containsReservationState(states []ReservationState, state ReservationState) bool {
	for _, candidate := range states {
		if candidate == state {
			return true
		}
	}
	return false
}

type maintenanceRepoStub struct {
	window  MaintenanceWindow
	created MaintenanceWindow
	updated MaintenanceWindow
	list    []MaintenanceWindow
	err     error
	listErr error
}

func (s *maintenanceRepoStub) CreateMaintenanceWindow(ctx context.Context, window MaintenanceWindow) (MaintenanceWindow, error) {
	if s.err != nil {
		return MaintenanceWindow{}, s.err
	}
	s.created = window
	return window, nil
}

func (s *maintenanceRepoStub) GetMaintenanceWindow(ctx context.Context, id string) (MaintenanceWindow, error) {
	if s.err != nil {
		return MaintenanceWindow{}, s.err
	}
	if s.window.ID == "" {
		return MaintenanceWindow{}, ErrNotFound
	}
	return s.window, nil
}

func (s *maintenanceRepoStub) UpdateMaintenanceWindow(ctx context.Context, window MaintenanceWindow) (MaintenanceWindow, error) {
	if s.err != nil {
		return MaintenanceWindow{}, s.err
	}
	s.updated = window
	return window, nil
}

func (s *maintenanceRepoStub) ListMaintenanceWindows(ctx context.Context, filter MaintenanceRepositoryFilter) ([]MaintenanceWindow, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []MaintenanceWindow
	for _, window := range s.list {
		if filter.ResourceID != "" && window.ResourceID != filter.ResourceID {
			continue
		}
		if len(filter.States) > 0 && !containsMaintenanceState(filter.States, window.State) {
			continue
		}
		out = append(out, window)
	}
	return out, nil
}

func containsMaintenanceState(states []MaintenanceState, state MaintenanceState) bool {
	for _, candidate := range states {
		if candidate == state {
			return true
		}
	}
	return false
}

type cascadeCall struct {
	resource      Resource
	cancelled     []Reservation
	notifications []Notification
}

type resourceRepoStub struct {
	resource   Resource
	created    Resource
	updated    Resource
	deletedID  string
	list       []Resource
	cascades   []cascadeCall
	err        error
	deleteErr  error
	cascadeErr error
}

func (s *resourceRepoStub) CreateResource(ctx context.Context, resource Resource) (Resource, error) {
	if s.err != nil {
		return Resource{}, s.err
	}
	s.created = resource
	return resource, nil
}

func (s *resourceRepoStub) GetResource(ctx context.Context, id string) (Resource, error) {
	if s.err != nil {
		return Resource{}, s.err
	}
	if s.resource.ID == "" {
		return Resource{}, ErrNotFound
	}
	return s.resource, nil
}

func (s *resourceRepoStub) UpdateResource(ctx context.Context, resource Resource) (Resource, error) {
	if s.err != nil {
		return Resource{}, s.err
	}
	s.updated = resource
	return resource, nil
}

func (s *resourceRepoStub) ListResources(ctx context.Context) ([]Resource, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Resource, len(s.list))
	copy(out, s.list)
	return out, nil
}

func (s *resourceRepoStub) DeleteResource(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedID = id
	return nil
}

func (s *resourceRepoStub) ApplyStateCascade(ctx context.Context, resource Resource, cancelled []Reservation, notifications []Notification) error {
	if s.cascadeErr != nil {
		return s.cascadeErr
	}
	s.cascades = append(s.cascades, cascadeCall{resource: resource, cancelled: cancelled, notifications: notifications})
	return nil
}

type resourceCascadeStub struct {
	resource       Resource
	forcedState    ResourceState
	forcedBookable bool
	forceCalls     int
	err            error
	forceErr       error
}

func (s *resourceCascadeStub) GetResource(ctx context.Context, id string) (Resource, error) {
	if s.err != nil {
		return Resource{}, s.err
	}
	if s.resource.ID == "" {
		return Resource{}, ErrNotFound
	}
	return s.resource, nil
}

func (s *resourceCascadeStub) ForceState(ctx context.Context, resourceID string, state ResourceState, bookable bool) (Resource, error) {
	if s.forceErr != nil {
		return Resource{}, s.forceErr
	}
	s.forceCalls++
	s.forcedState = state
	s.forcedBookable = bookable
	updated := s.resource
	updated.State = state
	updated.Bookable = bookable
	return updated, nil
}

type incidentRepoStub struct {
	incident       Incident
	created        Incident
	updated        Incident
	updatedVersion int64
	deletedID      string
	list           []Incident
	lastFilter     IncidentRepositoryFilter
	err            error
	updateErr      error
	deleteErr      error
	listErr        error
}

func (s *incidentRepoStub) CreateIncident(ctx context.Context, incident Incident) (Incident, error) {
	if s.err != nil {
		return Incident{}, s.err
	}
	s.created = incident
	return incident, nil
}

func (s *incidentRepoStub) GetIncident(ctx context.Context, id string) (Incident, error) {
	if s.err != nil {
		return Incident{}, s.err
	}
	if s.incident.ID == "" {
		return Incident{}, ErrNotFound
	}
	return s.incident, nil
}

func (s *incidentRepoStub) UpdateIncident(ctx context.Context, incident Incident, expectedVersion int64) (Incident, error) {
	if s.updateErr != nil {
		return Incident{}, s.updateErr
	}
	s.updated = incident
	s.updatedVersion = expectedVersion
	incident.Version = expectedVersion + 1
	return incident, nil
}

func (s *incidentRepoStub) ListIncidents(ctx context.Context, filter IncidentRepositoryFilter) ([]Incident, error) {
	s.lastFilter = filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Incident, len(s.list))
	copy(out, s.list)
	return out, nil
}

func (s *incidentRepoStub) DeleteIncident(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedID = id
	return nil
}

type reservationReaderStub struct {
	reservation Reservation
	err         error
}

func (s *reservationReaderStub) GetReservation(ctx context.Context, id string) (Reservation, error) {
	if s.err != nil {
		return Reservation{}, s.err
	}
	if s.reservation.ID == "" {
		return Reservation{}, ErrNotFound
	}
	return s.reservation, nil
}

type notificationRepoStub struct {
	created         []Notification
	list            []Notification
	createErr       error
	listErr         error
	markErr         error
	markedID        string
	markedRecipient string
}

func (s *notificationRepoStub) CreateNotifications(ctx context.Context, notifications []Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, notifications...)
	return nil
}

func (s *notificationRepoStub) ListNotificationsForRecipient(ctx context.Context, recipientID string) ([]Notification, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Notification, len(s.list))
	copy(out, s.list)
	return out, nil
}

func (s *notificationRepoStub) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.markedID = id
	s.markedRecipient = recipientID
	return nil
}

type privilegedDirectoryStub struct {
	ids []string
	err error
}

func (s *privilegedDirectoryStub) ListPrivilegedUserIDs(ctx context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out, nil
}

type credentialStoreStub struct {
	creds            UserCredentials
	getErr           error
	recordErr        error
	clearErr         error
	recordedAttempts int
	recordedAt       time.Time
	cleared          bool
}

func (s *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	if s.getErr != nil {
		return UserCredentials{}, s.getErr
	}
	if s.creds.User.ID == "" || s.creds.User.Email != email {
		return UserCredentials{}, ErrNotFound
	}
	return s.creds, nil
}

func (s *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	if s.creds.User.ID == "" || s.creds.User.ID != id {
		return User{}, ErrNotFound
	}
	return s.creds.User, nil
}

func (s *credentialStoreStub) RecordFailedLogin(ctx context.Context, userID string, attempts int, at time.Time) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recordedAttempts = attempts
	s.recordedAt = at
	return nil
}

func (s *credentialStoreStub) ClearFailedLogins(ctx context.Context, userID string) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.cleared = true
	return nil
}

type sessionRepoStub struct {
	session            Session
	created            Session
	updated            Session
	revokedToken       string
	deleteExpiredCalls int
	err                error
	revokeErr          error
}

func (s *sessionRepoStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if s.err != nil {
		return Session{}, s.err
	}
	s.created = session
	return session, nil
}

func (s *sessionRepoStub) GetSession(ctx context.Context, token string) (Session, error) {
	if s.err != nil {
		return Session{}, s.err
	}
	if s.session.ID == "" {
		return Session{}, ErrNotFound
	}
	return s.session, nil
}

func (s *sessionRepoStub) UpdateSession(ctx context.Context, session Session) (Session, error) {
	if s.err != nil {
		return Session{}, s.err
	}
	s.updated = session
	return session, nil
}

func (s *sessionRepoStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	if s.revokeErr != nil {
		return Session{}, s.revokeErr
	}
	s.revokedToken = token
	revoked := s.session
	revoked.RevokedAt = &revokedAt
	return revoked, nil
}

func (s *sessionRepoStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.deleteExpiredCalls++
	return nil
}

type userRepoStub struct {
	user        User
	created     User
	createdHash string
	updated     User
	updatedHash string
	deletedID   string
	list        []User
	err         error
}

func (s *userRepoStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if s.err != nil {
		return User{}, s.err
	}
	s.created = user
	s.createdHash = passwordHash
	return user, nil
}

func (s *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	if s.err != nil {
		return User{}, s.err
	}
	if s.user.ID == "" {
		return User{}, ErrNotFound
	}
	return s.user, nil
}

func (s *userRepoStub) UpdateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if s.err != nil {
		return User{}, s.err
	}
	s.updated = user
	s.updatedHash = passwordHash
	return user, nil
}

func (s *userRepoStub) DeleteUser(ctx context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deletedID = id
	return nil
}

func (s *userRepoStub) ListUsers(ctx context.Context) ([]User, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]User, len(s.list))
	copy(out, s.list)
	return out, nil
}
