package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/resource-booking/internal/application"
)

var testStart = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

type reservationServiceStub struct {
	reservation    application.Reservation
	list           []application.Reservation
	err            error
	lastAction     string
	lastCreate     application.CreateReservationParams
	lastEdit       application.EditReservationParams
	lastListParams application.ListReservationsParams
}

func (s *reservationServiceStub) Create(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error) {
	s.lastAction = "create"
	s.lastCreate = params
	return s.reservation, s.err
}

func (s *reservationServiceStub) Edit(ctx context.Context, params application.EditReservationParams) (application.Reservation, error) {
	s.lastAction = "edit"
	s.lastEdit = params
	return s.reservation, s.err
}

func (s *reservationServiceStub) Cancel(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error) {
	s.lastAction = "cancel:" + reservationID
	return s.reservation, s.err
}

func (s *reservationServiceStub) Confirm(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error) {
	s.lastAction = "confirm:" + reservationID
	return s.reservation, s.err
}

func (s *reservationServiceStub) Complete(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error) {
	s.lastAction = "complete:" + reservationID
	return s.reservation, s.err
}

func (s *reservationServiceStub) Delete(ctx context.Context, principal application.Principal, reservationID string) error {
	s.lastAction = "delete:" + reservationID
	return s.err
}

func (s *reservationServiceStub) Get(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error) {
	s.lastAction = "get:" + reservationID
	return s.reservation, s.err
}

func (s *reservationServiceStub) List(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error) {
	s.lastAction = "list"
	s.lastListParams = params
	return s.list, s.err
}

type availabilityServiceStub struct {
	verdict    application.Availability
	err        error
	lastParams application.CheckAvailabilityParams
}

func (s *availabilityServiceStub) CheckCached(ctx context.Context, params application.CheckAvailabilityParams) (application.Availability, error) {
	s.lastParams = params
	return s.verdict, s.err
}

type resourceServiceStub struct {
	resource   application.Resource
	list       []application.Resource
	err        error
	lastAction string
}

func (s *resourceServiceStub) Create(ctx context.Context, params application.CreateResourceParams) (application.Resource, error) {
	s.lastAction = "create"
	return s.resource, s.err
}

func (s *resourceServiceStub) Update(ctx context.Context, params application.UpdateResourceParams) (application.Resource, error) {
	s.lastAction = "update:" + params.ResourceID
	return s.resource, s.err
}

func (s *resourceServiceStub) Get(ctx context.Context, resourceID string) (application.Resource, error) {
	s.lastAction = "get:" + resourceID
	return s.resource, s.err
}

func (s *resourceServiceStub) List(ctx context.Context) ([]application.Resource, error) {
	s.lastAction = "list"
	return s.list, s.err
}

func (s *resourceServiceStub) Delete(ctx context.Context, principal application.Principal, resourceID string) error {
	s.lastAction = "delete:" + resourceID
	return s.err
}

func (s *resourceServiceStub) SetState(ctx context.Context, params application.SetResourceStateParams) (application.Resource, error) {
	s.lastAction = "state:" + string(params.State)
	return s.resource, s.err
}

func (s *resourceServiceStub) SetBookable(ctx context.Context, params application.SetResourceBookableParams) (application.Resource, error) {
	s.lastAction = "bookable"
	return s.resource, s.err
}

type maintenanceServiceStub struct {
	window     application.MaintenanceWindow
	list       []application.MaintenanceWindow
	err        error
	lastAction string
}

func (s *maintenanceServiceStub) Schedule(ctx context.Context, params application.ScheduleMaintenanceParams) (application.MaintenanceWindow, error) {
	s.lastAction = "schedule"
	return s.window, s.err
}

func (s *maintenanceServiceStub) Start(ctx context.Context, principal application.Principal, windowID string) (application.MaintenanceWindow, error) {
	s.lastAction = "start:" + windowID
	return s.window, s.err
}

func (s *maintenanceServiceStub) Complete(ctx context.Context, principal application.Principal, windowID string) (application.MaintenanceWindow, error) {
	s.lastAction = "complete:" + windowID
	return s.window, s.err
}

func (s *maintenanceServiceStub) Get(ctx context.Context, windowID string) (application.MaintenanceWindow, error) {
	s.lastAction = "get:" + windowID
	return s.window, s.err
}

func (s *maintenanceServiceStub) List(ctx context.Context, resourceID string) ([]application.MaintenanceWindow, error) {
	s.lastAction = "list"
	return s.list, s.err
}

type incidentServiceStub struct {
	incident   application.Incident
	list       []application.Incident
	err        error
	lastAction string
	lastEdit   application.EditIncidentParams
}

func (s *incidentServiceStub) Report(ctx context.Context, params application.ReportIncidentParams) (application.Incident, error) {
	s.lastAction = "report"
	return s.incident, s.err
}

func (s *incidentServiceStub) Edit(ctx context.Context, params application.EditIncidentParams) (application.Incident, error) {
	s.lastAction = "edit:" + params.IncidentID
	s.lastEdit = params
	return s.incident, s.err
}

func (s *incidentServiceStub) Delete(ctx context.Context, principal application.Principal, incidentID string) error {
	s.lastAction = "delete:" + incidentID
	return s.err
}

func (s *incidentServiceStub) Get(ctx context.Context, principal application.Principal, incidentID string) (application.Incident, error) {
	s.lastAction = "get:" + incidentID
	return s.incident, s.err
}

func (s *incidentServiceStub) List(ctx context.Context, principal application.Principal, resourceID string) ([]application.Incident, error) {
	s.lastAction = "list"
	return s.list, s.err
}

type notificationServiceStub struct {
	list     []application.Notification
	err      error
	markedID string
}

func (s *notificationServiceStub) List(ctx context.Context, principal application.Principal) ([]application.Notification, error) {
	return s.list, s.err
}

func (s *notificationServiceStub) MarkRead(ctx context.Context, principal application.Principal, notificationID string) error {
	s.markedID = notificationID
	return s.err
}

type authServiceStub struct {
	result       application.AuthenticateResult
	err          error
	revokedToken string
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	return s.result, s.err
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	s.revokedToken = token
	return s.err
}

// principalMiddleware plays the role of RequireSession in router tests.
func principalMiddleware(principal application.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

func TestReservationRoutes_CreateParsesBodyAndReturns201(t *testing.T) {
	t.Parallel()

	service := &reservationServiceStub{reservation: application.Reservation{
		ID:          "resv-1",
		ResourceID:  "room-1",
		RequesterID: "user-1",
		Start:       testStart,
		End:         testStart.Add(time.Hour),
		State:       application.ReservationPending,
	}}
	router := NewRouter(RouterConfig{
		Reservations: NewReservationHandler(service, nil),
		Middleware:   []func(http.Handler) http.Handler{principalMiddleware(application.Principal{UserID: "user-1", Role: application.RoleMember})},
	})

	body := `{"resource_id":"room-1","start":"2025-03-10T10:00:00Z","end":"2025-03-10T11:00:00Z","purpose":"team meeting"}`
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !service.lastCreate.Input.Start.Equal(testStart) {
		t.Fatalf("expected parsed start, got %s", service.lastCreate.Input.Start)
	}
	if service.lastCreate.Principal.UserID != "user-1" {
		t.Fatalf("expected principal threaded through, got %q", service.lastCreate.Principal.UserID)
	}

	var resp reservationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Reservation.ID != "resv-1" {
		t.Fatalf("unexpected reservation payload %+v", resp.Reservation)
	}
}

func TestReservationRoutes_CreateRejectsMalformedTimestamp(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Reservations: NewReservationHandler(&reservationServiceStub{}, nil)})

	body := `{"resource_id":"room-1","start":"tomorrow","end":"2025-03-10T11:00:00Z","purpose":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReservationRoutes_ConflictCarriesDetailPayload(t *testing.T) {
	t.Parallel()

	service := &reservationServiceStub{err: &application.ConflictError{
		Reservations: []application.ReservationConflict{{
			ReservationID: "resv-9",
			Start:         testStart,
			End:           testStart.Add(time.Hour),
		}},
	}}
	router := NewRouter(RouterConfig{Reservations: NewReservationHandler(service, nil)})

	body := `{"resource_id":"room-1","start":"2025-03-10T10:00:00Z","end":"2025-03-10T11:00:00Z","purpose":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.ErrorCode != "BOOKING_CONFLICT" {
		t.Fatalf("expected BOOKING_CONFLICT, got %q", resp.ErrorCode)
	}
	if resp.Conflicts == nil || len(resp.Conflicts.Reservations) != 1 || resp.Conflicts.Reservations[0].ID != "resv-9" {
		t.Fatalf("expected conflict detail for resv-9, got %+v", resp.Conflicts)
	}
}

func TestReservationRoutes_ServiceErrorStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		expectedCode int
		errorCode    string
	}{
		{
			name:         "validation failure",
			err:          &application.ValidationError{FieldErrors: map[string]string{"purpose": "purpose is required"}},
			expectedCode: http.StatusUnprocessableEntity,
			errorCode:    "VALIDATION_FAILED",
		},
		{
			name:         "timing rule",
			err:          &application.TimingError{Rule: "reservation must start in the future"},
			expectedCode: http.StatusUnprocessableEntity,
			errorCode:    "TIMING_RULE_VIOLATED",
		},
		{
			name:         "state rule",
			err:          &application.StateError{Entity: "reservation", State: "cancelled", Operation: "edit"},
			expectedCode: http.StatusConflict,
			errorCode:    "INVALID_STATE",
		},
		{
			name:         "authorization",
			err:          &application.AuthorizationError{Entity: "reservation", Operation: "cancel"},
			expectedCode: http.StatusForbidden,
			errorCode:    "AUTH_FORBIDDEN",
		},
		{
			name:         "missing record",
			err:          &application.NotFoundError{Entity: "reservation", ID: "resv-1"},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := NewRouter(RouterConfig{Reservations: NewReservationHandler(&reservationServiceStub{err: tc.err}, nil)})

			body := `{"resource_id":"room-1","start":"2025-03-10T10:00:00Z","end":"2025-03-10T11:00:00Z","purpose":"x"}`
			req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.expectedCode {
				t.Fatalf("expected %d, got %d: %s", tc.expectedCode, rec.Code, rec.Body.String())
			}
			if tc.errorCode != "" {
				resp := decodeErrorResponse(t, rec)
				if resp.ErrorCode != tc.errorCode {
					t.Fatalf("expected error code %q, got %q", tc.errorCode, resp.ErrorCode)
				}
			}
		})
	}
}

func TestReservationRoutes_TransitionActions(t *testing.T) {
	t.Parallel()

	for _, action := range []string{"confirm", "cancel", "complete"} {
		action := action
		t.Run(action, func(t *testing.T) {
			t.Parallel()

			service := &reservationServiceStub{reservation: application.Reservation{ID: "resv-1", Start: testStart, End: testStart.Add(time.Hour)}}
			router := NewRouter(RouterConfig{Reservations: NewReservationHandler(service, nil)})

			req := httptest.NewRequest(http.MethodPost, "/reservations/resv-1/"+action, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if service.lastAction != action+":resv-1" {
				t.Fatalf("expected %s dispatched, got %q", action, service.lastAction)
			}
		})
	}
}

func TestReservationRoutes_TransitionRejectsWrongMethod(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Reservations: NewReservationHandler(&reservationServiceStub{}, nil)})

	req := httptest.NewRequest(http.MethodGet, "/reservations/resv-1/confirm", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != http.MethodPost {
		t.Fatalf("expected Allow header %q, got %q", http.MethodPost, got)
	}
}

func TestReservationRoutes_UnknownActionIs404(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Reservations: NewReservationHandler(&reservationServiceStub{}, nil)})

	req := httptest.NewRequest(http.MethodPost, "/reservations/resv-1/archive", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMaintenanceRoutes_TransitionActions(t *testing.T) {
	t.Parallel()

	for _, action := range []string{"start", "complete"} {
		action := action
		t.Run(action, func(t *testing.T) {
			t.Parallel()

			service := &maintenanceServiceStub{window: application.MaintenanceWindow{ID: "mw-1", Start: testStart}}
			router := NewRouter(RouterConfig{Maintenance: NewMaintenanceHandler(service, nil)})

			req := httptest.NewRequest(http.MethodPost, "/maintenance/mw-1/"+action, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if service.lastAction != action+":mw-1" {
				t.Fatalf("expected %s dispatched, got %q", action, service.lastAction)
			}
		})
	}
}

func TestResourceRoutes_AvailabilityParsesQuery(t *testing.T) {
	t.Parallel()

	availability := &availabilityServiceStub{verdict: application.Availability{Available: true, Reason: application.ReasonOK}}
	router := NewRouter(RouterConfig{Resources: NewResourceHandler(&resourceServiceStub{}, availability, nil)})

	req := httptest.NewRequest(http.MethodGet,
		"/resources/room-1/availability?start=2025-03-10T10:00:00Z&end=2025-03-10T11:00:00Z&exclude_reservation_id=resv-9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if availability.lastParams.ResourceID != "room-1" {
		t.Fatalf("expected resource from path, got %q", availability.lastParams.ResourceID)
	}
	if !availability.lastParams.Start.Equal(testStart) {
		t.Fatalf("expected parsed start, got %s", availability.lastParams.Start)
	}
	if availability.lastParams.ExcludeReservationID == nil || *availability.lastParams.ExcludeReservationID != "resv-9" {
		t.Fatalf("expected exclusion parsed, got %v", availability.lastParams.ExcludeReservationID)
	}

	var verdict availabilityDTO
	if err := json.NewDecoder(rec.Body).Decode(&verdict); err != nil {
		t.Fatalf("failed to decode verdict: %v", err)
	}
	if !verdict.Available || verdict.Reason != "ok" {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
}

func TestResourceRoutes_AvailabilityRejectsMalformedQuery(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Resources: NewResourceHandler(&resourceServiceStub{}, &availabilityServiceStub{}, nil)})

	req := httptest.NewRequest(http.MethodGet, "/resources/room-1/availability?start=later&end=2025-03-10T11:00:00Z", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestResourceRoutes_StateAndBookableSubRoutes(t *testing.T) {
	t.Parallel()

	service := &resourceServiceStub{resource: application.Resource{ID: "room-1"}}
	router := NewRouter(RouterConfig{Resources: NewResourceHandler(service, &availabilityServiceStub{}, nil)})

	req := httptest.NewRequest(http.MethodPut, "/resources/room-1/state", strings.NewReader(`{"state":"Maintenance"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for state change, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.lastAction != "state:maintenance" {
		t.Fatalf("expected lowercased state dispatched, got %q", service.lastAction)
	}

	req = httptest.NewRequest(http.MethodPut, "/resources/room-1/bookable", strings.NewReader(`{"bookable":false}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for bookable change, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.lastAction != "bookable" {
		t.Fatalf("expected bookable dispatched, got %q", service.lastAction)
	}
}

func TestNotificationRoutes_MarkRead(t *testing.T) {
	t.Parallel()

	service := &notificationServiceStub{}
	router := NewRouter(RouterConfig{Notifications: NewNotificationHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPost, "/notifications/note-1/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.markedID != "note-1" {
		t.Fatalf("expected note-1 marked, got %q", service.markedID)
	}

	req = httptest.NewRequest(http.MethodPost, "/notifications/note-1/archive", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown action, got %d", rec.Code)
	}
}

func TestSessionRoutes_LoginIssuesTokenAndCookie(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{result: application.AuthenticateResult{
		User: application.User{ID: "user-1", Role: application.RoleMember},
		Session: application.Session{
			ID:        "sess-1",
			UserID:    "user-1",
			Token:     "tok-1",
			ExpiresAt: testStart.Add(24 * time.Hour),
		},
	}}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"alice@example.com","password":"open-sesame"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Session-Token"); got != "tok-1" {
		t.Fatalf("expected token header, got %q", got)
	}

	var sessionCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session_token" {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil || sessionCookie.Value != "tok-1" || !sessionCookie.HttpOnly {
		t.Fatalf("expected HttpOnly session cookie, got %+v", sessionCookie)
	}

	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp.Token != "tok-1" || resp.Principal.UserID != "user-1" {
		t.Fatalf("unexpected login payload %+v", resp)
	}
}

func TestSessionRoutes_LoginRejectsInvalidCredentials(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{err: application.ErrInvalidCredentials}, nil)})

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("expected AUTH_INVALID_CREDENTIALS, got %q", resp.ErrorCode)
	}
}

func TestSessionRoutes_LogoutRevokesBearerToken(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

	req := httptest.NewRequest(http.MethodDelete, "/sessions/current", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.revokedToken != "tok-1" {
		t.Fatalf("expected tok-1 revoked, got %q", service.revokedToken)
	}
}

func TestIncidentRoutes_UpdateCarriesVersion(t *testing.T) {
	t.Parallel()

	service := &incidentServiceStub{incident: application.Incident{ID: "inc-1", Version: 2, CreatedAt: testStart, UpdatedAt: testStart}}
	router := NewRouter(RouterConfig{Incidents: NewIncidentHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPut, "/incidents/inc-1", strings.NewReader(`{"version":1,"state":"In_Review"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.lastEdit.Version != 1 {
		t.Fatalf("expected version 1 forwarded, got %d", service.lastEdit.Version)
	}
	if service.lastEdit.Edit.State == nil || *service.lastEdit.Edit.State != application.IncidentInReview {
		t.Fatalf("expected lowercased state forwarded, got %v", service.lastEdit.Edit.State)
	}
}

func TestUserRoutes_PathIDReachesHandler(t *testing.T) {
	t.Parallel()

	users := &userServiceStub{user: application.User{ID: "user-1", Email: "alice@example.com"}}
	router := NewRouter(RouterConfig{
		Users:      NewUserHandler(users, nil),
		Middleware: []func(http.Handler) http.Handler{principalMiddleware(application.Principal{UserID: "user-1", Role: application.RoleMember})},
	})

	req := httptest.NewRequest(http.MethodGet, "/users/user-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if users.lastAction != "get:user-1" {
		t.Fatalf("expected path ID forwarded, got %q", users.lastAction)
	}
}

type userServiceStub struct {
	user       application.User
	list       []application.User
	err        error
	lastAction string
}

func (s *userServiceStub) CreateUser(ctx context.Context, params application.CreateUserParams) (application.User, error) {
	s.lastAction = "create"
	return s.user, s.err
}

func (s *userServiceStub) UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error) {
	s.lastAction = "update:" + params.UserID
	return s.user, s.err
}

func (s *userServiceStub) GetUser(ctx context.Context, principal application.Principal, userID string) (application.User, error) {
	s.lastAction = "get:" + userID
	return s.user, s.err
}

func (s *userServiceStub) DeleteUser(ctx context.Context, principal application.Principal, userID string) error {
	s.lastAction = "delete:" + userID
	return s.err
}

func (s *userServiceStub) ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error) {
	s.lastAction = "list"
	return s.list, s.err
}
