// Package http provides HTTP handlers and middleware for the booking API.
//
// The router exposes the following endpoints:
//   - POST /sessions, DELETE /sessions/current: issue and revoke session
//     tokens. Tokens travel in the Authorization header (Bearer) or the
//     `session_token` cookie.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{id}: administrator
//     controlled account management exchanging the `userDTO` payload defined
//     in user_handler.go.
//   - GET /resources, POST /resources, GET/PUT/DELETE /resources/{id}:
//     resource catalog endpoints. PUT /resources/{id}/state and
//     /resources/{id}/bookable drive the unavailability cascade, and
//     GET /resources/{id}/availability answers interval queries.
//   - GET /reservations, POST /reservations, GET/PUT/DELETE
//     /reservations/{id}: reservation lifecycle endpoints, plus POST
//     /reservations/{id}/confirm, /cancel, and /complete.
//   - GET /maintenance, POST /maintenance, GET /maintenance/{id}: window
//     management, plus POST /maintenance/{id}/start and /complete.
//   - GET /incidents, POST /incidents, GET/PUT/DELETE /incidents/{id}:
//     incident reports with the optimistic version carried in the payload.
//   - GET /notifications, POST /notifications/{id}/read: per-recipient
//     notification feed.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
