package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/resource-booking/internal/application"
)

var (
	errBadRequestBody        = errors.New("the request body is malformed")
	errInvalidResourceID     = errors.New("a valid resource ID is required")
	errInvalidReservationID  = errors.New("a valid reservation ID is required")
	errInvalidMaintenanceID  = errors.New("a valid maintenance window ID is required")
	errInvalidIncidentID     = errors.New("a valid incident ID is required")
	errInvalidUserID         = errors.New("a valid user ID is required")
	errInvalidNotificationID = errors.New("a valid notification ID is required")
	errMissingSessionToken   = errors.New("a session token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates application errors into the API's status
// scheme: validation and timing problems are 422, authorization is 403,
// missing records are 404, state and conflict problems are 409.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   "The submitted data is invalid.",
			Errors:    vErr.FieldErrors,
		})
		return
	}

	var tErr *application.TimingError
	if errors.As(err, &tErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "TIMING_RULE_VIOLATED",
			Message:   tErr.Rule + ".",
		})
		return
	}

	var cErr *application.ConflictError
	if errors.As(err, &cErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "BOOKING_CONFLICT",
			Message:   cErr.Error() + ".",
			Conflicts: toConflictDetail(cErr),
		})
		return
	}

	var sErr *application.StateError
	if errors.As(err, &sErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_STATE",
			Message:   sErr.Error() + ".",
		})
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "You are not allowed to perform this operation.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "The requested record was not found."})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "A record with the same identity already exists."})
	default:
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "An internal error occurred."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflicts *conflictDetail   `json:"conflicts,omitempty"`
}

type conflictDetail struct {
	Reservations []conflictSpanDTO `json:"reservations,omitempty"`
	Maintenance  []conflictSpanDTO `json:"maintenance,omitempty"`
}

type conflictSpanDTO struct {
	ID    string  `json:"id"`
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

func toConflictDetail(cErr *application.ConflictError) *conflictDetail {
	if cErr == nil || (len(cErr.Reservations) == 0 && len(cErr.Maintenance) == 0) {
		return nil
	}

	detail := &conflictDetail{}
	for _, conflict := range cErr.Reservations {
		end := formatTimestamp(conflict.End)
		detail.Reservations = append(detail.Reservations, conflictSpanDTO{
			ID:    conflict.ReservationID,
			Start: formatTimestamp(conflict.Start),
			End:   &end,
		})
	}
	for _, conflict := range cErr.Maintenance {
		dto := conflictSpanDTO{
			ID:    conflict.MaintenanceID,
			Start: formatTimestamp(conflict.Start),
		}
		if conflict.End != nil {
			end := formatTimestamp(*conflict.End)
			dto.End = &end
		}
		detail.Maintenance = append(detail.Maintenance, dto)
	}
	return detail
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
