package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/apperr"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

const msgInternal = "Internal Server Error"

// errorBody is the uniform error response. Users is only set when a team
// delete is blocked by its members.
type errorBody struct {
	Message string           `json:"message"`
	Users   []apperr.UserRef `json:"users,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:     http.StatusBadRequest,
	apperr.KindAuthentication: http.StatusUnauthorized,
	apperr.KindAuthorization:  http.StatusForbidden,
	apperr.KindNotFound:       http.StatusNotFound,
	apperr.KindConflict:       http.StatusConflict,
	apperr.KindRateLimited:    http.StatusTooManyRequests,
}

// statusFor maps an error to its HTTP status. Errors without a kind are 500.
func statusFor(err error) int {
	if status, ok := kindStatus[apperr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorHookKey struct{}

// withErrorHook makes writeError report each error kind to fn.
func withErrorHook(fn func(kind string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), errorHookKey{}, fn)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeError is the single error boundary. Application errors keep their
// message; anything else is logged and answered with a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if fn, ok := r.Context().Value(errorHookKey{}).(func(string)); ok {
		fn(kind.String())
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, status, errorBody{Message: msgInternal})
		return
	}

	e, _ := apperr.As(err)
	if e.Err != nil {
		slog.Debug("request rejected", "path", r.URL.Path, "kind", kind.String(), "error", e.Err)
	}
	writeJSON(w, status, errorBody{Message: e.Message, Users: e.Users})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit. Decode
// failures are validation errors.
func readJSON(r *http.Request, v any) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	if err := json.NewDecoder(lr).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required.")
		}
		return apperr.Wrap(apperr.KindValidation, "Invalid request body.", err)
	}
	return nil
}

// pathID parses the named URL parameter as a uuid.
func pathID(r *http.Request, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid " + what + " id.")
	}
	return id, nil
}
