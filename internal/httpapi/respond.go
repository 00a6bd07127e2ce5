package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-user-cache/users"
)

// writeJSON writes JSON response with status code.
func (r *Router) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.logger.Error("failed to encode response", "error", err)
	}
}

// writeError sends an error message.
func (r *Router) writeError(w http.ResponseWriter, status int, msg string) {
	r.writeJSON(w, status, map[string]string{"error": msg})
}

func (r *Router) writeValidationError(w http.ResponseWriter, err error) {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	details := make(map[string]string, len(fields))
	for name, ferr := range fields {
		details[name] = ferr.Error()
	}
	r.writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": details,
	})
}

// writeServiceError maps service errors to status codes. Anything that is
// not a known error kind is logged and reported as 500 without details.
func (r *Router) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	if users.IsNotFound(err) {
		r.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	r.logger.ErrorContext(req.Context(), "request failed",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", RequestIDFromContext(req.Context()),
		"error", err,
	)
	r.writeError(w, http.StatusInternalServerError, "internal server error")
}
