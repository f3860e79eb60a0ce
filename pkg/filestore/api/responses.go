package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore"
)

// ErrorResponse is the uniform JSON error body every failure path
// produces.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON body with the given status.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// respondError maps a service error onto the HTTP error taxonomy and
// writes the uniform JSON error body. Unexpected errors are logged and
// reported as 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case filestore.IsValidationError(err):
		status = http.StatusBadRequest
	case errors.Is(err, filestore.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, filestore.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, filestore.ErrFileNotFound), errors.Is(err, filestore.ErrObjectNotFound):
		status = http.StatusNotFound
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	respondJSON(w, r, status, ErrorResponse{Error: err.Error()})
}
