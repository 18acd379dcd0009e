// Package handler contains the HTTP handlers. Handlers parse the request,
// call a service and write the response; they hold no business logic.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sudeepta/portfolio/internal/apperror"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// ErrorResponse is the error body of every endpoint except the contact
// form, whose response shape is fixed.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sets the content type and status, then encodes data. Headers
// are frozen once the body starts, so the order matters.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are gone already; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and writes it.
//
// Errors that are not an *apperror.AppError become a generic 500 so that
// internal details (SQL, file paths) never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   apperror.KindInternal,
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConfigMissing):
		status = http.StatusServiceUnavailable
	case errors.Is(err, apperror.ErrTransport):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, ErrorResponse{
		Error:   apperror.KindOf(err),
		Message: appErr.Message,
	})
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are ignored, as the front-end may send extras.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.InvalidInput("body", fmt.Sprintf("request body must be at most %d bytes", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return apperror.InvalidInput("body", "request body is empty")
		default:
			return apperror.InvalidInput("body", "request body is not valid JSON")
		}
	}
	if dec.More() {
		return apperror.InvalidInput("body", "request body must contain a single JSON object")
	}
	return nil
}
