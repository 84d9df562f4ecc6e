package handler

// Every error response has the same shape:
//
//	{"error": "not_found", "message": "posting not found with id 7"}
//
// Validation errors also name the offending field.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/job-board/internal/apperror"
)

// maxBodyBytes caps request bodies; the largest valid body is a posting with
// a full-length description.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a domain error to its HTTP status and machine-readable kind.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, apperror.ErrEmptyCollection):
		return http.StatusNotFound, "empty_collection"
	case errors.Is(err, apperror.ErrAlreadyInitialized):
		return http.StatusConflict, "already_initialized"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrNotInitialized):
		return http.StatusServiceUnavailable, "not_initialized"
	case errors.Is(err, apperror.ErrExhausted):
		return http.StatusInsufficientStorage, "identifiers_exhausted"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError sends err as an ErrorResponse. Errors that are not an
// *apperror.AppError never reach the client verbatim.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status, kind := errorStatus(err)
	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads one JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		slog.Debug("rejected request body", slog.String("error", err.Error()))
		return apperror.ValidationFailed("body", "request body must be a JSON object with the documented fields")
	}
	return nil
}

// postingIDParam parses the {id} URL parameter as a posting ID.
func postingIDParam(r *http.Request) (uint32, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apperror.ValidationFailed("id", "posting id must be an unsigned 32-bit integer")
	}
	return uint32(id), nil
}

// uintQuery parses an optional non-negative integer query parameter.
func uintQuery(r *http.Request, name string, def uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be a non-negative integer")
	}
	return v, nil
}
