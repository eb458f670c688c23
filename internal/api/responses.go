package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/wanmilin/glin/internal/store"
)

// ErrorResponse defines the standard error response structure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err, "path", r.URL.Path)
	}
}

// RespondWithError writes a JSON error response with the given status
// code and message.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	slog.Debug("sending error response",
		"status_code", status,
		"message", message,
		"path", r.URL.Path,
		"method", r.Method)
	RespondWithJSON(w, r, status, ErrorResponse{Error: message})
}

// HandleStoreError maps store errors onto HTTP status codes without
// leaking internal error strings to the client.
func HandleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrTaskNotFound), errors.Is(err, store.ErrSettingNotFound):
		RespondWithError(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, store.ErrInvalidEntity):
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
	default:
		slog.Error("unexpected store error", "error", err, "path", r.URL.Path)
		RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// DecodeJSON parses the request body into dst, rejecting unknown
// fields.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
