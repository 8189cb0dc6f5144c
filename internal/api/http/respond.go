// Package http holds the chi handlers for the practice and dashboard APIs.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/triangle-practice/internal/auth"
	"github.com/mind-engage/triangle-practice/internal/dashboard"
	"github.com/mind-engage/triangle-practice/internal/practice"
	"github.com/mind-engage/triangle-practice/internal/records"
)

const (
	msgStoreFailed      = "There was an error saving or loading answers. Please try again."
	msgStoreUnavailable = "The answer store is not available right now."
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// userMessage prefers the form text carried by validation and login errors.
func userMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}

// writeError maps service errors to status codes. Store failures never leak
// driver text to the client.
func writeError(w http.ResponseWriter, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, records.ErrOperationFailed):
		status, msg = http.StatusBadGateway, msgStoreFailed
	case errors.Is(err, records.ErrUnavailable):
		status, msg = http.StatusServiceUnavailable, msgStoreUnavailable
	case errors.Is(err, dashboard.ErrAttemptNotFound):
		status, msg = http.StatusNotFound, dashboard.MsgNoAttemptItems
	case errors.Is(err, practice.ErrSessionNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, auth.ErrInvalidPassword), errors.Is(err, auth.ErrUnknownStudent):
		status, msg = http.StatusUnauthorized, userMessage(err)
	case errors.Is(err, practice.ErrValidation), errors.Is(err, dashboard.ErrValidation),
		errors.Is(err, records.ErrInvalidFilter),
		errors.Is(err, auth.ErrMissingStudent), errors.Is(err, auth.ErrMissingTeacher):
		status, msg = http.StatusBadRequest, userMessage(err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
		return false
	}
	return true
}
