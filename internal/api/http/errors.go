package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/logger"
)

type errorResponse struct {
	Error            string `json:"error"`
	Message          string `json:"message"`
	RemainingSeconds *int64 `json:"remaining_seconds,omitempty"`
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidWindow, http.StatusBadRequest, "invalid_window"},
	{domain.ErrReasonRequired, http.StatusBadRequest, "reason_required"},
	{domain.ErrAlreadyReleased, http.StatusBadRequest, "already_released"},
	{domain.ErrTooEarly, http.StatusBadRequest, "too_early"},
	{domain.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{domain.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domain.ErrDeviceUnavailable, http.StatusConflict, "device_unavailable"},
	{ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
}

// writeError maps a service error onto the HTTP response. Unknown errors
// are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if !errors.Is(err, e.err) {
			continue
		}
		var remaining *int64
		var tooEarly *domain.TooEarlyError
		if errors.As(err, &tooEarly) {
			secs := int64(math.Ceil(tooEarly.Remaining.Seconds()))
			remaining = &secs
		}
		writeErrorBody(w, e.status, e.code, err.Error(), remaining)
		return
	}

	logger.FromContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
	writeErrorBody(w, http.StatusInternalServerError, "internal", "internal server error", nil)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string, remaining *int64) {
	writeJSON(w, status, errorResponse{Error: code, Message: message, RemainingSeconds: remaining})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusBadRequest, "bad_request", message, nil)
}
