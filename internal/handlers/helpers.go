package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/dto"
	"github.com/tejaspavanb/DeepFake/internal/services"
	"github.com/tejaspavanb/DeepFake/internal/services/intake"
	"github.com/tejaspavanb/DeepFake/internal/services/media"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// statusFor maps intake and analysis errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, intake.ErrNoFile), errors.Is(err, intake.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, intake.ErrTooLarge), errors.Is(err, media.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, intake.ErrUnsupportedType), errors.Is(err, intake.ErrUnknownKind):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrQueueFull), errors.Is(err, services.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
