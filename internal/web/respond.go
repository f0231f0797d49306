// Package web holds the response helpers shared by all HTTP handlers:
// JSON encoding and the mapping from domain errors to status codes.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/domain"
)

// JSON writes a JSON response.
func JSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// Error writes a domain error as JSON with its mapped status code.
func Error(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	JSON(w, log, status, map[string]string{"detail": err.Error()})
}

// Status maps a domain error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNonPositiveAmount),
		errors.Is(err, domain.ErrTransferEqualMoneybox):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNameConflict),
		errors.Is(err, domain.ErrPriorityConflict),
		errors.Is(err, domain.ErrHasBalance),
		errors.Is(err, domain.ErrBalanceNegative):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOverflowNotModifiable),
		errors.Is(err, domain.ErrOverflowNotDeletable):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}
