// Package handlers provides the HTTP handler for the savings
// forecast.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/modules/distribution"
	"github.com/akeil/stashd/internal/web"
)

// Handler provides HTTP handlers for distribution endpoints
type Handler struct {
	service *distribution.Service
	log     zerolog.Logger
}

// NewHandler creates a new distribution handler
func NewHandler(service *distribution.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "distribution").Logger(),
	}
}

// RegisterRoutes registers all distribution routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/savings_forecast", h.HandleForecast)
}

// HandleForecast handles GET /savings_forecast
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	forecasts, err := h.service.ForecastTargets(r.Context())
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"forecasts": forecasts,
		"total":     len(forecasts),
	})
}
