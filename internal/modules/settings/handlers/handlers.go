// Package handlers provides the HTTP handlers for application
// settings.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/domain"
	"github.com/akeil/stashd/internal/modules/settings"
	"github.com/akeil/stashd/internal/web"
)

// Handler provides HTTP handlers for settings endpoints
type Handler struct {
	service *settings.Service
	log     zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(service *settings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "settings").Logger(),
	}
}

// RegisterRoutes registers all settings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.HandleGet)
	r.Patch("/settings", h.HandleUpdate)
}

// HandleGet handles GET /settings
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Get(r.Context())
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, current)
}

// updateRequest distinguishes an absent user_email_address from an
// explicit null, only the latter clears the address.
type updateRequest struct {
	IsAutomatedSavingActive   *bool                `json:"is_automated_saving_active"`
	SavingsAmount             *int64               `json:"savings_amount"`
	OverflowMode              *domain.OverflowMode `json:"overflow_moneybox_automated_savings_mode"`
	SendReportsViaEmail       *bool                `json:"send_reports_via_email"`
	UserEmailAddress          json.RawMessage      `json:"user_email_address"`
	AutomatedSavingTriggerDay *domain.TriggerDay   `json:"automated_saving_trigger_day"`
}

// HandleUpdate handles PATCH /settings
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p := settings.UpdateParams{
		IsAutomatedSavingActive:   req.IsAutomatedSavingActive,
		SavingsAmount:             req.SavingsAmount,
		OverflowMode:              req.OverflowMode,
		SendReportsViaEmail:       req.SendReportsViaEmail,
		AutomatedSavingTriggerDay: req.AutomatedSavingTriggerDay,
	}
	if len(req.UserEmailAddress) > 0 {
		p.SetUserEmailAddress = true
		if string(req.UserEmailAddress) != "null" {
			var email string
			if err := json.Unmarshal(req.UserEmailAddress, &email); err != nil {
				http.Error(w, "Invalid user_email_address", http.StatusBadRequest)
				return
			}
			p.UserEmailAddress = &email
		}
	}

	updated, err := h.service.Update(r.Context(), p)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, updated)
}
