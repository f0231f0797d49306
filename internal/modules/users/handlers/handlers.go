// Package handlers provides the HTTP handlers for user management and
// the login check.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/domain"
	"github.com/akeil/stashd/internal/modules/users"
	"github.com/akeil/stashd/internal/web"
)

// Handler provides HTTP handlers for user endpoints
type Handler struct {
	service *users.Service
	log     zerolog.Logger
}

// NewHandler creates a new users handler
func NewHandler(service *users.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "users").Logger(),
	}
}

// RegisterRoutes registers all user routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/user", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Post("/login", h.HandleLogin)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
		})
	})
}

type createRequest struct {
	Login    string          `json:"user_login"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
}

// HandleCreate handles POST /user
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.Create(r.Context(), req.Login, req.Password, req.Role)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusCreated, user)
}

// HandleGet handles GET /user/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, user)
}

type updateRequest struct {
	Login    *string `json:"user_login"`
	Password *string `json:"password"`
}

// HandleUpdate handles PATCH /user/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Password != nil {
		if err := h.service.UpdatePassword(r.Context(), id, *req.Password); err != nil {
			web.Error(w, h.log, err)
			return
		}
	}
	if req.Login != nil {
		if _, err := h.service.UpdateLogin(r.Context(), id, *req.Login); err != nil {
			web.Error(w, h.log, err)
			return
		}
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, user)
}

// HandleDelete handles DELETE /user/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		web.Error(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type loginRequest struct {
	Login    string `json:"user_login"`
	Password string `json:"password"`
}

// HandleLogin handles POST /user/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.VerifyPassword(r.Context(), req.Login, req.Password)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, user)
}

// parseID extracts the {id} route parameter.
func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "Invalid user id", http.StatusUnprocessableEntity)
		return 0, false
	}
	return id, true
}
