// Package handlers provides the HTTP handlers for moneybox management:
// CRUD, money movements and the priority list.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/domain"
	"github.com/akeil/stashd/internal/modules/ledger"
	"github.com/akeil/stashd/internal/modules/moneybox"
	"github.com/akeil/stashd/internal/web"
)

// Handler provides HTTP handlers for moneybox endpoints
type Handler struct {
	service *moneybox.Service
	ledger  *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new moneybox handler
func NewHandler(service *moneybox.Service, ledgerService *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		ledger:  ledgerService,
		log:     log.With().Str("handler", "moneybox").Logger(),
	}
}

// HandleList handles GET /moneyboxes
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	boxes, err := h.service.List(r.Context())
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"moneyboxes": boxes,
		"total":      len(boxes),
	})
}

// HandleCreate handles POST /moneybox
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var p moneybox.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	box, err := h.service.Create(r.Context(), p)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusCreated, box)
}

// HandleGet handles GET /moneybox/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	box, err := h.service.Get(r.Context(), id)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, box)
}

// updateRequest distinguishes an absent savings_target from an
// explicit null, only the latter clears the target.
type updateRequest struct {
	Name          *string         `json:"name"`
	Description   *string         `json:"description"`
	SavingsAmount *int64          `json:"savings_amount"`
	SavingsTarget json.RawMessage `json:"savings_target"`
}

// HandleUpdate handles PATCH /moneybox/{id}
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

	p := moneybox.UpdateParams{
		Name:          req.Name,
		Description:   req.Description,
		SavingsAmount: req.SavingsAmount,
	}
	if len(req.SavingsTarget) > 0 {
		p.SetSavingsTarget = true
		if string(req.SavingsTarget) != "null" {
			var target int64
			if err := json.Unmarshal(req.SavingsTarget, &target); err != nil {
				http.Error(w, "Invalid savings_target", http.StatusBadRequest)
				return
			}
			p.SavingsTarget = &target
		}
	}

	box, err := h.service.Update(r.Context(), id, p)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, box)
}

// HandleDelete handles DELETE /moneybox/{id}
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

type movementRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// HandleDeposit handles POST /moneybox/{id}/deposit
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	box, err := h.service.Deposit(r.Context(), id, req.Amount, req.Description,
		domain.TransactionTypeDirect, domain.TriggerManually)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, box)
}

// HandleWithdraw handles POST /moneybox/{id}/withdraw
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	box, err := h.service.Withdraw(r.Context(), id, req.Amount, req.Description,
		domain.TransactionTypeDirect, domain.TriggerManually)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, box)
}

type transferRequest struct {
	ToMoneyboxID int64  `json:"to_moneybox_id"`
	Amount       int64  `json:"amount"`
	Description  string `json:"description"`
}

// HandleTransfer handles POST /moneybox/{id}/transfer
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.Transfer(r.Context(), id, req.ToMoneyboxID, req.Amount, req.Description,
		domain.TransactionTypeDirect, domain.TriggerManually)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListTransactions handles GET /moneybox/{id}/transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	// 404 for unknown boxes, an empty history is not an error
	if _, err := h.service.Get(r.Context(), id); err != nil {
		web.Error(w, h.log, err)
		return
	}

	transactions, err := h.ledger.ListForMoneybox(r.Context(), id)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"total":        len(transactions),
	})
}

// HandlePriorityList handles GET /prioritylist
func (h *Handler) HandlePriorityList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.PriorityList(r.Context())
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"priorities": entries,
	})
}

type reorderRequest struct {
	Priorities []moneybox.PriorityUpdate `json:"priorities"`
}

// HandleReorderPriorities handles PATCH /prioritylist
func (h *Handler) HandleReorderPriorities(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entries, err := h.service.ReorderPriorities(r.Context(), req.Priorities)
	if err != nil {
		web.Error(w, h.log, err)
		return
	}

	web.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"priorities": entries,
	})
}

// parseID extracts the {id} route parameter.
func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "Invalid moneybox id", http.StatusUnprocessableEntity)
		return 0, false
	}
	return id, true
}
