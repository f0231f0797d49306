package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all moneybox routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/moneyboxes", h.HandleList)

	r.Route("/moneybox", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Post("/deposit", h.HandleDeposit)
			r.Post("/withdraw", h.HandleWithdraw)
			r.Post("/transfer", h.HandleTransfer)
			r.Get("/transactions", h.HandleListTransactions)
		})
	})

	r.Get("/prioritylist", h.HandlePriorityList)
	r.Patch("/prioritylist", h.HandleReorderPriorities)
}
