package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all rebalancing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/rebalance", func(r chi.Router) {
		r.Post("/calculate", h.HandleCalculate)
		r.Post("/min-contribution", h.HandleMinContribution)
		r.Post("/drift", h.HandleDrift)
	})
}
