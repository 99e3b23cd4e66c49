package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all import routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/import", func(r chi.Router) {
		r.Post("/positions", h.HandleUploadPositions)
		r.Post("/aggregate", h.HandleAggregate)
		r.Get("/mapping", h.HandleGetMapping)
	})
}
