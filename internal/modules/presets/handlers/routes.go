package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers preset catalog routes on the given router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/presets", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{name}", h.HandleGet)
	})
}
