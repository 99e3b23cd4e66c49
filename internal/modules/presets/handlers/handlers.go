// Package handlers provides HTTP handlers for the preset catalog.
package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/ballast/internal/modules/presets"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler serves the built-in preset catalog
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new presets handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "presets").Logger(),
	}
}

// HandleList handles GET /api/presets
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	all := presets.All()

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"presets": all,
			"count":   len(all),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGet handles GET /api/presets/{name}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := urlName(r)

	preset, ok := presets.Find(name)
	if !ok {
		response := map[string]interface{}{
			"error": map[string]interface{}{
				"message": "Preset not found",
				"code":    "NOT_FOUND",
			},
		}
		h.writeJSON(w, http.StatusNotFound, response)
		return
	}

	response := map[string]interface{}{
		"data": preset,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// urlName extracts the {name} route parameter. chi matches on the escaped
// path, so preset names containing spaces or slashes arrive percent-encoded.
func urlName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
