// Package handlers provides HTTP handlers for saved portfolios.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/ballast/internal/modules/portfolios"
	"github.com/aristath/ballast/internal/modules/rebalancing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	repo *portfolios.Repository
	log  zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(repo *portfolios.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "portfolios").Logger(),
	}
}

// AssetRequest is one portfolio line as submitted. AllowSell defaults to
// true when omitted.
type AssetRequest struct {
	Name         string          `json:"name"`
	TargetPct    int             `json:"target_pct"`
	CurrentValue decimal.Decimal `json:"current_value"`
	AllowSell    *bool           `json:"allow_sell"`
}

// SaveRequest represents a request to save a portfolio
type SaveRequest struct {
	Name         string          `json:"name"`
	Assets       []AssetRequest  `json:"assets"`
	Contribution decimal.Decimal `json:"contribution"`
}

// HandleList handles GET /api/portfolios
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	names, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list portfolios")
		http.Error(w, "Failed to list portfolios", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"portfolios": names,
			"count":      len(names),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleSave handles POST /api/portfolios
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	assets := make([]rebalancing.Asset, len(req.Assets))
	for i, a := range req.Assets {
		allowSell := true
		if a.AllowSell != nil {
			allowSell = *a.AllowSell
		}
		assets[i] = rebalancing.Asset{
			Name:         a.Name,
			TargetPct:    a.TargetPct,
			CurrentValue: a.CurrentValue,
			AllowSell:    allowSell,
		}
	}

	stored, err := h.repo.Save(portfolios.Portfolio{
		Name:         req.Name,
		Assets:       assets,
		Contribution: req.Contribution,
	})
	if errors.Is(err, portfolios.ErrInvalidName) {
		http.Error(w, "Portfolio name is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to save portfolio")
		http.Error(w, "Failed to save portfolio", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"name":  stored,
			"saved": true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGet handles GET /api/portfolios/{name}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := urlName(r)

	portfolio, err := h.repo.Get(name)
	if err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("Failed to get portfolio")
		http.Error(w, "Failed to get portfolio", http.StatusInternalServerError)
		return
	}
	if portfolio == nil {
		h.writeNotFound(w, name)
		return
	}

	response := map[string]interface{}{
		"data": portfolio,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDelete handles DELETE /api/portfolios/{name}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	name := urlName(r)

	found, err := h.repo.Delete(name)
	if err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("Failed to delete portfolio")
		http.Error(w, "Failed to delete portfolio", http.StatusInternalServerError)
		return
	}
	if !found {
		h.writeNotFound(w, name)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"deleted": name,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) writeNotFound(w http.ResponseWriter, name string) {
	h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"error": map[string]interface{}{
			"message": "portfolio not found: " + name,
			"code":    "NOT_FOUND",
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// urlName reads the {name} route parameter, unescaping it so names with
// spaces resolve.
func urlName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}
