// Package handlers provides HTTP handlers for rebalancing operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/ballast/internal/modules/rebalancing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	service *rebalancing.Service
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(service *rebalancing.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// AssetRequest is one portfolio line in a rebalancing request. AllowSell
// defaults to true when the field is omitted.
type AssetRequest struct {
	Name         string          `json:"name"`
	TargetPct    int             `json:"target_pct"`
	CurrentValue decimal.Decimal `json:"current_value"`
	AllowSell    *bool           `json:"allow_sell"`
}

// CalculateRequest represents a request to allocate a contribution across assets
type CalculateRequest struct {
	Assets       []AssetRequest  `json:"assets"`
	Contribution decimal.Decimal `json:"contribution"`
}

// AssetsRequest represents a request that carries only an asset list
type AssetsRequest struct {
	Assets []AssetRequest `json:"assets"`
}

func toAssets(reqs []AssetRequest) []rebalancing.Asset {
	assets := make([]rebalancing.Asset, len(reqs))
	for i, a := range reqs {
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
	return assets
}

// HandleCalculate handles POST /api/rebalance/calculate
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Calculate(toAssets(req.Assets), req.Contribution)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleMinContribution handles POST /api/rebalance/min-contribution
func (h *Handler) HandleMinContribution(w http.ResponseWriter, r *http.Request) {
	var req AssetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	contribution, err := h.service.MinimumContribution(toAssets(req.Assets))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"contribution": contribution,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDrift handles POST /api/rebalance/drift
func (h *Handler) HandleDrift(w http.ResponseWriter, r *http.Request) {
	var req AssetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	report, err := h.service.Drift(toAssets(req.Assets))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeDomainError maps calculation errors onto HTTP statuses: malformed
// asset lists are a 400, requests no valid portfolio can satisfy are a 422.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	code := "UNPROCESSABLE"

	switch {
	case errors.Is(err, rebalancing.ErrInvalidAssets):
		status = http.StatusBadRequest
		code = "INVALID_ASSETS"
	case errors.Is(err, rebalancing.ErrUnallocatableContribution):
		code = "UNALLOCATABLE_CONTRIBUTION"
	case errors.Is(err, rebalancing.ErrInsufficientSellable):
		code = "INSUFFICIENT_SELLABLE"
	}

	h.log.Warn().Err(err).Int("status", status).Msg("Rebalancing request rejected")

	h.writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": err.Error(),
			"code":    code,
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
