// Package handlers provides HTTP handlers for CSV import and aggregation.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aristath/ballast/internal/modules/importer"
	"github.com/aristath/ballast/internal/sessions"
	"github.com/rs/zerolog"
)

// Uploads larger than this are rejected outright.
const maxUploadSize = 10 << 20

// Anything smaller cannot be a positions export worth parsing.
const minUploadSize = 10

// Handler handles import HTTP requests
type Handler struct {
	service  *importer.Service
	sessions *sessions.Repository
	log      zerolog.Logger
}

// NewHandler creates a new import handler
func NewHandler(service *importer.Service, sessionRepo *sessions.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		sessions: sessionRepo,
		log:      log.With().Str("handler", "importer").Logger(),
	}
}

// AggregateRequest represents a request to aggregate positions by category.
// Positions come inline or from a previously uploaded session.
type AggregateRequest struct {
	Positions      []importer.Position `json:"positions"`
	SessionID      string              `json:"session_id"`
	CustomMappings map[string]string   `json:"custom_mappings"`
	Account        string              `json:"account"`
}

// HandleUploadPositions handles POST /api/import/positions
func (h *Handler) HandleUploadPositions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.log.Error().Err(err).Msg("Failed to parse multipart form")
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		http.Error(w, "Only .csv files are accepted", http.StatusBadRequest)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read upload")
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}
	if len(raw) < minUploadSize {
		http.Error(w, "The file is too small to be a positions export", http.StatusBadRequest)
		return
	}

	result, err := h.service.ParseCSV(decodeUpload(raw))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	sessionID, err := h.sessions.Store(result)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to store import session")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": map[string]interface{}{
				"message": "failed to store import session",
				"code":    "INTERNAL",
			},
		})
		return
	}

	h.log.Info().
		Str("session_id", sessionID).
		Str("filename", header.Filename).
		Int("positions", len(result.Positions)).
		Msg("Positions export imported")

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"session_id": sessionID,
			"accounts":   result.Accounts,
			"positions":  result.Positions,
			"mapping":    result.Mapping,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleAggregate handles POST /api/import/aggregate
func (h *Handler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	positions := req.Positions
	if len(positions) == 0 && req.SessionID != "" {
		var stored importer.ParseResult
		found, err := h.sessions.GetIfFresh(req.SessionID, &stored)
		if err != nil {
			h.log.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to load import session")
			h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error": map[string]interface{}{
					"message": "failed to load import session",
					"code":    "INTERNAL",
				},
			})
			return
		}
		if !found {
			h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"error": map[string]interface{}{
					"message": "import session not found or expired",
					"code":    "SESSION_NOT_FOUND",
				},
			})
			return
		}
		positions = stored.Positions
	}

	if len(positions) == 0 {
		http.Error(w, "positions or session_id is required", http.StatusBadRequest)
		return
	}

	assets, err := h.service.AggregatePositions(positions, req.CustomMappings, req.Account)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"assets": assets,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetMapping handles GET /api/import/mapping
func (h *Handler) HandleGetMapping(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"data": h.service.Mapping(),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeDomainError maps import errors onto HTTP statuses: unusable uploads
// are a 400, positions that cannot be resolved to categories a 422.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	code := "UNPROCESSABLE"
	body := map[string]interface{}{
		"message": err.Error(),
	}

	var unresolved *importer.UnresolvedPositionsError
	switch {
	case errors.Is(err, importer.ErrInvalidCSV):
		status = http.StatusBadRequest
		code = "INVALID_CSV"
	case errors.As(err, &unresolved):
		code = "UNRESOLVED_POSITIONS"
		body["details"] = map[string]interface{}{
			"symbols": unresolved.Symbols,
		}
	}
	body["code"] = code

	h.log.Warn().Err(err).Int("status", status).Msg("Import request rejected")

	h.writeJSON(w, status, map[string]interface{}{"error": body})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// decodeUpload interprets the bytes as UTF-8, falling back to Latin-1 for
// older exports.
func decodeUpload(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}
