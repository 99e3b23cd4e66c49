// Package server provides the HTTP server and routing for Ballast.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/reliability"
)

// BackupHandlers handles backup listing and manual triggers
type BackupHandlers struct {
	service       *reliability.BackupService // nil when backups are not configured
	retentionDays int
	log           zerolog.Logger
}

// NewBackupHandlers creates backup handlers
func NewBackupHandlers(service *reliability.BackupService, retentionDays int, log zerolog.Logger) *BackupHandlers {
	return &BackupHandlers{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("handler", "backups").Logger(),
	}
}

// RegisterRoutes registers backup routes on the given router
func (h *BackupHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/backups", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleTrigger)
	})
}

// HandleList handles GET /api/backups
func (h *BackupHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		h.writeNotConfigured(w)
		return
	}

	backups, err := h.service.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		h.writeError(w, http.StatusInternalServerError, "LIST_FAILED", "Failed to list backups")
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"backups": backups,
			"count":   len(backups),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTrigger handles POST /api/backups. The backup runs synchronously,
// which can take a while on large databases.
func (h *BackupHandlers) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		h.writeNotConfigured(w)
		return
	}

	h.log.Info().Msg("Manual backup triggered")
	start := time.Now()

	if err := h.service.CreateAndUploadBackup(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		h.writeError(w, http.StatusInternalServerError, "BACKUP_FAILED", "Backup failed: "+err.Error())
		return
	}

	if err := h.service.RotateOldBackups(r.Context(), h.retentionDays); err != nil {
		// The backup itself succeeded, rotation can wait for the nightly job
		h.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"status":      "completed",
			"duration_ms": time.Since(start).Milliseconds(),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *BackupHandlers) writeNotConfigured(w http.ResponseWriter) {
	h.writeError(w, http.StatusServiceUnavailable, "BACKUPS_NOT_CONFIGURED",
		"Offsite backups are not configured; set the S3_* environment variables")
}

func (h *BackupHandlers) writeError(w http.ResponseWriter, status int, code, message string) {
	response := map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"code":    code,
		},
	}

	h.writeJSON(w, status, response)
}

func (h *BackupHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
