package handler

import (
	"net/http"
	"os"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	downloadsDir string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(downloadsDir string) *HealthHandler {
	return &HealthHandler{
		downloadsDir: downloadsDir,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	// Artifact storage must be present for the UI to function.
	if info, err := os.Stat(h.downloadsDir); err != nil || !info.IsDir() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "downloads directory unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
