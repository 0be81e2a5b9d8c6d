package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/foundry-demos/code-interpreter-chat/pkg/logger"
)

// writeJSON writes v as a JSON response. Encode failures after the status
// line cannot be reported to the client, only logged.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Global().Warn("failed to encode response", zap.Error(err))
	}
}

// writeError writes a JSON error body of the form {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
