package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/barik-insights/internal/api/middleware"
)

// Health handles GET /health
func Health(version string, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"version":   version,
			"uptime":    time.Since(started).Round(time.Second).String(),
			"timestamp": time.Now().UTC(),
		})
	}
}
