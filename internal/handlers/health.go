package handlers

import (
	"net/http"

	"github.com/tejaspavanb/DeepFake/internal/services"
)

// HealthHandler reports the analyzer in use and how many live viewers are
// connected to /api/events.
func HealthHandler(manager *services.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewers := 0
		if hub := manager.WebsocketService(); hub != nil {
			viewers = hub.GetClientCount()
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"analyzer": manager.Analyzer().Name(),
			"viewers":  viewers,
		})
	}
}
