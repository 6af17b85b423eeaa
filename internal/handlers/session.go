package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tejaspavanb/DeepFake/internal/middleware"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/services"
)

// SessionStateHandler reports the caller's current state of one page.
func SessionStateHandler(manager *services.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := model.ParseKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown page")
			return
		}
		page := manager.Sessions().Page(middleware.SessionID(r), kind)
		writeJSON(w, http.StatusOK, services.StateEvent(page.Snapshot()))
	}
}
