package handlers

import (
	"errors"
	"net/http"

	"github.com/tejaspavanb/DeepFake/internal/config"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/middleware"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/render"
	"github.com/tejaspavanb/DeepFake/internal/services"
	"github.com/tejaspavanb/DeepFake/internal/services/intake"
)

// UploadFormHandler handles the plain form submission of a page: the file is
// analysed synchronously and the page is rendered with its result. Submitting
// without a file redirects back to the page.
func UploadFormHandler(manager *services.Manager, in *intake.Intake, renderer *render.Renderer, cfg *config.Config, logger *logger.Logger, kind model.MediaKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionID(r)
		page := manager.Sessions().Page(sessionID, kind)

		showError := func(err error) {
			data := basePageData(cfg, kind).WithSnapshot(page.Snapshot())
			data.Error = err.Error()
			renderPage(w, renderer, logger, statusFor(err), pageName(kind), data)
		}

		file, err := in.Parse(w, r, kind)
		if errors.Is(err, intake.ErrNoFile) {
			http.Redirect(w, r, pagePath(kind), http.StatusSeeOther)
			return
		}
		if err != nil {
			logger.Warning("Rejected %s upload: %v", kind, err)
			showError(err)
			return
		}

		ticket, err := manager.Submit(sessionID, file)
		if err != nil {
			showError(err)
			return
		}

		_, err = ticket.Wait(r.Context())
		switch {
		case r.Context().Err() != nil:
			return
		case errors.Is(err, services.ErrSuperseded):
			// A newer submission owns the page now.
			http.Redirect(w, r, pagePath(kind), http.StatusSeeOther)
			return
		case err != nil:
			// The page holds the failure and keeps the selected file.
			data := basePageData(cfg, kind).WithSnapshot(page.Snapshot())
			renderPage(w, renderer, logger, statusFor(err), pageName(kind), data)
			return
		}

		data := basePageData(cfg, kind).WithSnapshot(page.Snapshot())
		renderPage(w, renderer, logger, http.StatusOK, pageName(kind), data)
	}
}
