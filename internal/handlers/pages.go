package handlers

import (
	"net/http"

	"github.com/tejaspavanb/DeepFake/internal/config"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/middleware"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/render"
	"github.com/tejaspavanb/DeepFake/internal/services"
	"github.com/tejaspavanb/DeepFake/internal/services/intake"
)

func pageName(kind model.MediaKind) string {
	if kind == model.KindVideo {
		return render.PageVideo
	}
	return render.PageImage
}

func pagePath(kind model.MediaKind) string {
	return "/" + string(kind)
}

func basePageData(cfg *config.Config, kind model.MediaKind) render.PageData {
	data := render.PageData{
		MaxUploadMB: cfg.MaxUploadSize,
		AuthEnabled: cfg.AuthEnabled(),
	}
	if kind != "" {
		data.Kind = kind
		data.Accept = intake.Accept(kind)
	}
	return data
}

func renderPage(w http.ResponseWriter, renderer *render.Renderer, logger *logger.Logger, status int, name string, data render.PageData) {
	if err := renderer.Render(w, status, name, data); err != nil {
		logger.Error("Failed to render %s page: %v", name, err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// StaticPageHandler serves a page without analysis state (home, about).
func StaticPageHandler(renderer *render.Renderer, cfg *config.Config, logger *logger.Logger, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := renderer.Page(w, name, basePageData(cfg, "")); err != nil {
			logger.Error("Failed to render %s page: %v", name, err)
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
	}
}

// AnalysisPageHandler serves the image or video page showing the caller's
// current selection and result.
func AnalysisPageHandler(manager *services.Manager, renderer *render.Renderer, cfg *config.Config, logger *logger.Logger, kind model.MediaKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := manager.Sessions().Page(middleware.SessionID(r), kind)
		data := basePageData(cfg, kind).WithSnapshot(page.Snapshot())
		renderPage(w, renderer, logger, http.StatusOK, pageName(kind), data)
	}
}
