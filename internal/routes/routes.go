package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tejaspavanb/DeepFake/internal/config"
	"github.com/tejaspavanb/DeepFake/internal/handlers"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/middleware"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/render"
	"github.com/tejaspavanb/DeepFake/internal/services"
	"github.com/tejaspavanb/DeepFake/internal/services/intake"
)

// SetupRoutes registers the pages, upload endpoints, API endpoints and static
// assets, wrapped in logging, recovery, CORS, auth and session middleware.
func SetupRoutes(manager *services.Manager, in *intake.Intake, renderer *render.Renderer, cfg *config.Config, logger *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.AuthMiddleware(cfg.Password))
	r.Use(middleware.SessionMiddleware)

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", render.Static()))
	r.Get("/uploads/{name}", handlers.ViewUploadHandler(manager.UploadStore()))

	// Pages
	r.Get("/", handlers.StaticPageHandler(renderer, cfg, logger, render.PageHome))
	r.Get("/about", handlers.StaticPageHandler(renderer, cfg, logger, render.PageAbout))
	for _, kind := range []model.MediaKind{model.KindImage, model.KindVideo} {
		page := handlers.AnalysisPageHandler(manager, renderer, cfg, logger, kind)
		r.Get("/"+string(kind), page)
		r.Get("/"+string(kind)+"-detection", page)

		r.Post("/upload-"+string(kind), handlers.UploadFormHandler(manager, in, renderer, cfg, logger, kind))
		r.Post("/analyze-"+string(kind), handlers.AnalyzeHandler(manager, in, logger, kind))
	}

	// API endpoints
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.HealthHandler(manager))
		r.Post("/analyze", handlers.AnalyzeHandler(manager, in, logger, ""))
		r.Get("/session/{kind}", handlers.SessionStateHandler(manager))
		r.Get("/events", handlers.EventsWebsocketHandler(manager, logger))

		r.Route("/history", func(r chi.Router) {
			r.Get("/", handlers.HistoryHandler(manager, logger))
			r.Delete("/", handlers.ClearHistoryHandler(manager, logger))
			r.Get("/stats", handlers.StatsHandler(manager, logger))
			r.Get("/{id}", handlers.GetAnalysisHandler(manager, logger))
			r.Delete("/{id}", handlers.DeleteAnalysisHandler(manager, logger))
		})
	})

	// Log endpoints
	r.Get("/logs/{level}", handlers.ShowLogsHandler(logger))
	r.Post("/logs/{level}/clear", handlers.ClearLogsHandler(logger))

	// Auth endpoints
	r.Get("/auth/login", handlers.LoginPageHandler(renderer, cfg, logger))
	r.Post("/auth/login", handlers.LoginHandler(renderer, cfg, logger))
	r.Get("/auth/logout", handlers.LogoutHandler)

	return r
}
