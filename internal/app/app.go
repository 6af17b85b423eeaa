package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/config"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/render"
	"github.com/tejaspavanb/DeepFake/internal/repository/sqlite"
	"github.com/tejaspavanb/DeepFake/internal/routes"
	"github.com/tejaspavanb/DeepFake/internal/services"
	"github.com/tejaspavanb/DeepFake/internal/services/ai"
	"github.com/tejaspavanb/DeepFake/internal/services/analyzer"
	"github.com/tejaspavanb/DeepFake/internal/services/intake"
	"github.com/tejaspavanb/DeepFake/internal/services/session"
	"github.com/tejaspavanb/DeepFake/internal/services/storage"
	"github.com/tejaspavanb/DeepFake/internal/services/websocket"
)

const (
	sessionEvictInterval = time.Minute
	shutdownTimeout      = 15 * time.Second
)

type App struct {
	config      *config.Config
	logger      *logger.Logger
	db          *sqlite.DB
	analyzer    analyzer.Analyzer
	uploadStore *storage.UploadStore
	sessions    *session.Registry
	hubService  *websocket.HubService
	manager     *services.Manager
	intake      *intake.Intake
	renderer    *render.Renderer
}

// NewAnalyzer builds the detector selected by cfg.Analyzer.
func NewAnalyzer(cfg *config.Config, logger *logger.Logger) (analyzer.Analyzer, error) {
	switch cfg.Analyzer {
	case config.AnalyzerModel:
		detector, err := ai.NewDetectorService(cfg, logger)
		if err != nil {
			return nil, err
		}
		return detector, nil
	case config.AnalyzerRemote:
		return analyzer.NewRemote(cfg.RemoteURL, cfg.RemoteTimeoutDuration()), nil
	case config.AnalyzerSimulated:
		return analyzer.NewSimulated(analyzer.SimulatedOptions{
			ImageDelay:   cfg.ImageDelay(),
			VideoDelay:   cfg.VideoDelay(),
			FrameSamples: cfg.FrameSamples,
			Prober:       ai.NewVideoProber(),
		}), nil
	}
	return nil, fmt.Errorf("unknown analyzer %q", cfg.Analyzer)
}

// NewIntake returns the upload policy configured by cfg.
func NewIntake(cfg *config.Config, logger *logger.Logger) *intake.Intake {
	return intake.New(intake.Policy{
		MaxBytes: cfg.MaxUploadBytes(),
		Enforce:  cfg.EnforceMediaFilter,
	}, logger)
}

func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	a, err := NewAnalyzer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating analyzer: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		closeAnalyzer(a)
		return nil, fmt.Errorf("opening database: %w", err)
	}

	uploadStore, err := storage.NewUploadStore(cfg.UploadDirectory, cfg.MaxUploadDirBytes(), logger)
	if err != nil {
		db.Close()
		closeAnalyzer(a)
		return nil, err
	}

	renderer, err := render.NewRenderer()
	if err != nil {
		db.Close()
		closeAnalyzer(a)
		return nil, err
	}

	sessions := session.NewRegistry(cfg.SessionTTL(), logger)
	hub := websocket.NewHubService(logger)
	mng := services.NewManager(a, uploadStore, sqlite.NewAnalysisRepository(db), sessions, hub, cfg, logger)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		analyzer:    a,
		uploadStore: uploadStore,
		sessions:    sessions,
		hubService:  hub,
		manager:     mng,
		intake:      NewIntake(cfg, logger),
		renderer:    renderer,
	}, nil
}

// Handler returns the HTTP routes of the application.
func (a *App) Handler() http.Handler {
	return routes.SetupRoutes(a.manager, a.intake, a.renderer, a.config, a.logger)
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background services
	go a.hubService.Run(ctx)
	go a.uploadStore.Run(ctx, a.config.PruneInterval(), a.manager.HandlePruned)
	if a.config.SessionTTL() > 0 {
		go a.sessions.Run(ctx, sessionEvictInterval)
	}

	server := &http.Server{
		Addr:              a.config.Addr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚀 Deepfake Detection Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🤖 Analyzer: %s\n", a.analyzer.Name())
	fmt.Printf("📁 Uploads: %s\n", a.config.UploadDirectory)
	fmt.Printf("🗄️  Database: %s\n", a.config.DatabasePath)
	if a.config.AuthEnabled() {
		fmt.Printf("🔑 Password protection enabled\n")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
		stop()
	case <-ctx.Done():
		a.logger.Info("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP shutdown: %v", err)
		}
	}

	a.Close()
	return serveErr
}

// Close cancels in-flight analyses, drains the workers and releases the
// analyzer and database.
func (a *App) Close() {
	a.sessions.Close()
	a.manager.Stop()
	closeAnalyzer(a.analyzer)
	if err := a.db.Close(); err != nil {
		a.logger.Error("Closing database: %v", err)
	}
	a.logger.Info("👋 Shutdown complete")
}

func closeAnalyzer(a analyzer.Analyzer) {
	if c, ok := a.(io.Closer); ok {
		c.Close()
	}
}
