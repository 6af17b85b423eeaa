package routes

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tejaspavanb/DeepFake/internal/config"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/middleware"
	"github.com/tejaspavanb/DeepFake/internal/render"
	"github.com/tejaspavanb/DeepFake/internal/repository/sqlite"
	"github.com/tejaspavanb/DeepFake/internal/services"
	"github.com/tejaspavanb/DeepFake/internal/services/analyzer"
	"github.com/tejaspavanb/DeepFake/internal/services/intake"
	"github.com/tejaspavanb/DeepFake/internal/services/session"
	"github.com/tejaspavanb/DeepFake/internal/services/storage"
)

func newRouter(t *testing.T, password string) http.Handler {
	t.Helper()
	dir := t.TempDir()
	log := logger.NewNop()

	cfg := config.Default()
	cfg.Password = password
	cfg.AllowedOrigins = []string{"http://frontend.test"}

	db, err := sqlite.New(filepath.Join(dir, "analyses.db"))
	if err != nil {
		t.Fatalf("sqlite.New failed: %v", err)
	}
	uploads, err := storage.NewUploadStore(filepath.Join(dir, "uploads"), 0, log)
	if err != nil {
		t.Fatalf("NewUploadStore failed: %v", err)
	}
	sessions := session.NewRegistry(0, log)
	a := analyzer.NewSimulated(analyzer.SimulatedOptions{})
	manager := services.NewManager(a, uploads, sqlite.NewAnalysisRepository(db), sessions, nil, cfg, log)
	t.Cleanup(func() {
		sessions.Close()
		manager.Stop()
		db.Close()
	})

	renderer, err := render.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	in := intake.New(intake.Policy{MaxBytes: cfg.MaxUploadBytes(), Enforce: true}, log)
	return SetupRoutes(manager, in, renderer, cfg, log)
}

func TestSetupRoutes_Pages(t *testing.T) {
	router := newRouter(t, "")

	tests := []struct {
		path     string
		wantCode int
		contains string
	}{
		{"/", http.StatusOK, "Deepfake Detection"},
		{"/image", http.StatusOK, "Image Detection"},
		{"/image-detection", http.StatusOK, "Image Detection"},
		{"/video", http.StatusOK, "Video Detection"},
		{"/video-detection", http.StatusOK, "Video Detection"},
		{"/about", http.StatusOK, "About"},
		{"/static/app.js", http.StatusOK, "/api/events"},
		{"/api/health", http.StatusOK, `"simulated"`},
		{"/api/history", http.StatusOK, `"items"`},
		{"/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d", tt.wantCode, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("Body missing %q", tt.contains)
			}
		})
	}
}

func TestSetupRoutes_IssuesSessionCookie(t *testing.T) {
	router := newRouter(t, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/image", nil))

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("Expected a session cookie")
	}
}

func TestSetupRoutes_Auth(t *testing.T) {
	router := newRouter(t, "secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/image", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/auth/login" {
		t.Fatalf("Expected redirect to login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="password"`) {
		t.Fatalf("Expected login form, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/image", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: middleware.AuthToken("secret")})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with login cookie, got %d", rec.Code)
	}
}

func TestSetupRoutes_CORS(t *testing.T) {
	router := newRouter(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/analyze-image", nil)
	req.Header.Set("Origin", "http://frontend.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://frontend.test" {
		t.Errorf("Expected allowed origin, got %q", got)
	}
}

func TestSetupRoutes_MethodNotAllowed(t *testing.T) {
	router := newRouter(t, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze-image", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}
