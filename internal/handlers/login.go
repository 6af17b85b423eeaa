package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/tejaspavanb/DeepFake/internal/config"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/middleware"
	"github.com/tejaspavanb/DeepFake/internal/render"
)

// LoginPageHandler shows the password form.
func LoginPageHandler(renderer *render.Renderer, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.AuthEnabled() || middleware.Authenticated(r, cfg.Password) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		renderPage(w, renderer, logger, http.StatusOK, render.PageLogin, basePageData(cfg, ""))
	}
}

// LoginHandler checks the submitted password and sets the login cookie.
func LoginHandler(renderer *render.Renderer, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.AuthEnabled() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		password := r.FormValue("password")
		if subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) != 1 {
			logger.Warning("🔒 Failed login from %s", r.RemoteAddr)
			data := basePageData(cfg, "")
			data.Error = "Invalid password"
			renderPage(w, renderer, logger, http.StatusUnauthorized, render.PageLogin, data)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AuthCookie,
			Value:    middleware.AuthToken(cfg.Password),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler clears the authentication cookie and redirects to the login page.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   middleware.AuthCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
