package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// AuthCookie holds the login token once the password was accepted.
const AuthCookie = "authenticated"

// AuthToken is the cookie value issued for password.
func AuthToken(password string) string {
	sum := sha256.Sum256([]byte("deepfake:" + password))
	return hex.EncodeToString(sum[:])
}

// Authenticated reports whether r carries a valid login cookie.
func Authenticated(r *http.Request, password string) bool {
	cookie, err := r.Cookie(AuthCookie)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(AuthToken(password))) == 1
}

// AuthMiddleware requires a login cookie on every request except the login
// page, static assets and the health check. An empty password disables it.
func AuthMiddleware(password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if password == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/auth/login" ||
				r.URL.Path == "/api/health" ||
				strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			if !Authenticated(r, password) {
				// Scripts get a status code, browsers the login page.
				if r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
					r.Header.Get("Content-Type") == "application/json" ||
					strings.Contains(r.Header.Get("Accept"), "application/json") ||
					strings.HasPrefix(r.URL.Path, "/api/") {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
