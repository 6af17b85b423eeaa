package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SessionCookie identifies a browser's set of analysis pages.
const SessionCookie = "deepfake_session"

type sessionKey struct{}

// SessionMiddleware makes sure every request carries a session id, issuing a
// new cookie when the browser has none.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
	})
}

// SessionID returns the id assigned by SessionMiddleware, or "" outside it.
func SessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}

// WithSessionID attaches a session id to ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}
