package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tejaspavanb/DeepFake/internal/logger"
)

// RequestLogger writes one access log line per request, at warning level for
// client errors and error level for server errors.
func RequestLogger(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				elapsed := time.Since(start).Round(time.Microsecond)
				reqID := chimw.GetReqID(r.Context())

				switch {
				case status >= 500:
					logger.Error("%s %s -> %d (%s) [%s]", r.Method, r.URL.Path, status, elapsed, reqID)
				case status >= 400:
					logger.Warning("%s %s -> %d (%s) [%s]", r.Method, r.URL.Path, status, elapsed, reqID)
				default:
					logger.Debug("%s %s -> %d %dB (%s) [%s]", r.Method, r.URL.Path, status, ww.BytesWritten(), elapsed, reqID)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
