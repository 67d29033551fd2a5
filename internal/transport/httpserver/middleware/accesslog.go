package middleware

import (
	"net/http"
	"time"

	"booknook-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog writes one line per request through the service logger.
func AccessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, scope := logger.NewScope(r.Context())
			r = r.WithContext(ctx)
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimw.GetReqID(r.Context()),
			}
			args = append(args, scope.Attrs()...)
			if status >= http.StatusInternalServerError {
				log.Warn("http: request", args...)
				return
			}
			log.Info("http: request", args...)
		})
	}
}

// ClubScope tags the request's log scope with the {club_id} route param.
func ClubScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.ScopeFrom(r.Context()).SetClub(chi.URLParam(r, "club_id"))
		next.ServeHTTP(w, r)
	})
}
