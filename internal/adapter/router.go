package adapter

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter configures the public HTTP surface.
func NewRouter(auth *AuthHandler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))

	r.Post("/api/auth/signup", auth.Signup)
	r.Post("/api/auth/verify-email", auth.VerifyEmail)
	r.Get("/health", auth.Health)

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("HTTP")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("Request handled",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
