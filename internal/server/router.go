package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/codesage/internal/config"
	"github.com/sevigo/codesage/internal/metrics"
	"github.com/sevigo/codesage/internal/server/handler"
)

// NewRouter creates and configures a new HTTP router with middleware and API routes.
// The API is served at the root and again under /api/v1.
func NewRouter(cfg *config.Config, reviews *handler.ReviewHandler, webhooks *handler.WebhookHandler, m *metrics.Metrics, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}
	if cfg.Server.MaxBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.Server.MaxBodySize))
	}

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"online","message":"CodeSage API is running"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", m.Handler())

	api := func(r chi.Router) {
		r.Post("/review", reviews.Review)
		r.Post("/feedback", reviews.Feedback)
		r.Get("/history", reviews.History)
		r.Post("/webhook/github", webhooks.Handle)
	}
	api(r)
	r.Route("/api/v1", api)

	logger.Debug("routes registered")
	return r
}
