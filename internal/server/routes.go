package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	r.Use(RequestLogMiddleware)
	r.Use(h.MetricsMiddleware)

	r.Get("/", h.HandleIndex)
	r.Post("/analyze", h.HandleAnalyze)
	r.Get("/cache/{code}.csv", h.HandleCacheFile)
	r.Get("/healthz", h.HandleHealth)
	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/signals", h.HandleSignals)
	})

	return r
}
