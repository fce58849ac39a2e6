package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portal-mailer/internal/platform/middleware"
)

// NewRouter wires the public endpoints with the shared middleware chain.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))

	r.Post("/", h.handleWebhooks)
	r.Get("/ping", h.handlePing)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
