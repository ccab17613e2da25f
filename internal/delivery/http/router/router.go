package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/er-ebrahimi/architecture-ai/internal/delivery/http/handler"
	"github.com/er-ebrahimi/architecture-ai/internal/delivery/http/middleware"
)

func New(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.HandleHealthCheck)
	mux.HandleFunc("POST /api/products", h.HandleAddProduct)
	mux.HandleFunc("POST /api/search", h.HandleSearch)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	var chainedHandler http.Handler = mux
	chainedHandler = middleware.Metrics(chainedHandler)
	chainedHandler = middleware.Logging(chainedHandler)

	return chainedHandler
}
