// Package api exposes the monitor's HTTP surface: status and mode endpoints,
// the WebSocket upgrade path, Prometheus metrics and a health probe.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forvines/metar-monitor/internal/config"
	"github.com/forvines/metar-monitor/internal/monitor"
	"github.com/forvines/metar-monitor/internal/websocket"
	"github.com/forvines/metar-monitor/pkg/logger"
)

// Router wires the API handlers into a chi router
type Router struct {
	handler  *Handler
	config   *config.Config
	logger   *logger.Logger
	wsServer *websocket.Server
	registry *prometheus.Registry
}

// NewRouter creates a new API router
func NewRouter(service *monitor.Service, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server, registry *prometheus.Registry) *Router {
	return &Router{
		handler:  NewHandler(service, cfg, log),
		config:   cfg,
		logger:   log.Named("api-router"),
		wsServer: wsServer,
		registry: registry,
	}
}

// Routes returns the assembled HTTP handler
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rt.corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", rt.handler.GetStatus)
		r.Get("/status/{icao}", rt.handler.GetAirportStatus)
		r.Get("/mode", rt.handler.GetMode)
		r.Post("/mode/advance", rt.handler.AdvanceMode)
		r.Get("/airports", rt.handler.GetAirports)
	})

	r.Get("/ws", rt.wsServer.HandleConnection)
	r.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	r.Get("/health", rt.handler.GetHealth)

	return r
}

// corsMiddleware applies the configured CORS policy
func (rt *Router) corsMiddleware(next http.Handler) http.Handler {
	allowed := rt.config.Server.CORSAllowedOrigins
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			for _, o := range allowed {
				if o == "*" || o == origin {
					w.Header().Set("Access-Control-Allow-Origin", o)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
					break
				}
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
