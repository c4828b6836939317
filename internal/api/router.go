package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/roeintheglasses/heimdall/internal/config"
	"github.com/roeintheglasses/heimdall/internal/live"
	"github.com/roeintheglasses/heimdall/internal/metrics"
	"github.com/roeintheglasses/heimdall/internal/ratelimit"
	"github.com/roeintheglasses/heimdall/internal/relay"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Relay   *relay.Relay
	Stats   StatsProvider
	Hub     *live.Hub
	Metrics *metrics.Metrics
	// Limiter guards the webhook route. Nil disables rate limiting.
	Limiter ratelimit.Limiter
	Checks  map[string]HealthCheck
	Logger  *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	webhook := http.Handler(NewWebhookHandler(d.Relay, d.Metrics, d.Logger))
	if d.Limiter != nil {
		webhook = ratelimit.Middleware(d.Limiter, d.Logger)(webhook)
	}
	// Registered for every method so the handler answers non-POST itself.
	r.Handle("/api/webhook", webhook)

	railway := NewRailwayDebugHandler(d.Logger)
	r.Get("/api/railway-debug", railway.Status)
	r.Post("/api/railway-debug", railway.Receive)

	// Read-side routes are fetched from the dashboard in the browser.
	r.Group(func(r chi.Router) {
		r.Use(corsMiddleware)

		r.Get("/api/health", HealthHandler(d.Config.Version, d.Checks))
		r.Get("/api/debug/env", DebugEnvHandler(d.Config))

		if d.Stats != nil {
			r.Method(http.MethodGet, "/api/badge", NewBadgeHandler(d.Stats, d.Logger))
		}
		if d.Hub != nil {
			r.Get("/api/events/stream", d.Hub.HandleSSE)
			r.Get("/ws", d.Hub.HandleWebSocket)
		}
	})

	return r
}

// corsMiddleware adds CORS headers for the dashboard front end.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
