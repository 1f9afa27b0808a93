package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zentra/emojimatch/config"
	"github.com/zentra/emojimatch/internal/middleware"
	"github.com/zentra/emojimatch/internal/services/emoji"
	"github.com/zentra/emojimatch/internal/services/leader"
	"github.com/zentra/emojimatch/internal/services/websocket"
	"github.com/zentra/emojimatch/pkg/metrics"
)

type routerDeps struct {
	cfg     *config.Config
	metrics *metrics.Metrics // nil disables /metrics
	counter middleware.Counter
	emojis  *emoji.Handler
	leaders *leader.Handler
	ws      *websocket.Handler
}

func newRouter(d routerDeps) chi.Router {
	cfg := d.cfg
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware)
	if d.metrics != nil {
		r.Use(d.metrics.Middleware)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RedirectSlashes)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Origin"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
		Debug:            cfg.IsDevelopment(),
	}))

	// Security headers
	r.Use(middleware.SecurityHeadersMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
	})

	if d.metrics != nil {
		r.Handle("/metrics", d.metrics.Handler())
	}

	// API routes. OptionalAuth runs first so signed-in callers are limited
	// per user rather than per IP.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(middleware.OptionalAuth(cfg.JWT.Secret))
		r.Use(middleware.RateLimitMiddleware(d.counter, cfg.Server.RateLimitRPS))

		r.Mount("/emojis", d.emojis.Routes(cfg.JWT.Secret))
		r.Mount("/leaders", d.leaders.Routes(cfg.JWT.Secret))
	})

	// WebSocket endpoint (separate from API versioning)
	r.Mount("/ws", d.ws.Routes())

	return r
}
