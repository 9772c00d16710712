// Package server assembles the HTTP API from the feature handlers.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"account-service/internal/platform/rbac"
	"account-service/internal/server/middleware"
	"account-service/internal/telemetry"
)

// APIPrefix is where the versioned API is mounted.
const APIPrefix = "/api/v1"

// Routes is implemented by handlers that mount their own endpoints.
type Routes interface {
	Routes(r chi.Router)
}

// AuthRoutes is implemented by the identity handler.
type AuthRoutes interface {
	PublicRoutes(r chi.Router)
	ProtectedRoutes(r chi.Router)
}

// RouterOptions wires handlers and cross-cutting middleware into the router.
type RouterOptions struct {
	Auth          AuthRoutes
	PasswordReset Routes
	Users         Routes
	Addresses     Routes
	Admin         Routes
	Health        Routes
	// DevOTP is mounted only when set.
	DevOTP Routes

	Authenticator middleware.Authenticator
	StaffUsers    rbac.UserGetter
	// Emitter receives request telemetry; nil disables it.
	Emitter telemetry.EventEmitter
	// Metrics serves /metrics; defaults to the global Prometheus registry.
	Metrics        http.Handler
	AllowedOrigins []string
	Log            *zap.Logger
}

// probePaths are kept out of request telemetry.
var probePaths = map[string]bool{"/healthz": true, "/readyz": true, "/metrics": true}

// NewRouter builds the HTTP handler: probes and metrics at the root, the API under APIPrefix.
func NewRouter(opts RouterOptions) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))
	r.Use(middleware.Telemetry(opts.Emitter, probePaths, log))

	if opts.Health != nil {
		opts.Health.Routes(r)
	}
	r.Method(http.MethodGet, "/metrics", metrics)
	if opts.DevOTP != nil {
		opts.DevOTP.Routes(r)
	}

	r.Route(APIPrefix, func(r chi.Router) {
		opts.Auth.PublicRoutes(r)
		opts.PasswordReset.Routes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(opts.Authenticator, log))
			opts.Auth.ProtectedRoutes(r)
			opts.Users.Routes(r)
			opts.Addresses.Routes(r)

			r.Group(func(r chi.Router) {
				r.Use(rbac.StaffOnly(opts.StaffUsers, log))
				opts.Admin.Routes(r)
			})
		})
	})

	return otelhttp.NewHandler(r, "account-service",
		otelhttp.WithFilter(func(req *http.Request) bool { return !probePaths[req.URL.Path] }))
}
