// Package handler serves liveness and readiness probes for Kubernetes and load balancers.
package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"account-service/internal/server/httpx"
)

const checkTimeout = 2 * time.Second

// Check reports whether a dependency is ready.
type Check func(ctx context.Context) error

// Handler serves /healthz and /readyz.
type Handler struct {
	checks map[string]Check
	log    *zap.Logger
}

// New returns a Handler that runs checks on /readyz.
func New(checks map[string]Check, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{checks: checks, log: log}
}

// Routes mounts the probes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleLive)
	r.Get("/readyz", h.handleReady)
}

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	httpx.RespondJSON(w, status, map[string]any{"status": overall, "checks": results})
}
