package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"account-service/internal/telemetry"
	"account-service/internal/telemetry/domain"
)

// Telemetry emits an "http_request" event after each request, best-effort and
// off the request path. Paths in skip are not reported. A nil emitter disables it.
func Telemetry(emitter telemetry.EventEmitter, skip map[string]bool, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if emitter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ctx, slot := withSlot(r.Context())
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			meta, _ := json.Marshal(domain.HTTPRequest{
				Method:     r.Method,
				Route:      routePattern(r),
				Status:     status,
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   ClientIP(r),
			})
			telemetry.EmitAsync(emitter, &domain.Event{
				UserID:    slot.userID,
				SessionID: slot.sessionID,
				EventType: "http_request",
				Source:    "http_middleware",
				Metadata:  meta,
				CreatedAt: start.UTC(),
			}, log)
		})
	}
}

// routePattern prefers the matched chi pattern so ids do not explode cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote host.
func ClientIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		first, _, _ := strings.Cut(v, ",")
		if s := strings.TrimSpace(first); s != "" {
			return s
		}
	}
	if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
		return v
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
