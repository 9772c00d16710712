package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	identityservice "account-service/internal/identity/service"
	"account-service/internal/server/httpx"
)

const bearerPrefix = "bearer "

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identityservice.Principal, error)
}

// RequireAuth rejects requests without a valid bearer token with 401 and puts
// the caller's user and session ids in the request context.
func RequireAuth(authn Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				httpx.RespondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}
			p, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, identityservice.ErrUnauthenticated) {
					httpx.RespondDetail(w, http.StatusUnauthorized, "Invalid token.")
					return
				}
				httpx.RespondInternal(w, log, r, err)
				return
			}
			ctx := WithIdentity(r.Context(), p.UserID, p.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearer returns the token from "Authorization: Bearer <token>", or "".
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) <= len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
