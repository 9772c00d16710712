// Package rbac gates staff-only endpoints.
package rbac

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"account-service/internal/server/httpx"
	"account-service/internal/server/middleware"
	userdomain "account-service/internal/user/domain"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotStaff        = errors.New("staff access required")
)

// UserGetter loads the caller's user record.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// RequireStaff returns the caller's user id when the caller is an active staff user.
func RequireStaff(ctx context.Context, users UserGetter) (string, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	u, err := users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUnauthenticated
	}
	if !u.IsStaff || !u.IsActive() {
		return "", ErrNotStaff
	}
	return userID, nil
}

// StaffOnly is RequireStaff as HTTP middleware; it must run after middleware.RequireAuth.
func StaffOnly(users UserGetter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := RequireStaff(r.Context(), users)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, ErrUnauthenticated):
				httpx.RespondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			case errors.Is(err, ErrNotStaff):
				httpx.RespondDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			default:
				httpx.RespondInternal(w, log, r, err)
			}
		})
	}
}
