package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"account-service/internal/server/middleware"
	userdomain "account-service/internal/user/domain"
)

type mapUsers struct {
	users map[string]*userdomain.User
	err   error
}

func (m mapUsers) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	return m.users[id], m.err
}

func TestRequireStaff(t *testing.T) {
	users := mapUsers{users: map[string]*userdomain.User{
		"staff":    {ID: "staff", IsStaff: true, Status: userdomain.UserStatusActive},
		"regular":  {ID: "regular", Status: userdomain.UserStatusActive},
		"disabled": {ID: "disabled", IsStaff: true, Status: userdomain.UserStatusDisabled},
	}}
	tests := []struct {
		name   string
		ctx    context.Context
		want   error
		status int
	}{
		{"staff", middleware.WithIdentity(context.Background(), "staff", "s"), nil, http.StatusOK},
		{"regular", middleware.WithIdentity(context.Background(), "regular", "s"), ErrNotStaff, http.StatusForbidden},
		{"disabled", middleware.WithIdentity(context.Background(), "disabled", "s"), ErrNotStaff, http.StatusForbidden},
		{"unknown", middleware.WithIdentity(context.Background(), "ghost", "s"), ErrUnauthenticated, http.StatusUnauthorized},
		{"anonymous", context.Background(), ErrUnauthenticated, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RequireStaff(tt.ctx, users); !errors.Is(err, tt.want) {
				t.Errorf("RequireStaff err = %v, want %v", err, tt.want)
			}
			rec := httptest.NewRecorder()
			h := StaffOnly(users, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tt.ctx))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRequireStaff_StoreError(t *testing.T) {
	ctx := middleware.WithIdentity(context.Background(), "u1", "s")
	rec := httptest.NewRecorder()
	StaffOnly(mapUsers{err: errors.New("db down")}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
