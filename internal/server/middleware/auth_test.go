package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	identityservice "account-service/internal/identity/service"
)

type fakeAuthn struct {
	token string
	err   error
}

func (f fakeAuthn) Authenticate(ctx context.Context, token string) (*identityservice.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token != f.token {
		return nil, identityservice.ErrUnauthenticated
	}
	return &identityservice.Principal{UserID: "u1", SessionID: "s1"}, nil
}

func TestRequireAuth(t *testing.T) {
	var gotUser, gotSession string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserID(r.Context())
		gotSession, _ = GetSessionID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		authn  fakeAuthn
		header string
		status int
	}{
		{"valid", fakeAuthn{token: "tok"}, "Bearer tok", http.StatusNoContent},
		{"lowercase scheme", fakeAuthn{token: "tok"}, "bearer tok", http.StatusNoContent},
		{"missing", fakeAuthn{token: "tok"}, "", http.StatusUnauthorized},
		{"wrong scheme", fakeAuthn{token: "tok"}, "Token tok", http.StatusUnauthorized},
		{"rejected", fakeAuthn{token: "tok"}, "Bearer other", http.StatusUnauthorized},
		{"store failure", fakeAuthn{err: errors.New("db down")}, "Bearer tok", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser, gotSession = "", ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			RequireAuth(tt.authn, nil)(next).ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusNoContent && (gotUser != "u1" || gotSession != "s1") {
				t.Errorf("context ids = %q, %q", gotUser, gotSession)
			}
		})
	}
}

func TestGetIDs_Empty(t *testing.T) {
	if _, ok := GetUserID(context.Background()); ok {
		t.Error("GetUserID on empty context should be false")
	}
	if _, ok := GetSessionID(WithIdentity(context.Background(), "u1", "")); ok {
		t.Error("empty session id should be false")
	}
}
