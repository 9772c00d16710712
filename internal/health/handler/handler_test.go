package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type readyBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func serve(checks map[string]Check, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	New(checks, nil).Routes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	failing := map[string]Check{"database": func(context.Context) error { return errors.New("down") }}
	if rec := serve(failing, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200 regardless of dependencies", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	tests := []struct {
		name   string
		checks map[string]Check
		status int
		want   map[string]string
	}{
		{
			name:   "all ready",
			checks: map[string]Check{"database": ok, "policy": ok},
			status: http.StatusOK,
			want:   map[string]string{"database": "ok", "policy": "ok"},
		},
		{
			name: "database down",
			checks: map[string]Check{
				"database": func(context.Context) error { return errors.New("connection refused") },
				"policy":   ok,
			},
			status: http.StatusServiceUnavailable,
			want:   map[string]string{"database": "connection refused", "policy": "ok"},
		},
		{
			name:   "no checks",
			checks: nil,
			status: http.StatusOK,
			want:   map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.checks, "/readyz")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body readyBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Checks) != len(tt.want) {
				t.Fatalf("checks = %v, want %v", body.Checks, tt.want)
			}
			for k, v := range tt.want {
				if body.Checks[k] != v {
					t.Errorf("checks[%s] = %q, want %q", k, body.Checks[k], v)
				}
			}
		})
	}
}
