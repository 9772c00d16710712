package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func newTestServer(t *testing.T, status int, got *PushRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_EmptyURL(t *testing.T) {
	if _, err := NewClient(" ", nil); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestPushEventJSON(t *testing.T) {
	var got PushRequest
	srv := newTestServer(t, http.StatusNoContent, &got)
	c, err := NewClient(srv.URL+"/", srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	raw := []byte(`{"event_type":"http_request","source":"http middleware","created_at":"` + at.Format(time.RFC3339Nano) + `"}`)
	if err := c.PushEventJSON(context.Background(), raw); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d", len(got.Streams))
	}
	s := got.Streams[0]
	if s.Stream["job"] != "account-service" || s.Stream["event_type"] != "http_request" || s.Stream["source"] != "http_middleware" {
		t.Errorf("labels = %v", s.Stream)
	}
	if s.Values[0][0] != strconv.FormatInt(at.UnixNano(), 10) || s.Values[0][1] != string(raw) {
		t.Errorf("values = %v", s.Values)
	}
}

func TestPushEventJSON_Undecodable(t *testing.T) {
	var got PushRequest
	srv := newTestServer(t, http.StatusNoContent, &got)
	c, _ := NewClient(srv.URL, srv.Client())
	if err := c.PushEventJSON(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(got.Streams[0].Stream) != 1 {
		t.Errorf("labels = %v, want job only", got.Streams[0].Stream)
	}
}

func TestPush_Non2xx(t *testing.T) {
	var got PushRequest
	srv := newTestServer(t, http.StatusBadRequest, &got)
	c, _ := NewClient(srv.URL, srv.Client())
	if err := c.Push(context.Background(), time.Now(), "line", nil); err == nil {
		t.Error("expected error on 400")
	}
}
