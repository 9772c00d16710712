package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Identifier string `json:"identifier"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"identifier":"a@b.c","extra":1}`))
	if err := DecodeJSON(r, &dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if dst.Identifier != "a@b.c" {
		t.Errorf("Identifier = %q", dst.Identifier)
	}

	empty := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(empty, &dst); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("empty body err = %v, want ErrEmptyBody", err)
	}
	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"identifier":`))
	if err := DecodeJSON(bad, &dst); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestRespondDetailAndInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondDetail(rec, http.StatusBadRequest, "User not found.")
	if rec.Code != http.StatusBadRequest || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("status=%d content-type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["detail"] != "User not found." {
		t.Errorf("detail = %q", body["detail"])
	}
	if _, ok := body["field"]; ok {
		t.Error("empty field should be omitted")
	}

	rec = httptest.NewRecorder()
	RespondInternal(rec, zap.NewNop(), httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("db down"))
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "db down") {
		t.Errorf("internal: status=%d body=%s", rec.Code, rec.Body.String())
	}
}
