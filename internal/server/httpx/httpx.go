// Package httpx holds the JSON request and response helpers shared by HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// ErrEmptyBody is returned by DecodeJSON when the request has no body.
var ErrEmptyBody = errors.New("request body required")

// DecodeJSON decodes the request body into dest.
func DecodeJSON(r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	defer r.Body.Close()
	err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(dest)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	return err
}

// RespondJSON writes payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// Detail is the body shape of every non-data response: {"detail": "..."}.
type Detail struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

// RespondDetail writes {"detail": msg}.
func RespondDetail(w http.ResponseWriter, status int, msg string) {
	RespondJSON(w, status, Detail{Detail: msg})
}

// RespondInternal logs err and writes a 500 without leaking it.
func RespondInternal(w http.ResponseWriter, log *zap.Logger, r *http.Request, err error) {
	if log != nil {
		log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	RespondDetail(w, http.StatusInternalServerError, "internal error")
}
