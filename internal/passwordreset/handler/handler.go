// Package handler exposes the password reset flow over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"account-service/internal/identifier"
	"account-service/internal/notify"
	"account-service/internal/otp"
	"account-service/internal/passwordreset/service"
	"account-service/internal/server/httpx"
)

// ResetService is the part of the reset orchestrator the handler calls.
type ResetService interface {
	RequestReset(ctx context.Context, identifier string) error
	VerifyAndReset(ctx context.Context, identifier, code, newPassword string) error
}

// Handler serves /password-reset endpoints.
type Handler struct {
	svc ResetService
	log *zap.Logger
}

// New returns a Handler backed by svc.
func New(svc ResetService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// Routes mounts the reset endpoints on r. Both are unauthenticated.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/password-reset/request", h.handleRequest)
	r.Post("/password-reset/verify", h.handleVerify)
}

type requestBody struct {
	Identifier string `json:"identifier"`
}

type verifyBody struct {
	Identifier  string `json:"identifier"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := h.svc.RequestReset(r.Context(), body.Identifier); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.RespondDetail(w, http.StatusOK, "OTP sent successfully.")
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var body verifyBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := h.svc.VerifyAndReset(r.Context(), body.Identifier, body.OTP, body.NewPassword); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.RespondDetail(w, http.StatusOK, "Password reset successfully.")
}

// respondError maps reset errors to 400 with a client-safe detail. Anything
// unrecognized is a 500.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.RespondJSON(w, http.StatusBadRequest, httpx.Detail{Detail: ve.Message, Field: ve.Field})
	case errors.Is(err, identifier.ErrUserNotFound):
		httpx.RespondDetail(w, http.StatusBadRequest, "User not found.")
	case errors.Is(err, identifier.ErrInvalidIdentifierFormat):
		httpx.RespondDetail(w, http.StatusBadRequest, "Enter a valid email address or phone number.")
	case errors.Is(err, otp.ErrExpired):
		httpx.RespondDetail(w, http.StatusBadRequest, "OTP has expired.")
	case errors.Is(err, otp.ErrInvalidCode):
		httpx.RespondDetail(w, http.StatusBadRequest, "Invalid OTP.")
	case errors.Is(err, notify.ErrDelivery):
		h.log.Warn("reset code delivery failed", zap.Error(err))
		httpx.RespondDetail(w, http.StatusBadRequest, "Failed to send OTP. Please try again.")
	default:
		httpx.RespondInternal(w, h.log, r, err)
	}
}
