// Package handler exposes registration, login, logout, and password change over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"account-service/internal/identifier"
	"account-service/internal/identity/service"
	"account-service/internal/server/httpx"
	"account-service/internal/server/middleware"
	userhandler "account-service/internal/user/handler"
)

// AuthService is the auth API the handler calls.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.TokenResult, error)
	Login(ctx context.Context, identifier, password string) (*service.TokenResult, error)
	Logout(ctx context.Context, sessionID string) error
	LogoutAll(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error
}

// Handler serves /auth endpoints.
type Handler struct {
	auth AuthService
	log  *zap.Logger
}

// New returns a Handler.
func New(auth AuthService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{auth: auth, log: log}
}

// PublicRoutes mounts register and login.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// ProtectedRoutes mounts the endpoints that need a bearer token; r must already require authentication.
func (h *Handler) ProtectedRoutes(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Post("/auth/logout-all", h.handleLogoutAll)
	r.Post("/auth/change-password", h.handleChangePassword)
}

type registerBody struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone_number"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type registerResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	Expiry  time.Time        `json:"expiry"`
	User    userhandler.User `json:"user"`
}

type loginBody struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
	ID     string    `json:"id"`
	Name   string    `json:"name"`
}

type changePasswordBody struct {
	OldPassword       string `json:"old_password"`
	NewPassword       string `json:"new_password"`
	ConfirmedPassword string `json:"confirmed_password"`
}

type result struct {
	Success bool `json:"success"`
	Message any  `json:"message"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:  body.Username,
		Email:     body.Email,
		Phone:     body.Phone,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Password:  body.Password,
	})
	var fe service.FieldErrors
	switch {
	case err == nil:
		httpx.RespondJSON(w, http.StatusCreated, registerResponse{
			Message: "User registered successfully",
			Token:   res.Token,
			Expiry:  res.Expiry,
			User:    userhandler.Represent(res.User),
		})
	case errors.As(err, &fe):
		httpx.RespondJSON(w, http.StatusBadRequest, fe)
	default:
		httpx.RespondInternal(w, h.log, r, err)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	res, err := h.auth.Login(r.Context(), body.Identifier, body.Password)
	switch {
	case err == nil:
		httpx.RespondJSON(w, http.StatusOK, loginResponse{
			Token:  res.Token,
			Expiry: res.Expiry,
			ID:     res.User.ID,
			Name:   res.User.Username,
		})
	case errors.Is(err, identifier.ErrUserNotFound):
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"message": "User not found."})
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.RespondJSON(w, http.StatusBadRequest, service.FieldErrors{
			"non_field_errors": {"Unable to log in with provided credentials."},
		})
	default:
		httpx.RespondInternal(w, h.log, r, err)
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := middleware.GetSessionID(r.Context())
	if err := h.auth.Logout(r.Context(), sessionID); err != nil {
		httpx.RespondInternal(w, h.log, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, result{Success: true, Message: "Successfully logged out."})
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	if err := h.auth.LogoutAll(r.Context(), userID); err != nil {
		httpx.RespondInternal(w, h.log, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, result{Success: true, Message: "Successfully logged out of all sessions."})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body changePasswordBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	err := h.auth.ChangePassword(r.Context(), userID, body.OldPassword, body.NewPassword, body.ConfirmedPassword)
	var pe *service.PasswordPolicyError
	switch {
	case err == nil:
		httpx.RespondJSON(w, http.StatusOK, result{Success: true, Message: "Password has been changed successfully."})
	case errors.Is(err, service.ErrPasswordFieldsRequired):
		httpx.RespondJSON(w, http.StatusBadRequest, result{Message: "Please enter all password fields."})
	case errors.Is(err, service.ErrOldPasswordIncorrect):
		httpx.RespondJSON(w, http.StatusBadRequest, result{Message: "Old password is not correct."})
	case errors.Is(err, service.ErrPasswordMismatch):
		httpx.RespondJSON(w, http.StatusBadRequest, result{Message: "New password and confirm password do not match."})
	case errors.As(err, &pe):
		httpx.RespondJSON(w, http.StatusBadRequest, result{Message: map[string][]string{"message": pe.Messages}})
	case errors.Is(err, service.ErrUnauthenticated):
		httpx.RespondDetail(w, http.StatusUnauthorized, "Invalid token.")
	default:
		httpx.RespondInternal(w, h.log, r, err)
	}
}
