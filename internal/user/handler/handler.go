// Package handler serves the current user's profile over HTTP.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"account-service/internal/server/httpx"
	"account-service/internal/server/middleware"
	"account-service/internal/user/domain"
)

const maxNameLen = 150

// User is the JSON representation of a user.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone_number"`
	IsActive  bool   `json:"is_active"`
	IsStaff   bool   `json:"is_staff"`
}

// Represent converts a domain user for responses.
func Represent(u *domain.User) User {
	return User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		IsActive:  u.IsActive(),
		IsStaff:   u.IsStaff,
	}
}

// Store is the user persistence the handler needs.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

// Handler serves /users/me.
type Handler struct {
	users Store
	log   *zap.Logger
	nowF  func() time.Time
}

// New returns a Handler.
func New(users Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{users: users, log: log, nowF: func() time.Time { return time.Now().UTC() }}
}

// Routes mounts the profile endpoints; r must already require authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/users/me", h.handleGetMe)
	r.Patch("/users/me", h.handleUpdateMe)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) *domain.User {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.RespondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return nil
	}
	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		httpx.RespondInternal(w, h.log, r, err)
		return nil
	}
	if u == nil {
		httpx.RespondDetail(w, http.StatusNotFound, "Not found.")
		return nil
	}
	return u
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	if u := h.currentUser(w, r); u != nil {
		httpx.RespondJSON(w, http.StatusOK, Represent(u))
	}
}

type updateMeBody struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var body updateMeBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	if body.FirstName != nil {
		u.FirstName = strings.TrimSpace(*body.FirstName)
	}
	if body.LastName != nil {
		u.LastName = strings.TrimSpace(*body.LastName)
	}
	for field, v := range map[string]string{"first_name": u.FirstName, "last_name": u.LastName} {
		if len([]rune(v)) > maxNameLen {
			httpx.RespondJSON(w, http.StatusBadRequest, httpx.Detail{Detail: "Ensure this field has no more than 150 characters.", Field: field})
			return
		}
	}
	u.UpdatedAt = h.nowF()
	if err := h.users.Update(r.Context(), u); err != nil {
		httpx.RespondInternal(w, h.log, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, Represent(u))
}
