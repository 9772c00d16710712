// Package handler serves the staff-only admin listing under /admin.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	addressdomain "account-service/internal/address/domain"
	addresshandler "account-service/internal/address/handler"
	"account-service/internal/server/httpx"
	userdomain "account-service/internal/user/domain"
	userhandler "account-service/internal/user/handler"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// UserLister lists and loads users.
type UserLister interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	List(ctx context.Context, limit, offset int) ([]*userdomain.User, error)
}

// AddressLister lists a user's addresses.
type AddressLister interface {
	List(ctx context.Context, userID string) ([]*addressdomain.Address, error)
}

// Handler serves admin endpoints. Callers wrap Routes with rbac.StaffOnly.
type Handler struct {
	users     UserLister
	addresses AddressLister
	log       *zap.Logger
}

// New returns a Handler.
func New(users UserLister, addresses AddressLister, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{users: users, addresses: addresses, log: log}
}

// Routes mounts /admin/users and /admin/users/{id}/addresses.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/admin/users", h.handleListUsers)
	r.Get("/admin/users/{id}/addresses", h.handleListAddresses)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", defaultLimit)
	if !ok || limit <= 0 {
		httpx.RespondDetail(w, http.StatusBadRequest, "limit must be a positive integer.")
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok || offset < 0 {
		httpx.RespondDetail(w, http.StatusBadRequest, "offset must be a non-negative integer.")
		return
	}
	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		httpx.RespondInternal(w, h.log, r, err)
		return
	}
	out := make([]userhandler.User, 0, len(users))
	for _, u := range users {
		out = append(out, userhandler.Represent(u))
	}
	httpx.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		httpx.RespondInternal(w, h.log, r, err)
		return
	}
	if u == nil {
		httpx.RespondDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	list, err := h.addresses.List(r.Context(), u.ID)
	if err != nil {
		httpx.RespondInternal(w, h.log, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, addresshandler.RepresentAll(list))
}

func queryInt(r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
