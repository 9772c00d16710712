package devotp

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"account-service/internal/server/httpx"
)

// Handler serves GET /dev/otp?identifier= from a Store.
type Handler struct {
	store Store
}

// NewHandler returns a Handler reading from store.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes mounts /dev/otp.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/dev/otp", h.handleGet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.URL.Query().Get("identifier"))
	if identifier == "" {
		httpx.RespondDetail(w, http.StatusBadRequest, "identifier is required.")
		return
	}
	code, ok := h.store.Get(r.Context(), identifier)
	if !ok {
		httpx.RespondDetail(w, http.StatusNotFound, "No OTP found for identifier.")
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"identifier": identifier, "otp": code})
}
