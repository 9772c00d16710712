// Package handler serves /addresses for the authenticated user.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"account-service/internal/address/domain"
	"account-service/internal/address/service"
	"account-service/internal/server/httpx"
	"account-service/internal/server/middleware"
)

// Address is the JSON representation of an address.
type Address struct {
	ID                   string    `json:"id"`
	ReceiverName         string    `json:"receiver_name"`
	PhoneNumber          string    `json:"phone_number"`
	AlternatePhoneNumber string    `json:"alternate_phone_number"`
	AddressLine1         string    `json:"address_line_1"`
	AddressLine2         string    `json:"address_line_2"`
	City                 string    `json:"city"`
	State                string    `json:"state"`
	PostalCode           string    `json:"postal_code"`
	Country              string    `json:"country"`
	AddressType          string    `json:"address_type"`
	IsDefault            bool      `json:"is_default"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Represent converts a domain address for responses.
func Represent(a *domain.Address) Address {
	return Address{
		ID:                   a.ID,
		ReceiverName:         a.ReceiverName,
		PhoneNumber:          a.PhoneNumber,
		AlternatePhoneNumber: a.AlternatePhoneNumber,
		AddressLine1:         a.AddressLine1,
		AddressLine2:         a.AddressLine2,
		City:                 a.City,
		State:                a.State,
		PostalCode:           a.PostalCode,
		Country:              a.Country,
		AddressType:          string(a.AddressType),
		IsDefault:            a.IsDefault,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

// RepresentAll converts a list, never returning nil so it encodes as [].
func RepresentAll(list []*domain.Address) []Address {
	out := make([]Address, 0, len(list))
	for _, a := range list {
		out = append(out, Represent(a))
	}
	return out
}

// AddressService is the address API the handler calls.
type AddressService interface {
	Create(ctx context.Context, userID string, in domain.Address) (*domain.Address, error)
	List(ctx context.Context, userID string) ([]*domain.Address, error)
	Get(ctx context.Context, userID, id string) (*domain.Address, error)
	Update(ctx context.Context, userID, id string, in domain.Address) (*domain.Address, error)
	Delete(ctx context.Context, userID, id string) error
}

// Handler serves address CRUD.
type Handler struct {
	svc AddressService
	log *zap.Logger
}

// New returns a Handler.
func New(svc AddressService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// Routes mounts the address endpoints; r must already require authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/addresses", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

type addressBody struct {
	ReceiverName         string `json:"receiver_name"`
	PhoneNumber          string `json:"phone_number"`
	AlternatePhoneNumber string `json:"alternate_phone_number"`
	AddressLine1         string `json:"address_line_1"`
	AddressLine2         string `json:"address_line_2"`
	City                 string `json:"city"`
	State                string `json:"state"`
	PostalCode           string `json:"postal_code"`
	Country              string `json:"country"`
	AddressType          string `json:"address_type"`
	IsDefault            bool   `json:"is_default"`
}

func (b addressBody) toDomain() domain.Address {
	return domain.Address{
		ReceiverName:         b.ReceiverName,
		PhoneNumber:          b.PhoneNumber,
		AlternatePhoneNumber: b.AlternatePhoneNumber,
		AddressLine1:         b.AddressLine1,
		AddressLine2:         b.AddressLine2,
		City:                 b.City,
		State:                b.State,
		PostalCode:           b.PostalCode,
		Country:              b.Country,
		AddressType:          domain.AddressType(b.AddressType),
		IsDefault:            b.IsDefault,
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	var body addressBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return domain.Address{}, false
	}
	return body.toDomain(), true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	a, err := h.svc.Create(r.Context(), userID, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "Address created successfully",
		"address": Represent(a),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	list, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, RepresentAll(list))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	a, err := h.svc.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, Represent(a))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	a, err := h.svc.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, Represent(a))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		fields := make(map[string][]string, len(ve.Fields))
		for _, f := range ve.Fields {
			fields[f.Field] = append(fields[f.Field], f.Message)
		}
		httpx.RespondJSON(w, http.StatusBadRequest, fields)
	case errors.Is(err, service.ErrNotFound):
		httpx.RespondDetail(w, http.StatusNotFound, "Not found.")
	default:
		httpx.RespondInternal(w, h.log, r, err)
	}
}
