package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"account-service/internal/address/repository"
	"account-service/internal/address/service"
	"account-service/internal/server/middleware"
)

const validBody = `{"receiver_name":"Alice","phone_number":"+919876543210","address_line_1":"1 Rabbit Hole",
"city":"Oxford","state":"Oxfordshire","postal_code":"OX1 1AA","country":"UK","is_default":true}`

func newRouter() http.Handler {
	r := chi.NewRouter()
	New(service.New(repository.NewMemoryRepository()), nil).Routes(r)
	return r
}

func call(h http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req = req.WithContext(middleware.WithIdentity(req.Context(), userID, "s1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAddressCRUD(t *testing.T) {
	h := newRouter()

	rec := call(h, http.MethodPost, "/addresses", "u1", validBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body %s", rec.Code, rec.Body)
	}
	var created struct {
		Message string  `json:"message"`
		Address Address `json:"address"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Message != "Address created successfully" || created.Address.AddressType != "home" || !created.Address.IsDefault {
		t.Fatalf("created = %+v", created)
	}
	path := "/addresses/" + created.Address.ID

	if rec := call(h, http.MethodGet, path, "u1", ""); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}
	if rec := call(h, http.MethodGet, path, "u2", ""); rec.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d", rec.Code)
	}

	updated := strings.Replace(validBody, "Oxford\"", "Cambridge\"", 1)
	rec = call(h, http.MethodPut, path, "u1", updated)
	var got Address
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if rec.Code != http.StatusOK || got.City != "Cambridge" {
		t.Errorf("update = %d %+v", rec.Code, got)
	}

	rec = call(h, http.MethodGet, "/addresses", "u1", "")
	var list []Address
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Errorf("list = %v", list)
	}
	rec = call(h, http.MethodGet, "/addresses", "u2", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list body = %q", rec.Body.String())
	}

	if rec := call(h, http.MethodDelete, path, "u1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := call(h, http.MethodDelete, path, "u1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rec.Code)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	rec := call(newRouter(), http.MethodPost, "/addresses", "u1", `{"receiver_name":"Alice","address_type":"castle"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var fields map[string][]string
	_ = json.Unmarshal(rec.Body.Bytes(), &fields)
	for _, f := range []string{"phone_number", "address_line_1", "city", "address_type"} {
		if len(fields[f]) == 0 {
			t.Errorf("missing error for %s in %v", f, fields)
		}
	}
}
