package domain

import (
	"fmt"
	"strings"
	"time"
)

// Address is a delivery address owned by one user. At most one address per user is the default.
type Address struct {
	ID                   string
	UserID               string
	ReceiverName         string
	PhoneNumber          string
	AlternatePhoneNumber string // optional
	AddressLine1         string
	AddressLine2         string // optional
	City                 string
	State                string
	PostalCode           string
	Country              string
	AddressType          AddressType
	IsDefault            bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type AddressType string

const (
	AddressTypeHome   AddressType = "home"
	AddressTypeOffice AddressType = "office"
	AddressTypeShop   AddressType = "shop"
	AddressTypeOther  AddressType = "other"
)

// Valid reports whether t is one of the known address types.
func (t AddressType) Valid() bool {
	switch t {
	case AddressTypeHome, AddressTypeOffice, AddressTypeShop, AddressTypeOther:
		return true
	}
	return false
}

// FieldError is a validation failure on one field.
type FieldError struct {
	Field   string
	Message string
}

// Validate trims fields, defaults AddressType to home, and returns every field failure.
func (a *Address) Validate() []FieldError {
	for _, p := range []*string{
		&a.ReceiverName, &a.PhoneNumber, &a.AlternatePhoneNumber, &a.AddressLine1, &a.AddressLine2,
		&a.City, &a.State, &a.PostalCode, &a.Country,
	} {
		*p = strings.TrimSpace(*p)
	}
	if a.AddressType == "" {
		a.AddressType = AddressTypeHome
	}

	var errs []FieldError
	check := func(field, v string, max int, required bool) {
		switch {
		case v == "" && required:
			errs = append(errs, FieldError{field, "This field is required."})
		case len([]rune(v)) > max:
			errs = append(errs, FieldError{field, fmt.Sprintf("Ensure this field has no more than %d characters.", max)})
		}
	}
	check("receiver_name", a.ReceiverName, 100, true)
	check("phone_number", a.PhoneNumber, 15, true)
	check("alternate_phone_number", a.AlternatePhoneNumber, 15, false)
	check("address_line_1", a.AddressLine1, 255, true)
	check("address_line_2", a.AddressLine2, 255, false)
	check("city", a.City, 100, true)
	check("state", a.State, 100, true)
	check("postal_code", a.PostalCode, 20, true)
	check("country", a.Country, 50, true)
	if !a.AddressType.Valid() {
		errs = append(errs, FieldError{"address_type", fmt.Sprintf("%q is not a valid choice.", string(a.AddressType))})
	}
	return errs
}
