package service

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the only password rule applied on the reset path.
const MinPasswordLength = 8

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &ValidationError{Field: field, Message: "This field is required."}
	}
	return nil
}

// ValidateResetRequest checks the request-reset payload.
func ValidateResetRequest(identifier string) error {
	return required("identifier", identifier)
}

// ValidateVerifyRequest checks the verify-and-reset payload.
func ValidateVerifyRequest(identifier, otp, newPassword string) error {
	if err := required("identifier", identifier); err != nil {
		return err
	}
	if err := required("otp", otp); err != nil {
		return err
	}
	if utf8.RuneCountInString(otp) != 6 {
		return &ValidationError{Field: "otp", Message: "Ensure this field has exactly 6 characters."}
	}
	if newPassword == "" {
		return &ValidationError{Field: "new_password", Message: "This field is required."}
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return &ValidationError{Field: "new_password", Message: fmt.Sprintf("Ensure this field has at least %d characters.", MinPasswordLength)}
	}
	return nil
}
