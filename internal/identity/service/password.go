package service

import (
	"fmt"
	"strings"
	"unicode"

	passwordvalidator "github.com/wagslane/go-password-validator"
)

const (
	MinPasswordLength      = 8
	PasswordMinEntropyBits = 30
)

// PasswordPolicyError lists every rule a candidate password breaks.
type PasswordPolicyError struct {
	Messages []string
}

func (e *PasswordPolicyError) Error() string {
	return strings.Join(e.Messages, " ")
}

// ValidatePassword applies the password policy used by registration and password change.
// username and email feed the similarity rule and may be empty.
func ValidatePassword(password, username, email string) error {
	var msgs []string
	if len([]rune(password)) < MinPasswordLength {
		msgs = append(msgs, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if password != "" && isNumeric(password) {
		msgs = append(msgs, "This password is entirely numeric.")
	}
	if similar(password, username) {
		msgs = append(msgs, "The password is too similar to the username.")
	}
	local, _, _ := strings.Cut(email, "@")
	if similar(password, local) {
		msgs = append(msgs, "The password is too similar to the email address.")
	}
	if err := passwordvalidator.Validate(password, PasswordMinEntropyBits); err != nil {
		msgs = append(msgs, "This password is too common or predictable.")
	}
	if len(msgs) > 0 {
		return &PasswordPolicyError{Messages: msgs}
	}
	return nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// similar reports whether one of password and attr contains the other, ignoring
// case. Attributes shorter than three characters are ignored.
func similar(password, attr string) bool {
	p := strings.ToLower(password)
	a := strings.ToLower(strings.TrimSpace(attr))
	if len(a) < 3 || p == "" {
		return false
	}
	return strings.Contains(p, a) || strings.Contains(a, p)
}
