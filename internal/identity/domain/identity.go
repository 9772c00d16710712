package domain

import "time"

// Identity is a credential linked to a user. Only the local (password) provider
// is issued by this service; the column stays open for future providers.
type Identity struct {
	ID           string
	UserID       string
	Provider     IdentityProvider
	ProviderID   string
	PasswordHash string // empty if not local
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type IdentityProvider string

const (
	IdentityProviderLocal IdentityProvider = "local"
)

// HasPassword reports whether the identity carries a usable password hash.
func (i *Identity) HasPassword() bool {
	return i != nil && i.Provider == IdentityProviderLocal && i.PasswordHash != ""
}
