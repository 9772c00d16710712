package repository

import (
	"context"
	"testing"
	"time"

	"account-service/internal/identity/domain"
)

func TestMemoryRepository_SetPasswordHash(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := r.SetPasswordHash(ctx, nil, "u1", "hash-1", now); err != nil {
		t.Fatalf("SetPasswordHash insert: %v", err)
	}
	i, _ := r.GetByUserAndProvider(ctx, "u1", domain.IdentityProviderLocal)
	if !i.HasPassword() || i.PasswordHash != "hash-1" {
		t.Fatalf("after insert = %+v", i)
	}
	id := i.ID

	later := now.Add(time.Hour)
	if err := r.SetPasswordHash(ctx, nil, "u1", "hash-2", later); err != nil {
		t.Fatalf("SetPasswordHash update: %v", err)
	}
	i, _ = r.GetByUserAndProvider(ctx, "u1", domain.IdentityProviderLocal)
	if i.ID != id || i.PasswordHash != "hash-2" || !i.UpdatedAt.Equal(later) {
		t.Errorf("after update = %+v", i)
	}
}

func TestIdentity_HasPassword(t *testing.T) {
	var nilIdent *domain.Identity
	if nilIdent.HasPassword() {
		t.Error("nil identity has no password")
	}
	if (&domain.Identity{Provider: domain.IdentityProviderLocal}).HasPassword() {
		t.Error("empty hash is not a password")
	}
}
