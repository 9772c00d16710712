package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"account-service/internal/db"
	"account-service/internal/otp/domain"
)

func newCode(id, userID, code string, at time.Time) *domain.OneTimeCode {
	return &domain.OneTimeCode{ID: id, UserID: userID, Code: code, CreatedAt: at, ExpiresAt: at.Add(DefaultTTL)}
}

func TestMemoryRepository_GetByUserAndCode(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = r.Create(ctx, newCode("c1", "u1", "123456", now))
	_ = r.Create(ctx, newCode("c2", "u2", "654321", now))

	if c, _ := r.GetByUserAndCode(ctx, "u1", "123456"); c == nil || c.ID != "c1" {
		t.Errorf("GetByUserAndCode u1 = %+v, want c1", c)
	}
	if c, _ := r.GetByUserAndCode(ctx, "u1", "654321"); c != nil {
		t.Errorf("another user's code must not match, got %s", c.ID)
	}
}

func TestMemoryRepository_ConsumeForReset(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = r.Create(ctx, newCode("c1", "u1", "111111", now))
	_ = r.Create(ctx, newCode("c2", "u1", "222222", now))
	_ = r.Create(ctx, newCode("c3", "u2", "333333", now))

	applied := false
	err := r.ConsumeForReset(ctx, "u1", "c1", func(ctx context.Context, q db.Querier) error {
		applied = true
		return nil
	})
	if err != nil {
		t.Fatalf("ConsumeForReset: %v", err)
	}
	if !applied {
		t.Error("apply was not called")
	}
	if n := r.CountByUser("u1"); n != 0 {
		t.Errorf("u1 has %d codes left, want 0", n)
	}
	if n := r.CountByUser("u2"); n != 1 {
		t.Errorf("u2 has %d codes, want 1", n)
	}

	err = r.ConsumeForReset(ctx, "u1", "c1", func(context.Context, db.Querier) error { return nil })
	if !errors.Is(err, ErrAlreadyConsumed) {
		t.Errorf("second consume: got %v, want ErrAlreadyConsumed", err)
	}
}

func TestMemoryRepository_ConsumeForResetApplyFailureKeepsCodes(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	_ = r.Create(ctx, newCode("c1", "u1", "111111", time.Now()))

	boom := errors.New("boom")
	err := r.ConsumeForReset(ctx, "u1", "c1", func(context.Context, db.Querier) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if n := r.CountByUser("u1"); n != 1 {
		t.Errorf("codes after failed apply = %d, want 1", n)
	}
}

func TestMemoryRepository_ConsumeForResetConcurrent(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	_ = r.Create(ctx, newCode("c1", "u1", "111111", time.Now()))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.ConsumeForReset(ctx, "u1", "c1", func(context.Context, db.Querier) error { return nil })
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Errorf("winners = %d, want exactly 1", wins.Load())
	}
}
