package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"account-service/internal/db"
	"account-service/internal/otp/repository"
)

type fixedGenerator struct {
	codes []string
	i     int
}

func (g *fixedGenerator) Generate() (string, error) {
	c := g.codes[g.i%len(g.codes)]
	g.i++
	return c, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(codes ...string) (*Service, *repository.MemoryRepository, *clock) {
	repo := repository.NewMemoryRepository()
	clk := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	var gen Generator = RangeGenerator{}
	if len(codes) > 0 {
		gen = &fixedGenerator{codes: codes}
	}
	return NewService(repo, gen).WithClock(clk.now), repo, clk
}

func TestService_IssueSetsExpiry(t *testing.T) {
	svc, _, clk := newTestService()
	c, err := svc.Issue(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !c.CreatedAt.Equal(clk.t) {
		t.Errorf("CreatedAt = %v, want %v", c.CreatedAt, clk.t)
	}
	if got := c.ExpiresAt.Sub(c.CreatedAt); got != 10*time.Minute {
		t.Errorf("expiry - creation = %v, want 10m", got)
	}
	if !rangeCode.MatchString(c.Code) {
		t.Errorf("code %q does not match %s", c.Code, rangeCode)
	}
}

func TestService_Verify(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newTestService("123456", "654321")
	mine, _ := svc.Issue(ctx, "u1")
	theirs, _ := svc.Issue(ctx, "u2")

	tests := []struct {
		name    string
		userID  string
		code    string
		advance time.Duration
		wantErr error
	}{
		{"match", "u1", mine.Code, 0, nil},
		{"unknown code", "u1", "999999", 0, ErrInvalidCode},
		{"another user's code", "u1", theirs.Code, 0, ErrInvalidCode},
		{"at expiry", "u1", mine.Code, 10 * time.Minute, nil},
		{"after eleven minutes", "u1", mine.Code, 11 * time.Minute, ErrExpired},
		{"unknown code after expiry", "u1", "999999", 11 * time.Minute, ErrInvalidCode},
	}
	start := clk.t
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk.t = start.Add(tt.advance)
			_, err := svc.Verify(ctx, tt.userID, tt.code)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_VerifyExpiredKeepsRecord(t *testing.T) {
	ctx := context.Background()
	svc, repo, clk := newTestService("123456")
	_, _ = svc.Issue(ctx, "u1")
	clk.advance(11 * time.Minute)

	if _, err := svc.Verify(ctx, "u1", "123456"); !errors.Is(err, ErrExpired) {
		t.Fatalf("Verify = %v, want ErrExpired", err)
	}
	if n := repo.CountByUser("u1"); n != 1 {
		t.Errorf("expired record count = %d, want 1", n)
	}
}

func TestService_TwoIssuesBothValid(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService("111111", "222222")
	a, _ := svc.Issue(ctx, "u1")
	b, _ := svc.Issue(ctx, "u1")
	for _, c := range []string{a.Code, b.Code} {
		if _, err := svc.Verify(ctx, "u1", c); err != nil {
			t.Errorf("Verify(%s): %v", c, err)
		}
	}
}

func TestService_ConsumeClearsAllCodes(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService("111111", "222222")
	a, _ := svc.Issue(ctx, "u1")
	_, _ = svc.Issue(ctx, "u1")

	verified, err := svc.Verify(ctx, "u1", a.Code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := svc.Consume(ctx, verified, func(context.Context, db.Querier) error { return nil }); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if n := repo.CountByUser("u1"); n != 0 {
		t.Errorf("codes left = %d, want 0", n)
	}
	if _, err := svc.Verify(ctx, "u1", a.Code); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("Verify after consume = %v, want ErrInvalidCode", err)
	}
	if err := svc.Consume(ctx, verified, func(context.Context, db.Querier) error { return nil }); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("second Consume = %v, want ErrInvalidCode", err)
	}
}

func TestService_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	_, _ = svc.Issue(ctx, "u1")
	_, _ = svc.Issue(ctx, "u1")
	if err := svc.InvalidateAll(ctx, "u1"); err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
	if n := repo.CountByUser("u1"); n != 0 {
		t.Errorf("codes left = %d, want 0", n)
	}
}
