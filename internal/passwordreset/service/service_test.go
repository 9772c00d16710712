package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"account-service/internal/identifier"
	identitydomain "account-service/internal/identity/domain"
	identityrepo "account-service/internal/identity/repository"
	"account-service/internal/notify"
	"account-service/internal/otp"
	otprepo "account-service/internal/otp/repository"
	policyengine "account-service/internal/policy/engine"
	"account-service/internal/security"
	userdomain "account-service/internal/user/domain"
	userrepo "account-service/internal/user/repository"
)

var sixDigits = regexp.MustCompile(`^[1-9][0-9]{5}$`)

type sent struct {
	channel notify.Channel
	address string
	code    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (n *recordingNotifier) Deliver(ctx context.Context, channel notify.Channel, address, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, sent{channel, address, code})
	return nil
}

func (n *recordingNotifier) last(t *testing.T) sent {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.msgs) == 0 {
		t.Fatal("nothing delivered")
	}
	return n.msgs[len(n.msgs)-1]
}

type staticPolicy struct{ d policyengine.ResetDecision }

func (p staticPolicy) EvaluateReset(context.Context, *userdomain.User, string) (policyengine.ResetDecision, error) {
	return p.d, nil
}

type fixture struct {
	svc      *Service
	codes    *otprepo.MemoryRepository
	idents   *identityrepo.MemoryRepository
	notifier *recordingNotifier
	hasher   *security.Hasher
	now      time.Time
	reg      *prometheus.Registry
}

func newFixture(t *testing.T, policy policyengine.ResetEvaluator) *fixture {
	t.Helper()
	ctx := context.Background()
	users := userrepo.NewMemoryRepository()
	for _, u := range []*userdomain.User{
		{ID: "u1", Username: "alice", Email: "alice@example.com", Phone: "+919876543210"},
		{ID: "u2", Username: "bob", Email: "bob@example.com"},
	} {
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	f := &fixture{
		codes:    otprepo.NewMemoryRepository(),
		idents:   identityrepo.NewMemoryRepository(),
		notifier: &recordingNotifier{},
		hasher:   security.NewHasher(bcrypt.MinCost),
		now:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		reg:      prometheus.NewRegistry(),
	}
	oldHash, _ := f.hasher.Hash([]byte("old-password"))
	_ = f.idents.SetPasswordHash(ctx, nil, "u1", oldHash, f.now)

	codes := otp.NewService(f.codes, otp.RangeGenerator{}).WithClock(func() time.Time { return f.now })
	f.svc = New(Deps{
		Users:       identifier.NewResolver(users),
		Codes:       codes,
		Notifier:    f.notifier,
		Hasher:      f.hasher,
		Credentials: f.idents,
		Policy:      policy,
		Metrics:     NewMetrics(f.reg),
		Log:         zap.NewNop(),
	})
	return f
}

func (f *fixture) passwordIs(t *testing.T, userID, password string) bool {
	t.Helper()
	i, _ := f.idents.GetByUserAndProvider(context.Background(), userID, identitydomain.IdentityProviderLocal)
	return i != nil && f.hasher.Compare(i.PasswordHash, []byte(password)) == nil
}

func TestRequestReset_Email(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.svc.RequestReset(context.Background(), "ALICE@example.com"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	msg := f.notifier.last(t)
	if msg.channel != notify.ChannelEmail || msg.address != "alice@example.com" {
		t.Errorf("delivered to %s %q, want email alice@example.com", msg.channel, msg.address)
	}
	if !sixDigits.MatchString(msg.code) {
		t.Errorf("code %q does not match %s", msg.code, sixDigits)
	}
	if f.codes.CountByUser("u1") != 1 {
		t.Errorf("stored codes = %d, want 1", f.codes.CountByUser("u1"))
	}
	if got := testutil.ToFloat64(f.svc.metrics.issued); got != 1 {
		t.Errorf("otp_issued_total = %v, want 1", got)
	}
}

func TestRequestReset_SMS(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.svc.RequestReset(context.Background(), "+919876543210"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if msg := f.notifier.last(t); msg.channel != notify.ChannelSMS || msg.address != "+919876543210" {
		t.Errorf("delivered to %s %q", msg.channel, msg.address)
	}
}

func TestRequestReset_Errors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if err := f.svc.RequestReset(ctx, "nobody@example.com"); !errors.Is(err, identifier.ErrUserNotFound) {
		t.Errorf("unknown user err = %v", err)
	}
	if err := f.svc.RequestReset(ctx, "alice"); !errors.Is(err, identifier.ErrInvalidIdentifierFormat) {
		t.Errorf("bad identifier err = %v", err)
	}
	var ve *ValidationError
	if err := f.svc.RequestReset(ctx, ""); !errors.As(err, &ve) {
		t.Errorf("empty identifier err = %v", err)
	}

	f.notifier.err = errors.Join(notify.ErrDelivery, errors.New("smtp down"))
	if err := f.svc.RequestReset(ctx, "alice@example.com"); !errors.Is(err, notify.ErrDelivery) {
		t.Errorf("delivery failure err = %v, want ErrDelivery", err)
	}
}

func TestRequestReset_TwiceBothValid(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_ = f.svc.RequestReset(ctx, "alice@example.com")
	first := f.notifier.last(t).code
	_ = f.svc.RequestReset(ctx, "alice@example.com")
	second := f.notifier.last(t).code

	for _, c := range []string{first, second} {
		if _, err := f.svc.codes.Verify(ctx, "u1", c); err != nil {
			t.Errorf("Verify(%s): %v", c, err)
		}
	}
}

func TestRequestReset_PolicyInvalidatesPrior(t *testing.T) {
	f := newFixture(t, staticPolicy{policyengine.ResetDecision{InvalidatePriorCodes: true}})
	ctx := context.Background()
	_ = f.svc.RequestReset(ctx, "alice@example.com")
	first := f.notifier.last(t).code
	_ = f.svc.RequestReset(ctx, "alice@example.com")
	second := f.notifier.last(t).code

	if f.codes.CountByUser("u1") != 1 {
		t.Fatalf("stored codes = %d, want 1", f.codes.CountByUser("u1"))
	}
	if first != second {
		if _, err := f.svc.codes.Verify(ctx, "u1", first); !errors.Is(err, otp.ErrInvalidCode) {
			t.Errorf("prior code err = %v, want ErrInvalidCode", err)
		}
	}
	if _, err := f.svc.codes.Verify(ctx, "u1", second); err != nil {
		t.Errorf("latest code: %v", err)
	}
}

func TestVerifyAndReset_Success(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_ = f.svc.RequestReset(ctx, "+919876543210")
	_ = f.svc.RequestReset(ctx, "alice@example.com")
	code := f.notifier.last(t).code

	if err := f.svc.VerifyAndReset(ctx, "alice@example.com", code, "new-password"); err != nil {
		t.Fatalf("VerifyAndReset: %v", err)
	}
	if !f.passwordIs(t, "u1", "new-password") || f.passwordIs(t, "u1", "old-password") {
		t.Error("password not replaced")
	}
	if n := f.codes.CountByUser("u1"); n != 0 {
		t.Errorf("codes left = %d, want 0", n)
	}
	if err := f.svc.VerifyAndReset(ctx, "alice@example.com", code, "another-password"); !errors.Is(err, otp.ErrInvalidCode) {
		t.Errorf("reuse err = %v, want ErrInvalidCode", err)
	}
	if got := testutil.ToFloat64(f.svc.metrics.resets.WithLabelValues("ok")); got != 1 {
		t.Errorf("password_reset_total{ok} = %v, want 1", got)
	}
}

func TestVerifyAndReset_Expired(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_ = f.svc.RequestReset(ctx, "alice@example.com")
	code := f.notifier.last(t).code

	f.now = f.now.Add(11 * time.Minute)
	if err := f.svc.VerifyAndReset(ctx, "alice@example.com", code, "new-password"); !errors.Is(err, otp.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if !f.passwordIs(t, "u1", "old-password") {
		t.Error("password changed on expired code")
	}
	if f.codes.CountByUser("u1") != 1 {
		t.Error("expired code should not be deleted")
	}
	if got := testutil.ToFloat64(f.svc.metrics.verified.WithLabelValues("expired")); got != 1 {
		t.Errorf("otp_verify_total{expired} = %v, want 1", got)
	}
}

func TestVerifyAndReset_OtherUsersCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_ = f.svc.RequestReset(ctx, "bob@example.com")
	bobCode := f.notifier.last(t).code

	if err := f.svc.VerifyAndReset(ctx, "alice@example.com", bobCode, "new-password"); !errors.Is(err, otp.ErrInvalidCode) {
		t.Errorf("err = %v, want ErrInvalidCode", err)
	}
	if err := f.svc.VerifyAndReset(ctx, "nobody@example.com", bobCode, "new-password"); !errors.Is(err, identifier.ErrUserNotFound) {
		t.Errorf("unknown user err = %v", err)
	}
	var ve *ValidationError
	if err := f.svc.VerifyAndReset(ctx, "alice@example.com", bobCode, "short"); !errors.As(err, &ve) || ve.Field != "new_password" {
		t.Errorf("short password err = %v", err)
	}
}

// consumedElsewhere loses every consume, as when a concurrent reset claims the code first.
type consumedElsewhere struct {
	*otprepo.MemoryRepository
}

func (consumedElsewhere) ConsumeForReset(context.Context, string, string, otprepo.ApplyFunc) error {
	return otprepo.ErrAlreadyConsumed
}

func TestVerifyAndReset_LostConsumeIsNotCountedAsVerified(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_ = f.svc.RequestReset(ctx, "alice@example.com")
	code := f.notifier.last(t).code

	svc := *f.svc
	svc.codes = otp.NewService(consumedElsewhere{f.codes}, otp.RangeGenerator{}).WithClock(func() time.Time { return f.now })

	if err := svc.VerifyAndReset(ctx, "alice@example.com", code, "new-password"); !errors.Is(err, otp.ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}
	if !f.passwordIs(t, "u1", "old-password") {
		t.Error("password changed although the consume was lost")
	}
	tests := []struct {
		name   string
		metric prometheus.Collector
		want   float64
	}{
		{"otp_verify_total{ok}", f.svc.metrics.verified.WithLabelValues("ok"), 0},
		{"otp_verify_total{invalid}", f.svc.metrics.verified.WithLabelValues("invalid"), 1},
		{"password_reset_total{invalid}", f.svc.metrics.resets.WithLabelValues("invalid"), 1},
		{"password_reset_total{ok}", f.svc.metrics.resets.WithLabelValues("ok"), 0},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.metric); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestVerifyAndReset_SuccessCountsOneVerify(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_ = f.svc.RequestReset(ctx, "alice@example.com")
	code := f.notifier.last(t).code

	if err := f.svc.VerifyAndReset(ctx, "alice@example.com", code, "new-password"); err != nil {
		t.Fatalf("VerifyAndReset: %v", err)
	}
	if got := testutil.ToFloat64(f.svc.metrics.verified.WithLabelValues("ok")); got != 1 {
		t.Errorf("otp_verify_total{ok} = %v, want 1", got)
	}
}

func TestVerifyAndReset_ConcurrentSameCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_ = f.svc.RequestReset(ctx, "alice@example.com")
	code := f.notifier.last(t).code

	var wins, invalid atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.svc.VerifyAndReset(ctx, "alice@example.com", code, "new-password")
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, otp.ErrInvalidCode):
				invalid.Add(1)
			default:
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 || invalid.Load() != 7 {
		t.Errorf("wins=%d invalid=%d, want 1 and 7", wins.Load(), invalid.Load())
	}
}
