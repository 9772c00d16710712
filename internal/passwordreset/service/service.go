// Package service implements the two-step OTP password reset: request a code,
// then verify it and set a new password.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"account-service/internal/db"
	"account-service/internal/identifier"
	"account-service/internal/logging"
	"account-service/internal/notify"
	"account-service/internal/otp"
	policyengine "account-service/internal/policy/engine"
	userdomain "account-service/internal/user/domain"
)

// UserResolver finds the user a reset identifier belongs to.
type UserResolver interface {
	ResolveForReset(ctx context.Context, identifier string) (*userdomain.User, error)
}

// PasswordHasher hashes a plaintext password for storage.
type PasswordHasher interface {
	Hash(password []byte) (string, error)
}

// CredentialStore persists a password hash, inside q when q is non-nil.
type CredentialStore interface {
	SetPasswordHash(ctx context.Context, q db.Querier, userID, passwordHash string, at time.Time) error
}

// Deps groups the collaborators of Service.
type Deps struct {
	Users       UserResolver
	Codes       *otp.Service
	Notifier    notify.Deliverer
	Hasher      PasswordHasher
	Credentials CredentialStore
	Policy      policyengine.ResetEvaluator // optional
	Locker      Locker                      // optional; defaults to an in-process KeyedMutex
	Metrics     *Metrics                    // optional
	Log         *zap.Logger                 // optional
}

// Service orchestrates password reset.
type Service struct {
	users       UserResolver
	codes       *otp.Service
	notifier    notify.Deliverer
	hasher      PasswordHasher
	credentials CredentialStore
	policy      policyengine.ResetEvaluator
	locker      Locker
	metrics     *Metrics
	log         *zap.Logger
}

// New returns a Service. Users, Codes, Notifier, Hasher, and Credentials are required.
func New(d Deps) *Service {
	s := &Service{
		users:       d.Users,
		codes:       d.Codes,
		notifier:    d.Notifier,
		hasher:      d.Hasher,
		credentials: d.Credentials,
		policy:      d.Policy,
		locker:      d.Locker,
		metrics:     d.Metrics,
		log:         d.Log,
	}
	if s.locker == nil {
		s.locker = NewKeyedMutex()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// RequestReset issues a code for the identified user and delivers it over the
// channel matching the identifier. The code is never returned.
func (s *Service) RequestReset(ctx context.Context, ident string) error {
	if err := ValidateResetRequest(ident); err != nil {
		return err
	}
	ident = strings.TrimSpace(ident)
	user, err := s.users.ResolveForReset(ctx, ident)
	if err != nil {
		return err
	}
	channel := notify.ChannelFor(ident)

	decision := policyengine.DefaultResetDecision
	if s.policy != nil {
		decision, err = s.policy.EvaluateReset(ctx, user, string(channel))
		if err != nil {
			return fmt.Errorf("evaluate reset policy: %w", err)
		}
	}
	if decision.InvalidatePriorCodes {
		if err := s.codes.InvalidateAll(ctx, user.ID); err != nil {
			return fmt.Errorf("invalidate prior codes: %w", err)
		}
	}

	code, err := s.codes.Issue(ctx, user.ID)
	if err != nil {
		return err
	}
	address := user.Email
	if channel == notify.ChannelSMS {
		address = user.Phone
	}
	if err := s.notifier.Deliver(ctx, channel, address, code.Code); err != nil {
		return err
	}
	s.metrics.issued.Inc()
	s.log.Info("password reset code issued",
		zap.String("user_id", user.ID),
		zap.String("channel", string(channel)),
		zap.String("to", logging.MaskAddress(address)))
	return nil
}

// VerifyAndReset checks code for the identified user, stores newPassword, and
// deletes all of the user's codes in one unit of work. Concurrent calls for the
// same user are serialized; at most one consumes a given code.
func (s *Service) VerifyAndReset(ctx context.Context, ident, code, newPassword string) error {
	if err := ValidateVerifyRequest(ident, code, newPassword); err != nil {
		return err
	}
	ident = strings.TrimSpace(ident)
	user, err := s.users.ResolveForReset(ctx, ident)
	if err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("lock user: %w", err)
	}
	defer unlock()

	matched, err := s.codes.Verify(ctx, user.ID, code)
	if err != nil {
		s.recordVerify(err)
		return err
	}

	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.codes.Consume(ctx, matched, func(ctx context.Context, q db.Querier) error {
		return s.credentials.SetPasswordHash(ctx, q, user.ID, hash, s.codes.Now())
	})
	if err != nil {
		// ErrInvalidCode here means another request consumed the code first.
		s.recordVerify(err)
		s.metrics.resets.WithLabelValues(resultLabel(err)).Inc()
		return err
	}
	s.metrics.verified.WithLabelValues("ok").Inc()
	s.metrics.resets.WithLabelValues("ok").Inc()
	s.log.Info("password reset completed", zap.String("user_id", user.ID))
	return nil
}

func (s *Service) recordVerify(err error) {
	s.metrics.verified.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, otp.ErrExpired):
		return "expired"
	case errors.Is(err, otp.ErrInvalidCode):
		return "invalid"
	case errors.Is(err, identifier.ErrUserNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}
