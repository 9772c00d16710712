package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"account-service/internal/db"
	"account-service/internal/identifier"
	identitydomain "account-service/internal/identity/domain"
	"account-service/internal/security"
	sessiondomain "account-service/internal/session/domain"
	userdomain "account-service/internal/user/domain"
	userrepo "account-service/internal/user/repository"
)

// Sentinel errors for the auth service; the HTTP handler maps them to responses.
var (
	ErrInvalidCredentials     = errors.New("unable to log in with provided credentials")
	ErrUnauthenticated        = errors.New("invalid or expired token")
	ErrPasswordFieldsRequired = errors.New("please enter all password fields")
	ErrOldPasswordIncorrect   = errors.New("old password is not correct")
	ErrPasswordMismatch       = errors.New("new password and confirm password do not match")
)

// FieldErrors maps a request field to its validation messages.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	var b strings.Builder
	for field, msgs := range e {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(field + ": " + strings.Join(msgs, " "))
	}
	return b.String()
}

func (e FieldErrors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// UserRepo is the user persistence the auth service needs.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByPhone(ctx context.Context, phone string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// IdentityRepo is the credential persistence the auth service needs.
type IdentityRepo interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error)
	SetPasswordHash(ctx context.Context, q db.Querier, userID, passwordHash string, at time.Time) error
}

// SessionRepo is the session persistence the auth service needs.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeAllByUser(ctx context.Context, userID string, at time.Time) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// LoginResolver finds the user a login identifier refers to.
type LoginResolver interface {
	ResolveForLogin(ctx context.Context, identifier string) (*userdomain.User, error)
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username  string
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Password  string
}

// TokenResult is a freshly issued login token.
type TokenResult struct {
	Token  string
	Expiry time.Time
	User   *userdomain.User
}

// Principal identifies the caller of an authenticated request.
type Principal struct {
	UserID    string
	SessionID string
}

// AuthService implements registration, identifier login, session tokens, and password change.
type AuthService struct {
	users      UserRepo
	identities IdentityRepo
	sessions   SessionRepo
	resolver   LoginResolver
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	log        *zap.Logger
	nowF       func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	users UserRepo,
	identities IdentityRepo,
	sessions SessionRepo,
	resolver LoginResolver,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		identities: identities,
		sessions:   sessions,
		resolver:   resolver,
		hasher:     hasher,
		tokens:     tokens,
		log:        log,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user with a local password identity and returns a login token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	errs := FieldErrors{}
	s.validateRegistration(ctx, in, errs)
	if len(errs) > 0 {
		return nil, errs
	}

	now := s.nowF()
	user := &userdomain.User{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Username:  in.Username,
		Email:     in.Email,
		Phone:     in.Phone,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, FieldErrors{"non_field_errors": {err.Error()}}
	}
	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, FieldErrors{"non_field_errors": {"A user with these details already exists."}}
		}
		return nil, err
	}
	if err := s.identities.SetPasswordHash(ctx, nil, user.ID, hashed, now); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID))
	return s.startSession(ctx, user)
}

func (s *AuthService) validateRegistration(ctx context.Context, in RegisterInput, errs FieldErrors) {
	switch n := len([]rune(in.Username)); {
	case n == 0:
		errs.add("username", "This field is required.")
	case n < userdomain.MinUsernameLen || n > userdomain.MaxUsernameLen:
		errs.add("username", "Ensure this field has between 3 and 150 characters.")
	default:
		if u, err := s.users.GetByUsername(ctx, in.Username); err == nil && u != nil {
			errs.add("username", "A user with that username already exists.")
		}
	}

	if in.Email == "" {
		errs.add("email", "This field is required.")
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		errs.add("email", "Enter a valid email address.")
	} else if u, err := s.users.GetByEmail(ctx, in.Email); err == nil && u != nil {
		errs.add("email", "A user with that email already exists.")
	}

	if in.Phone != "" {
		if len(in.Phone) > userdomain.MaxPhoneLen {
			errs.add("phone_number", "Ensure this field has no more than 15 characters.")
		} else if k, err := identifier.Classify(in.Phone); err != nil || k != identifier.KindPhone {
			errs.add("phone_number", "Enter a valid phone number.")
		} else if u, err := s.users.GetByPhone(ctx, in.Phone); err == nil && u != nil {
			errs.add("phone_number", "A user with that phone number already exists.")
		}
	}

	if in.Password == "" {
		errs.add("password", "This field is required.")
	} else if err := ValidatePassword(in.Password, in.Username, in.Email); err != nil {
		var pe *PasswordPolicyError
		if errors.As(err, &pe) {
			errs["password"] = append(errs["password"], pe.Messages...)
		}
	}
}

// Login authenticates identifier (phone fragment or email) and password and starts a session.
// Unknown identifiers return identifier.ErrUserNotFound.
func (s *AuthService) Login(ctx context.Context, ident, password string) (*TokenResult, error) {
	user, err := s.resolver.ResolveForLogin(ctx, ident)
	if err != nil {
		return nil, err
	}
	if password == "" || !user.IsActive() {
		return nil, ErrInvalidCredentials
	}
	if err := s.checkPassword(ctx, user.ID, password); err != nil {
		return nil, err
	}
	return s.startSession(ctx, user)
}

func (s *AuthService) checkPassword(ctx context.Context, userID, password string) error {
	ident, err := s.identities.GetByUserAndProvider(ctx, userID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return err
	}
	if !ident.HasPassword() {
		return ErrInvalidCredentials
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// startSession issues a token bound to a new session row. Only the token digest is stored.
func (s *AuthService) startSession(ctx context.Context, user *userdomain.User) (*TokenResult, error) {
	sessionID := uuid.New().String()
	issued, err := s.tokens.Issue(sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:          sessionID,
		UserID:      user.ID,
		TokenDigest: security.TokenDigest(issued.Token),
		ExpiresAt:   issued.ExpiresAt,
		CreatedAt:   s.nowF(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &TokenResult{Token: issued.Token, Expiry: issued.ExpiresAt, User: user}, nil
}

// Authenticate validates a bearer token against its session and touches last_seen_at.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	sess, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	now := s.nowF()
	if !sess.IsActive(now) || sess.UserID != claims.Subject || !security.TokenDigestEqual(token, sess.TokenDigest) {
		return nil, ErrUnauthenticated
	}
	if err := s.sessions.UpdateLastSeen(ctx, sess.ID, now); err != nil {
		s.log.Warn("update session last seen", zap.String("session_id", sess.ID), zap.Error(err))
	}
	return &Principal{UserID: sess.UserID, SessionID: sess.ID}, nil
}

// Logout revokes one session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID, s.nowF())
}

// LogoutAll revokes every session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.sessions.RevokeAllByUser(ctx, userID, s.nowF())
}

// ChangePassword replaces the user's password after checking the old one.
// Existing sessions stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	if oldPassword == "" || newPassword == "" || confirmPassword == "" {
		return ErrPasswordFieldsRequired
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnauthenticated
	}
	if err := s.checkPassword(ctx, userID, oldPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return ErrOldPasswordIncorrect
		}
		return err
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if err := ValidatePassword(newPassword, user.Username, user.Email); err != nil {
		return err
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.identities.SetPasswordHash(ctx, nil, userID, hashed, s.nowF()); err != nil {
		return err
	}
	s.log.Info("password changed", zap.String("user_id", userID))
	return nil
}
