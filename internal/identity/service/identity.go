package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/internal/identity/mail"
	"github.com/keyhaven/backoffice/internal/identity/metrics"
	"github.com/keyhaven/backoffice/internal/identity/store"
	"github.com/keyhaven/backoffice/pkg/cryptox"
	"github.com/keyhaven/backoffice/pkg/jwtx"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrSelfMutation       = errors.New("cannot change own role or status")
	ErrEmailVerified      = errors.New("email already verified")
)

// IdentityService owns authentication and account administration: login,
// the password recovery flows, email verification and the admin-side role
// and status changes.
type IdentityService struct {
	Store    store.Store
	Tokens   *TokenService
	Signer   jwtx.Signer
	Mailer   mail.Mailer
	Composer *mail.Composer
	Metrics  metrics.Recorder

	Issuer     string
	SessionTTL time.Duration

	Now func() time.Time
}

func (s *IdentityService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *IdentityService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return jwtx.DefaultSessionTTL
}

func (s *IdentityService) recorder() metrics.Recorder {
	if s.Metrics != nil {
		return s.Metrics
	}
	return metrics.Nop{}
}

// Session is a freshly minted session credential plus the user it belongs
// to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// Login authenticates an email/password pair and mints a session
// credential. Unknown email, inactive account and wrong password all
// produce the same ErrInvalidCredentials, so responses never reveal
// whether an address is registered.
func (s *IdentityService) Login(ctx context.Context, email, password string) (Session, error) {
	log := slogx.FromContext(ctx)

	if email == "" || password == "" {
		s.recorder().RecordLogin(false)
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn comparable time so unknown addresses aren't
			// distinguishable by latency.
			_ = cryptox.VerifyPassword(password, cryptox.DummyHash)
			s.recorder().RecordLogin(false)
			return Session{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch user for login", slog.Any("error", err))
		return Session{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		log.Info("login failed: wrong password", slog.String("user_id", user.ID))
		s.recorder().RecordLogin(false)
		return Session{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Info("login rejected: inactive account", slog.String("user_id", user.ID))
		s.recorder().RecordLogin(false)
		return Session{}, ErrInvalidCredentials
	}

	now := s.now()
	claims := jwtx.NewSessionClaims(user.ID, user.Email, string(user.Role), s.sessionTTL(), s.Issuer, now)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		log.Error("failed to sign session credential", slog.Any("error", err))
		return Session{}, err
	}

	if err := s.Store.Users().SetLastLogin(ctx, user.ID, now.UTC()); err != nil {
		// Bookkeeping only; the session is already valid.
		log.Warn("failed to record last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
	last := now.UTC()
	user.LastLoginAt = &last

	s.recorder().RecordLogin(true)
	log.Info("login succeeded",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

// ForgotPassword issues a RESET token and emails the reset link. A request
// for an unknown or inactive address is silently swallowed: the caller
// always sees success, so the endpoint cannot be used to probe which
// addresses exist.
func (s *IdentityService) ForgotPassword(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("forgot-password for unknown address swallowed")
			return nil
		}
		log.Error("failed to fetch user for password reset", slog.Any("error", err))
		return err
	}
	if !user.IsActive {
		log.Info("forgot-password for inactive account swallowed",
			slog.String("user_id", user.ID),
		)
		return nil
	}

	raw, err := s.Tokens.Issue(ctx, s.Store, domain.PurposeReset, user.ID, ResetTokenTTL)
	if err != nil {
		return err
	}
	s.recorder().RecordTokenIssued(string(domain.PurposeReset))

	s.sendMail(ctx, s.Composer.PasswordReset(user.Email, raw))
	return nil
}

// ResetPassword redeems a RESET token and installs the new password. Both
// happen in one transaction: either the token is consumed and the password
// changed, or neither.
func (s *IdentityService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	log := slogx.FromContext(ctx)

	if rawToken == "" || newPassword == "" {
		return ErrTokenNotFound
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	var userID string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		token, err := s.Tokens.Redeem(ctx, tx, rawToken, domain.PurposeReset)
		if err != nil {
			return err
		}
		userID = token.UserID
		return tx.Users().UpdatePasswordHash(ctx, token.UserID, hash)
	})
	if err != nil {
		return err
	}

	s.recorder().RecordTokenRedeemed(string(domain.PurposeReset))
	log.Info("password reset completed", slog.String("user_id", userID))
	return nil
}

// SendEmailVerification issues a VERIFY token for the user and emails the
// verification link. Safe to call repeatedly; each call issues a fresh
// token without invalidating earlier ones.
func (s *IdentityService) SendEmailVerification(ctx context.Context, userID string) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		log.Error("failed to fetch user for verification", slog.Any("error", err))
		return err
	}
	if user.EmailVerifiedAt != nil {
		return ErrEmailVerified
	}

	raw, err := s.Tokens.Issue(ctx, s.Store, domain.PurposeVerify, user.ID, VerifyTokenTTL)
	if err != nil {
		return err
	}
	s.recorder().RecordTokenIssued(string(domain.PurposeVerify))

	s.sendMail(ctx, s.Composer.EmailVerification(user.Email, raw))
	return nil
}

// VerifyEmail redeems a VERIFY token and stamps email_verified_at, both in
// one transaction.
func (s *IdentityService) VerifyEmail(ctx context.Context, rawToken string) error {
	log := slogx.FromContext(ctx)

	if rawToken == "" {
		return ErrTokenNotFound
	}

	var userID string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		token, err := s.Tokens.Redeem(ctx, tx, rawToken, domain.PurposeVerify)
		if err != nil {
			return err
		}
		userID = token.UserID
		return tx.Users().SetEmailVerified(ctx, token.UserID, s.now().UTC())
	})
	if err != nil {
		return err
	}

	s.recorder().RecordTokenRedeemed(string(domain.PurposeVerify))
	log.Info("email verified", slog.String("user_id", userID))
	return nil
}

// UpdateRole changes a user's role. Administrators cannot demote
// themselves; that would make it too easy to lock every admin out.
func (s *IdentityService) UpdateRole(ctx context.Context, actorID, userID string, role domain.Role) error {
	log := slogx.FromContext(ctx)

	if !role.Valid() {
		return ErrInvalidRole
	}
	if actorID == userID {
		return ErrSelfMutation
	}

	if err := s.Store.Users().UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		log.Error("failed to update role",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("role updated",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
		slog.String("actor_id", actorID),
	)
	return nil
}

// UpdateStatus activates or deactivates an account. Deactivation is
// immediate for new logins; outstanding session credentials keep working
// until guards re-check the account, which every privileged route does.
// Self-deactivation is rejected for the same reason as self-demotion.
func (s *IdentityService) UpdateStatus(ctx context.Context, actorID, userID string, active bool) error {
	log := slogx.FromContext(ctx)

	if actorID == userID {
		return ErrSelfMutation
	}

	if err := s.Store.Users().UpdateActive(ctx, userID, active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		log.Error("failed to update status",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("status updated",
		slog.String("user_id", userID),
		slog.Bool("active", active),
		slog.String("actor_id", actorID),
	)
	return nil
}

// GetUser returns a single user by id.
func (s *IdentityService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// ListUsers returns all users, newest first.
func (s *IdentityService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

func (s *IdentityService) sendMail(ctx context.Context, msg mail.Message) {
	log := slogx.FromContext(ctx)

	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		s.recorder().RecordEmail(false)
		log.Error("failed to send email",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
			slog.Any("error", err),
		)
		return
	}
	s.recorder().RecordEmail(true)
}
