package store

import (
	"context"
	"errors"
	"time"

	"github.com/keyhaven/backoffice/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrAlreadyUsed reports a guarded single-use update that found its
	// target already consumed or already transitioned. The loser of a
	// redemption race sees this, never a generic failure.
	ErrAlreadyUsed = errors.New("store: already used")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it. Sub-repositories keep concerns tidy; services
// never touch SQL.
type Store interface {
	Users() Users
	Invitations() Invitations
	RecoveryTokens() RecoveryTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit or Rollback the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing on nil and rolling
	// back on error. This is the recommended way to express the
	// check-then-act sequences the invitation and token flows rely on.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store with commit/rollback control.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by lowercased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id supplied by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns all users, newest first.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// UpdatePasswordHash stores a new argon2 hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateRole changes the user's role.
	UpdateRole(ctx context.Context, userID string, role domain.Role) error

	// UpdateActive flips the active flag.
	UpdateActive(ctx context.Context, userID string, active bool) error

	// SetEmailVerified records the email verification timestamp.
	SetEmailVerified(ctx context.Context, userID string, at time.Time) error

	// SetLastLogin records a successful authentication.
	SetLastLogin(ctx context.Context, userID string, at time.Time) error

	// IsEmpty reports whether no users exist (bootstrap gate).
	IsEmpty(ctx context.Context) (bool, error)
}

type Invitations interface {
	// CreateInvitation writes a new PENDING invitation. Returns
	// ErrAlreadyExists when a PENDING invitation for the email already
	// exists (enforced by a partial unique index, closing the race
	// between concurrent creators).
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetInvitationByID returns an invitation regardless of status.
	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetInvitationByTokenHash returns the invitation holding the token
	// fingerprint, regardless of status or expiry; callers decide how a
	// non-PENDING or stale invitation fails.
	GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)

	// ListInvitations returns all invitations, newest first.
	ListInvitations(ctx context.Context) ([]domain.Invitation, error)

	// RotateInvitationToken replaces the token hash and expiry of a
	// PENDING invitation (resend). Returns ErrAlreadyUsed when the
	// invitation is no longer PENDING.
	RotateInvitationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error

	// TransitionStatus moves a PENDING invitation to a terminal status.
	// Returns ErrAlreadyUsed when the invitation already left PENDING, so
	// exactly one of two racing transitions wins.
	TransitionStatus(ctx context.Context, id string, to domain.InviteStatus) error

	// MarkAccepted records acceptance bookkeeping on an invitation that
	// was just transitioned to ACCEPTED.
	MarkAccepted(ctx context.Context, id, userID string, at time.Time) error

	// DeleteInvitation removes the record permanently, any status.
	DeleteInvitation(ctx context.Context, id string) error

	// ExpireStale flips PENDING invitations whose expiry has passed to
	// EXPIRED. Housekeeping; lazy expiry at redemption is authoritative.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type RecoveryTokens interface {
	// CreateRecoveryToken stores a freshly issued token fingerprint.
	CreateRecoveryToken(ctx context.Context, t domain.RecoveryToken) error

	// GetRecoveryTokenByHash fetches a token by fingerprint and purpose.
	GetRecoveryTokenByHash(ctx context.Context, hash string, purpose domain.TokenPurpose) (domain.RecoveryToken, error)

	// MarkRecoveryTokenUsed sets used_at, guarded on used_at IS NULL.
	// Returns ErrAlreadyUsed when another redemption got there first.
	MarkRecoveryTokenUsed(ctx context.Context, id string, at time.Time) error

	// DeleteExpired removes tokens past their expiry. Housekeeping.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
