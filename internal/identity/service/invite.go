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
	"github.com/keyhaven/backoffice/pkg/idx"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

// InviteTTL is how long an invitation token stays redeemable.
const InviteTTL = 7 * 24 * time.Hour

var (
	ErrInvalidInviteRequest = errors.New("invalid invite request")
	ErrInvalidRole          = errors.New("invalid role")
	ErrEmailTaken           = errors.New("email already belongs to a user")
	ErrInvitePending        = errors.New("a pending invitation for this email already exists")
	ErrInviteNotFound       = errors.New("invitation not found")
	ErrInviteNotPending     = errors.New("invitation is not pending")
	ErrInviteExpired        = errors.New("invitation has expired")
	ErrInviteAlreadyUsed    = errors.New("invitation has already been accepted")
)

// InviteService owns the invitation lifecycle. Accepting an invitation is
// the only path that creates a user, apart from the one-time bootstrap.
type InviteService struct {
	Store    store.Store
	Mailer   mail.Mailer
	Composer *mail.Composer
	Metrics  metrics.Recorder

	Now func() time.Time
}

func (s *InviteService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *InviteService) recorder() metrics.Recorder {
	if s.Metrics != nil {
		return s.Metrics
	}
	return metrics.Nop{}
}

// Create mints a new PENDING invitation and emails the raw token to the
// invitee. The email is best-effort: a delivery failure is logged and the
// invitation stands (it can be resent).
func (s *InviteService) Create(
	ctx context.Context,
	email string,
	role domain.Role,
	inviterID string,
) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	if email == "" || inviterID == "" {
		return domain.Invitation{}, ErrInvalidInviteRequest
	}
	if !role.Valid() {
		log.Warn("attempted to create invite with invalid role",
			slog.String("role", string(role)),
		)
		return domain.Invitation{}, ErrInvalidRole
	}

	// 2. Generate the invitation token and fingerprint it.
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	now := s.now()
	inv := domain.Invitation{
		ID:        idx.New().String(),
		Email:     email,
		Role:      role,
		InviterID: inviterID,
		Status:    domain.InvitePending,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: now.Add(InviteTTL).UTC(),
	}

	// 3. Check the address is free and persist, in one transaction so a
	// concurrent Accept cannot slip a user in between the check and the
	// insert. The partial unique index turns a concurrent duplicate into
	// a conflict here, so two racing creators cannot both win.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().GetUserByEmail(ctx, email)
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.Invitations().CreateInvitation(ctx, inv)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			log.Warn("attempted to invite an existing user", slog.String("email", email))
			return domain.Invitation{}, ErrEmailTaken
		case errors.Is(err, store.ErrAlreadyExists):
			log.Warn("attempted to create duplicate pending invite",
				slog.String("email", email),
			)
			return domain.Invitation{}, ErrInvitePending
		}
		log.Error("failed to create invite",
			slog.String("invite_id", inv.ID),
			slog.Any("error", err),
		)
		return domain.Invitation{}, err
	}

	s.recorder().RecordInvitationEvent("created")

	log.Info("invitation created",
		slog.String("invite_id", inv.ID),
		slog.String("email", email),
		slog.String("role", string(role)),
		slog.String("inviter_id", inviterID),
		slog.Time("expires_at", inv.ExpiresAt),
	)

	// 4. Email the raw token. Post-commit, never rolled back.
	s.sendInviteMail(ctx, inv, raw)

	// Re-read to surface the timestamps the driver wrote.
	stored, err := s.Store.Invitations().GetInvitationByID(ctx, inv.ID)
	if err != nil {
		return inv, nil
	}
	return stored, nil
}

// Resend rotates the token of a PENDING invitation and re-emails it. The
// previous token stops working immediately; an invitation holds exactly one
// live token.
func (s *InviteService) Resend(ctx context.Context, id string) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	inv, err := s.Store.Invitations().GetInvitationByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInviteNotFound
		}
		log.Error("failed to fetch invite", slog.Any("error", err))
		return domain.Invitation{}, err
	}
	if inv.Status != domain.InvitePending {
		return domain.Invitation{}, ErrInviteNotPending
	}

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	inv.TokenHash = cryptox.FingerprintToken(raw)
	inv.ExpiresAt = s.now().Add(InviteTTL).UTC()

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Invitations().RotateInvitationToken(ctx, inv.ID, inv.TokenHash, inv.ExpiresAt)
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyUsed):
			return domain.Invitation{}, ErrInviteNotPending
		case errors.Is(err, store.ErrNotFound):
			return domain.Invitation{}, ErrInviteNotFound
		}
		log.Error("failed to rotate invite token",
			slog.String("invite_id", inv.ID),
			slog.Any("error", err),
		)
		return domain.Invitation{}, err
	}

	s.recorder().RecordInvitationEvent("resent")

	log.Info("invitation resent",
		slog.String("invite_id", inv.ID),
		slog.String("email", inv.Email),
		slog.Time("expires_at", inv.ExpiresAt),
	)

	s.sendInviteMail(ctx, inv, raw)

	return inv, nil
}

// Revoke withdraws a PENDING invitation. REVOKED is terminal; the
// invitation's token can never be redeemed afterwards.
func (s *InviteService) Revoke(ctx context.Context, id string) error {
	log := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Invitations().TransitionStatus(ctx, id, domain.InviteRevoked)
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyUsed):
			return ErrInviteNotPending
		case errors.Is(err, store.ErrNotFound):
			return ErrInviteNotFound
		}
		log.Error("failed to revoke invite",
			slog.String("invite_id", id),
			slog.Any("error", err),
		)
		return err
	}

	s.recorder().RecordInvitationEvent("revoked")
	log.Info("invitation revoked", slog.String("invite_id", id))
	return nil
}

// Accept redeems an invitation token and creates the invited user, all in
// one transaction. Exactly one of two concurrent accepts can win; the loser
// gets ErrInviteAlreadyUsed. An expired PENDING invitation is flipped to
// EXPIRED as a side effect even though the accept itself fails.
func (s *InviteService) Accept(
	ctx context.Context,
	rawToken string,
	password string,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if rawToken == "" || password == "" {
		return domain.User{}, ErrInvalidInviteRequest
	}

	// Hash up front; argon2 is too slow to hold a transaction open for.
	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	fingerprint := cryptox.FingerprintToken(rawToken)
	now := s.now()

	var (
		newUser       domain.User
		lazilyExpired bool
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := tx.Invitations().GetInvitationByTokenHash(ctx, fingerprint)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInviteNotFound
			}
			return err
		}

		switch inv.Status {
		case domain.InviteAccepted:
			return ErrInviteAlreadyUsed
		case domain.InviteExpired:
			return ErrInviteExpired
		case domain.InviteRevoked:
			// A revoked token is indistinguishable from an unknown one.
			return ErrInviteNotFound
		}

		// Lazy expiry: flip the record and commit, but fail the accept.
		if now.After(inv.ExpiresAt) {
			if err := tx.Invitations().TransitionStatus(ctx, inv.ID, domain.InviteExpired); err != nil &&
				!errors.Is(err, store.ErrAlreadyUsed) {
				return err
			}
			lazilyExpired = true
			return nil
		}

		// Guarded flip PENDING -> ACCEPTED; the concurrency gate.
		if err := tx.Invitations().TransitionStatus(ctx, inv.ID, domain.InviteAccepted); err != nil {
			if errors.Is(err, store.ErrAlreadyUsed) {
				return ErrInviteAlreadyUsed
			}
			return err
		}

		newUser = domain.User{
			ID:           idx.New().String(),
			Email:        inv.Email,
			PasswordHash: passwordHash,
			Role:         inv.Role,
			IsActive:     true,
		}
		if err := tx.Users().CreateUser(ctx, newUser); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}

		return tx.Invitations().MarkAccepted(ctx, inv.ID, newUser.ID, now.UTC())
	})
	if err != nil {
		if errors.Is(err, ErrInviteNotFound) || errors.Is(err, ErrInviteExpired) ||
			errors.Is(err, ErrInviteAlreadyUsed) || errors.Is(err, ErrEmailTaken) {
			return domain.User{}, err
		}
		log.Error("failed to accept invite", slog.Any("error", err))
		return domain.User{}, err
	}
	if lazilyExpired {
		s.recorder().RecordInvitationEvent("expired")
		return domain.User{}, ErrInviteExpired
	}

	s.recorder().RecordInvitationEvent("accepted")

	log.Info("user created via invitation",
		slog.String("user_id", newUser.ID),
		slog.String("email", newUser.Email),
		slog.String("role", string(newUser.Role)),
	)

	return newUser, nil
}

// Delete removes an invitation record permanently, regardless of status.
func (s *InviteService) Delete(ctx context.Context, id string) error {
	log := slogx.FromContext(ctx)

	if err := s.Store.Invitations().DeleteInvitation(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		log.Error("failed to delete invite",
			slog.String("invite_id", id),
			slog.Any("error", err),
		)
		return err
	}

	s.recorder().RecordInvitationEvent("deleted")
	log.Info("invitation deleted", slog.String("invite_id", id))
	return nil
}

// List returns all invitations, newest first.
func (s *InviteService) List(ctx context.Context) ([]domain.Invitation, error) {
	return s.Store.Invitations().ListInvitations(ctx)
}

func (s *InviteService) sendInviteMail(ctx context.Context, inv domain.Invitation, raw string) {
	log := slogx.FromContext(ctx)

	if s.Mailer == nil || s.Composer == nil {
		return
	}

	msg := s.Composer.Invitation(inv.Email, string(inv.Role), raw)
	if err := s.Mailer.Send(ctx, msg); err != nil {
		s.recorder().RecordEmail(false)
		log.Error("failed to send invitation email",
			slog.String("invite_id", inv.ID),
			slog.String("email", inv.Email),
			slog.Any("error", err),
		)
		return
	}
	s.recorder().RecordEmail(true)
}
