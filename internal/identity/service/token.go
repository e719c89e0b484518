package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/internal/identity/store"
	"github.com/keyhaven/backoffice/pkg/cryptox"
	"github.com/keyhaven/backoffice/pkg/idx"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

// Recovery token lifetimes.
const (
	ResetTokenTTL  = 24 * time.Hour
	VerifyTokenTTL = 48 * time.Hour
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenAlreadyUsed = errors.New("token already used")
	ErrTokenExpired     = errors.New("token expired")
)

// TokenService issues and redeems single-use recovery tokens. It operates
// on whatever store handle the caller passes, so redemption can run inside
// the caller's transaction and stay atomic with the effect it authorizes.
type TokenService struct {
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue mints a fresh random token for the user, persists its fingerprint
// with the purpose and expiry, and returns the raw value. The raw value is
// never stored; it exists to be embedded in exactly one email.
//
// Issuing does not invalidate earlier outstanding tokens of the same
// purpose. Each remains independently redeemable until used or expired.
func (s *TokenService) Issue(
	ctx context.Context,
	st store.Store,
	purpose domain.TokenPurpose,
	userID string,
	ttl time.Duration,
) (string, error) {
	log := slogx.FromContext(ctx)

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate recovery token", slog.Any("error", err))
		return "", err
	}

	token := domain.RecoveryToken{
		ID:        idx.New().String(),
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: s.now().Add(ttl).UTC(),
	}

	if err := st.RecoveryTokens().CreateRecoveryToken(ctx, token); err != nil {
		log.Error("failed to store recovery token",
			slog.String("token_id", token.ID),
			slog.String("purpose", string(purpose)),
			slog.Any("error", err),
		)
		return "", err
	}

	log.Debug("recovery token issued",
		slog.String("token_id", token.ID),
		slog.String("user_id", userID),
		slog.String("purpose", string(purpose)),
		slog.Time("expires_at", token.ExpiresAt),
	)

	return raw, nil
}

// Redeem consumes a raw token of the given purpose. The used_at marker is
// set with a guarded update, so when two calls race over the same token
// exactly one succeeds and the other sees ErrTokenAlreadyUsed.
//
// Callers wanting the redemption atomic with its effect (password write,
// verification flag) must pass a transaction-scoped store.
func (s *TokenService) Redeem(
	ctx context.Context,
	st store.Store,
	raw string,
	purpose domain.TokenPurpose,
) (domain.RecoveryToken, error) {
	log := slogx.FromContext(ctx)

	fingerprint := cryptox.FingerprintToken(raw)
	token, err := st.RecoveryTokens().GetRecoveryTokenByHash(ctx, fingerprint, purpose)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RecoveryToken{}, ErrTokenNotFound
		}
		log.Error("failed to fetch recovery token", slog.Any("error", err))
		return domain.RecoveryToken{}, err
	}

	if token.UsedAt != nil {
		return domain.RecoveryToken{}, ErrTokenAlreadyUsed
	}

	now := s.now()
	if now.After(token.ExpiresAt) {
		return domain.RecoveryToken{}, ErrTokenExpired
	}

	if err := st.RecoveryTokens().MarkRecoveryTokenUsed(ctx, token.ID, now); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyUsed):
			return domain.RecoveryToken{}, ErrTokenAlreadyUsed
		case errors.Is(err, store.ErrNotFound):
			return domain.RecoveryToken{}, ErrTokenNotFound
		}
		log.Error("failed to mark recovery token used",
			slog.String("token_id", token.ID),
			slog.Any("error", err),
		)
		return domain.RecoveryToken{}, err
	}

	used := now.UTC()
	token.UsedAt = &used

	log.Debug("recovery token redeemed",
		slog.String("token_id", token.ID),
		slog.String("user_id", token.UserID),
		slog.String("purpose", string(purpose)),
	)

	return token, nil
}
