package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndRedeem(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TokenService{}

	user := seedUser(t, st, "agent@example.com", "correct-horse", domain.RoleManager, true)

	raw, err := svc.Issue(ctx, st, domain.PurposeReset, user.ID, ResetTokenTTL)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	token, err := svc.Redeem(ctx, st, raw, domain.PurposeReset)
	require.NoError(t, err)
	require.Equal(t, user.ID, token.UserID)
	require.NotNil(t, token.UsedAt)
}

func TestTokenRedeemErrors(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TokenService{}

	user := seedUser(t, st, "agent@example.com", "correct-horse", domain.RoleManager, true)

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Redeem(ctx, st, "no-such-token", domain.PurposeReset)
		require.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("wrong purpose", func(t *testing.T) {
		raw, err := svc.Issue(ctx, st, domain.PurposeVerify, user.ID, VerifyTokenTTL)
		require.NoError(t, err)

		_, err = svc.Redeem(ctx, st, raw, domain.PurposeReset)
		require.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("already used", func(t *testing.T) {
		raw, err := svc.Issue(ctx, st, domain.PurposeReset, user.ID, ResetTokenTTL)
		require.NoError(t, err)

		_, err = svc.Redeem(ctx, st, raw, domain.PurposeReset)
		require.NoError(t, err)
		_, err = svc.Redeem(ctx, st, raw, domain.PurposeReset)
		require.ErrorIs(t, err, ErrTokenAlreadyUsed)
	})

	t.Run("expired", func(t *testing.T) {
		raw, err := svc.Issue(ctx, st, domain.PurposeReset, user.ID, ResetTokenTTL)
		require.NoError(t, err)

		expired := &TokenService{Now: fixedClock(time.Now().Add(ResetTokenTTL + time.Minute))}
		_, err = expired.Redeem(ctx, st, raw, domain.PurposeReset)
		require.ErrorIs(t, err, ErrTokenExpired)
	})
}

// The guarded update makes redemption atomic: many concurrent redeemers,
// exactly one winner.
func TestTokenRedeemConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TokenService{}

	user := seedUser(t, st, "agent@example.com", "correct-horse", domain.RoleManager, true)

	raw, err := svc.Issue(ctx, st, domain.PurposeReset, user.ID, ResetTokenTTL)
	require.NoError(t, err)

	const redeemers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
	)
	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(ctx, st, raw, domain.PurposeReset)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrTokenAlreadyUsed):
				losses++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	require.Equal(t, redeemers-1, losses)
}

func TestHousekeepingSweep(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	invites := newInviteService(st, mailer)
	tokens := &TokenService{}

	admin := seedUser(t, st, "admin@example.com", "correct-horse", domain.RoleAdmin, true)

	inv, err := invites.Create(ctx, "stale@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)

	_, err = tokens.Issue(ctx, st, domain.PurposeReset, admin.ID, ResetTokenTTL)
	require.NoError(t, err)

	future := time.Now().Add(InviteTTL + time.Hour)

	expired, err := st.Invitations().ExpireStale(ctx, future)
	require.NoError(t, err)
	require.EqualValues(t, 1, expired)

	stored, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InviteExpired, stored.Status)

	deleted, err := st.RecoveryTokens().DeleteExpired(ctx, future)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	// Sweeping twice is a no-op.
	expired, err = st.Invitations().ExpireStale(ctx, future)
	require.NoError(t, err)
	require.Zero(t, expired)
}

// The duplicate-pending constraint holds under concurrency, not just in
// the pre-check.
func TestConcurrentInviteCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "correct-horse", domain.RoleAdmin, true)

	const creators = 4
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, "contested@example.com", domain.RoleManager, admin.ID)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)

	invs, err := st.Invitations().ListInvitations(ctx)
	require.NoError(t, err)

	pending := 0
	for _, inv := range invs {
		if inv.Status == domain.InvitePending {
			pending++
		}
	}
	require.Equal(t, 1, pending)
}
