package service

import (
	"context"
	"testing"
	"time"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/stretchr/testify/require"
)

func TestCreateInviteRejectsDuplicatePending(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	_, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.ErrorIs(t, err, ErrInvitePending)
}

func TestCreateInviteRejectsExistingUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInviteService(st, &captureMailer{})

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)
	seedUser(t, st, "taken@example.com", "hunter2hunter2", domain.RoleManager, true)

	_, err := svc.Create(ctx, "taken@example.com", domain.RoleManager, admin.ID)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateInviteRejectsFreshlyAcceptedEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	_, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)

	raw := tokenFromMail(t, mailer.last(t))
	_, err = svc.Accept(ctx, raw, "s3cret-password")
	require.NoError(t, err)

	// The accepted invitation no longer blocks on the pending index, so
	// the in-transaction user check is what has to refuse the address.
	_, err = svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateInviteRejectsInvalidRole(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInviteService(st, &captureMailer{})

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	_, err := svc.Create(ctx, "agent@example.com", domain.Role("OWNER"), admin.ID)
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestCreateInviteSurvivesMailFailure(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{fail: true}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	inv, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)

	stored, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitePending, stored.Status)
}

func TestAcceptInviteCreatesUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	inv, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)

	raw := tokenFromMail(t, mailer.last(t))

	user, err := svc.Accept(ctx, raw, "s3cret-password")
	require.NoError(t, err)
	require.Equal(t, "agent@example.com", user.Email)
	require.Equal(t, domain.RoleManager, user.Role)
	require.True(t, user.IsActive)

	stored, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InviteAccepted, stored.Status)
	require.NotNil(t, stored.AcceptedAt)
	require.NotNil(t, stored.AcceptedUserID)
	require.Equal(t, user.ID, *stored.AcceptedUserID)
}

func TestAcceptInviteIsSingleUse(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	_, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)
	raw := tokenFromMail(t, mailer.last(t))

	_, err = svc.Accept(ctx, raw, "s3cret-password")
	require.NoError(t, err)

	_, err = svc.Accept(ctx, raw, "another-password")
	require.ErrorIs(t, err, ErrInviteAlreadyUsed)
}

func TestAcceptExpiredInviteFlipsStatus(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	inv, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)
	raw := tokenFromMail(t, mailer.last(t))

	// Jump past the 7-day window.
	svc.Now = fixedClock(time.Now().Add(InviteTTL + time.Hour))

	_, err = svc.Accept(ctx, raw, "s3cret-password")
	require.ErrorIs(t, err, ErrInviteExpired)

	// The EXPIRED flip commits even though the accept failed.
	stored, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InviteExpired, stored.Status)

	// And the failure is terminal, not retryable.
	_, err = svc.Accept(ctx, raw, "s3cret-password")
	require.ErrorIs(t, err, ErrInviteExpired)
}

func TestAcceptUnknownTokenFails(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInviteService(st, &captureMailer{})

	_, err := svc.Accept(ctx, "no-such-token", "s3cret-password")
	require.ErrorIs(t, err, ErrInviteNotFound)
}

func TestRevokedInviteCannotBeAccepted(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	inv, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)
	raw := tokenFromMail(t, mailer.last(t))

	require.NoError(t, svc.Revoke(ctx, inv.ID))

	// Revoked tokens look like unknown tokens from the outside.
	_, err = svc.Accept(ctx, raw, "s3cret-password")
	require.ErrorIs(t, err, ErrInviteNotFound)
}

func TestRevokeRequiresPending(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	inv, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)
	raw := tokenFromMail(t, mailer.last(t))

	_, err = svc.Accept(ctx, raw, "s3cret-password")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Revoke(ctx, inv.ID), ErrInviteNotPending)
	require.ErrorIs(t, svc.Revoke(ctx, idNotInStore), ErrInviteNotFound)
}

func TestResendRotatesToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	inv, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)
	oldRaw := tokenFromMail(t, mailer.last(t))

	_, err = svc.Resend(ctx, inv.ID)
	require.NoError(t, err)
	newRaw := tokenFromMail(t, mailer.last(t))
	require.NotEqual(t, oldRaw, newRaw)

	// The replaced token is dead immediately.
	_, err = svc.Accept(ctx, oldRaw, "s3cret-password")
	require.ErrorIs(t, err, ErrInviteNotFound)

	// The fresh one works.
	_, err = svc.Accept(ctx, newRaw, "s3cret-password")
	require.NoError(t, err)
}

func TestResendRequiresPending(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	inv, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, inv.ID))

	_, err = svc.Resend(ctx, inv.ID)
	require.ErrorIs(t, err, ErrInviteNotPending)
}

func TestDeleteInviteAnyStatus(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	inv, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, inv.ID))
	require.NoError(t, svc.Delete(ctx, inv.ID))

	_, err = st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.Error(t, err)

	require.ErrorIs(t, svc.Delete(ctx, inv.ID), ErrInviteNotFound)
}

func TestTerminalInviteDoesNotBlockReinvite(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	svc := newInviteService(st, mailer)

	admin := seedUser(t, st, "admin@example.com", "hunter2hunter2", domain.RoleAdmin, true)

	inv, err := svc.Create(ctx, "agent@example.com", domain.RoleManager, admin.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, inv.ID))

	// A terminal invitation keeps its row but frees the address.
	_, err = svc.Create(ctx, "agent@example.com", domain.RoleAdmin, admin.ID)
	require.NoError(t, err)

	invs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, invs, 2)
}

const idNotInStore = "01J00000000000000000000000"
