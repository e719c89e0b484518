package service

import (
	"context"
	"testing"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/stretchr/testify/require"
)

func TestBootstrapCreatesFirstAdmin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &BootstrapService{Store: st, Token: "setup-secret"}

	bootstrapped, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, bootstrapped)

	admin, err := svc.Bootstrap(ctx, "setup-secret", "root@example.com", "first-password")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.Role)
	require.True(t, admin.IsActive)

	bootstrapped, err = svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.True(t, bootstrapped)

	identity := newIdentityService(t, st, &captureMailer{})
	_, err = identity.Login(ctx, "root@example.com", "first-password")
	require.NoError(t, err)
}

func TestBootstrapRejectsWrongToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &BootstrapService{Store: st, Token: "setup-secret"}

	_, err := svc.Bootstrap(ctx, "wrong", "root@example.com", "first-password")
	require.ErrorIs(t, err, ErrBootstrapUnauthorized)
}

func TestBootstrapClosesAfterFirstUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &BootstrapService{Store: st}

	_, err := svc.Bootstrap(ctx, "", "root@example.com", "first-password")
	require.NoError(t, err)

	_, err = svc.Bootstrap(ctx, "", "other@example.com", "first-password")
	require.ErrorIs(t, err, ErrBootstrapAlready)
}
