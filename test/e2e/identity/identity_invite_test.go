package identity_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keyhaven/backoffice/pkg/identitysdk"
)

func TestInvitationLifecycle(t *testing.T) {
	baseURL, cleanup := setupIdentityContainer(t)
	defer cleanup()

	client := identitysdk.NewSDKClient(baseURL)
	bootstrapService(t, client)
	admin := loginAdmin(t, client)

	const inviteeEmail = "manager@keyhaven.test"

	var inviteID string

	t.Run("create", func(t *testing.T) {
		inv, err := admin.CreateInvitation(t.Context(), inviteeEmail, "MANAGER")
		require.NoError(t, err)
		require.Equal(t, "PENDING", inv.Status)
		require.Equal(t, "MANAGER", inv.Role)
		require.False(t, inv.ExpiresAt.IsZero())

		inviteID = inv.ID
	})

	t.Run("duplicate pending is refused", func(t *testing.T) {
		_, err := admin.CreateInvitation(t.Context(), inviteeEmail, "MANAGER")
		requireAPIError(t, err, http.StatusConflict, identitysdk.ErrorCodeConflict)
	})

	t.Run("existing user cannot be invited", func(t *testing.T) {
		_, err := admin.CreateInvitation(t.Context(), adminEmail, "MANAGER")
		requireAPIError(t, err, http.StatusConflict, identitysdk.ErrorCodeConflict)
	})

	t.Run("invalid role is refused", func(t *testing.T) {
		_, err := admin.CreateInvitation(t.Context(), "other@keyhaven.test", "OWNER")
		requireAPIError(t, err, http.StatusBadRequest, identitysdk.ErrorCodeInvalidRequest)
	})

	t.Run("list shows the invitation", func(t *testing.T) {
		invs, err := admin.ListInvitations(t.Context())
		require.NoError(t, err)
		require.Len(t, invs, 1)
		require.Equal(t, inviteID, invs[0].ID)
	})

	t.Run("resend keeps it pending", func(t *testing.T) {
		inv, err := admin.ResendInvitation(t.Context(), inviteID)
		require.NoError(t, err)
		require.Equal(t, "PENDING", inv.Status)
	})

	t.Run("revoke", func(t *testing.T) {
		err := admin.RevokeInvitation(t.Context(), inviteID)
		require.NoError(t, err)

		invs, err := admin.ListInvitations(t.Context())
		require.NoError(t, err)
		require.Len(t, invs, 1)
		require.Equal(t, "REVOKED", invs[0].Status)
	})

	t.Run("resend after revoke is refused", func(t *testing.T) {
		_, err := admin.ResendInvitation(t.Context(), inviteID)
		requireAPIError(t, err, http.StatusConflict, identitysdk.ErrorCodeConflict)
	})

	t.Run("revoked invite frees the email for a new one", func(t *testing.T) {
		inv, err := admin.CreateInvitation(t.Context(), inviteeEmail, "MANAGER")
		require.NoError(t, err)
		require.NotEqual(t, inviteID, inv.ID)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		err := admin.DeleteInvitation(t.Context(), inviteID)
		require.NoError(t, err)

		err = admin.DeleteInvitation(t.Context(), inviteID)
		requireAPIError(t, err, http.StatusNotFound, identitysdk.ErrorCodeNotFound)
	})

	t.Run("accept with unknown token", func(t *testing.T) {
		_, err := client.AcceptInvitation(t.Context(), "definitely-not-a-token", "Password1!abc")
		requireAPIError(t, err, http.StatusBadRequest, identitysdk.ErrorCodeInvalidToken)
	})
}
