package identity_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keyhaven/backoffice/pkg/identitysdk"
)

func TestForgotPassword(t *testing.T) {
	baseURL, cleanup := setupIdentityContainer(t)
	defer cleanup()

	client := identitysdk.NewSDKClient(baseURL)
	bootstrapService(t, client)

	t.Run("known email is accepted", func(t *testing.T) {
		err := client.ForgotPassword(t.Context(), adminEmail)
		require.NoError(t, err)
	})

	t.Run("unknown email is indistinguishable", func(t *testing.T) {
		err := client.ForgotPassword(t.Context(), "ghost@keyhaven.test")
		require.NoError(t, err)
	})

	t.Run("reset with unknown token", func(t *testing.T) {
		err := client.ResetPassword(t.Context(), "not-a-real-token", "NewPassword1!")
		requireAPIError(t, err, http.StatusBadRequest, identitysdk.ErrorCodeInvalidToken)
	})

	t.Run("verify with unknown token", func(t *testing.T) {
		err := client.VerifyEmail(t.Context(), "not-a-real-token")
		requireAPIError(t, err, http.StatusBadRequest, identitysdk.ErrorCodeInvalidToken)
	})
}

func TestHealth(t *testing.T) {
	baseURL, cleanup := setupIdentityContainer(t)
	defer cleanup()

	client := identitysdk.NewSDKClient(baseURL)

	require.NoError(t, client.Livez(t.Context()))
	require.NoError(t, client.Readyz(t.Context()))
}
