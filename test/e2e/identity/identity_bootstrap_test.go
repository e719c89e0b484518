package identity_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keyhaven/backoffice/pkg/identitysdk"
)

func TestBootstrap(t *testing.T) {
	baseURL, cleanup := setupIdentityContainer(t)
	defer cleanup()

	client := identitysdk.NewSDKClient(baseURL)

	t.Run("wrong token is rejected", func(t *testing.T) {
		_, err := client.Bootstrap(t.Context(), "wrong-token", adminEmail, adminPassword)
		requireAPIError(t, err, http.StatusUnauthorized, identitysdk.ErrorCodeUnauthorized)
	})

	t.Run("creates first admin", func(t *testing.T) {
		adminID := bootstrapService(t, client)
		require.NotEmpty(t, adminID)

		session := loginAdmin(t, client)
		require.Equal(t, adminEmail, session.User().Email)
		require.Equal(t, "ADMIN", session.User().Role)
	})

	t.Run("closed after first user exists", func(t *testing.T) {
		_, err := client.Bootstrap(t.Context(), bootstrapToken, "second@keyhaven.test", adminPassword)
		requireAPIError(t, err, http.StatusConflict, identitysdk.ErrorCodeConflict)
	})
}
