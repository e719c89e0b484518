package mail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposerLinksCarryToken(t *testing.T) {
	c := NewComposer("https://backoffice.example.com")

	msg := c.Invitation("agent@example.com", "MANAGER", "tok123")
	require.Equal(t, "agent@example.com", msg.To)
	require.Contains(t, msg.Text, "https://backoffice.example.com/invitations/accept?token=tok123")
	require.Contains(t, msg.Text, "MANAGER")

	msg = c.PasswordReset("agent@example.com", "tok456")
	require.Contains(t, msg.Text, "/reset-password?token=tok456")

	msg = c.EmailVerification("agent@example.com", "tok789")
	require.Contains(t, msg.Text, "/verify-email?token=tok789")
}
