package mail

import "fmt"

// Composer renders the transactional messages. Links are built off the
// front-end base URL so the raw tokens only ever travel inside email
// bodies, never through an API response.
type Composer struct {
	baseURL string
}

func NewComposer(baseURL string) *Composer {
	return &Composer{baseURL: baseURL}
}

func (c *Composer) Invitation(to, role, token string) Message {
	return Message{
		To:      to,
		Subject: "You have been invited to KeyHaven Back Office",
		Text: fmt.Sprintf(
			"Hello,\n\n"+
				"You have been invited to join the KeyHaven back office as %s.\n"+
				"Set up your account here:\n\n"+
				"  %s/invitations/accept?token=%s\n\n"+
				"The link expires in 7 days. If you were not expecting this\n"+
				"invitation you can ignore this email.\n",
			role, c.baseURL, token),
	}
}

func (c *Composer) PasswordReset(to, token string) Message {
	return Message{
		To:      to,
		Subject: "Reset your KeyHaven Back Office password",
		Text: fmt.Sprintf(
			"Hello,\n\n"+
				"A password reset was requested for this address. Choose a new\n"+
				"password here:\n\n"+
				"  %s/reset-password?token=%s\n\n"+
				"The link expires in 24 hours and can be used once. If you did\n"+
				"not request this, no action is needed.\n",
			c.baseURL, token),
	}
}

func (c *Composer) EmailVerification(to, token string) Message {
	return Message{
		To:      to,
		Subject: "Verify your email address",
		Text: fmt.Sprintf(
			"Hello,\n\n"+
				"Confirm that this address belongs to your KeyHaven back office\n"+
				"account:\n\n"+
				"  %s/verify-email?token=%s\n\n"+
				"The link expires in 48 hours.\n",
			c.baseURL, token),
	}
}
