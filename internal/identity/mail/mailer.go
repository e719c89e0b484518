// Package mail delivers the transactional emails the identity flows
// produce: invitations, password resets and address verification. Delivery
// is always best-effort; callers log failures and move on, they never roll
// back state because an email bounced.
package mail

import "context"

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer sends a message. Implementations must honour ctx cancellation so
// a slow SMTP server cannot stall a request handler.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
