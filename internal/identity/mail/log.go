package mail

import (
	"context"

	"github.com/keyhaven/backoffice/pkg/slogx"
)

// LogMailer writes outbound mail to the log instead of sending it. Used in
// development and tests where no SMTP server is around.
type LogMailer struct{}

func NewLogMailer() *LogMailer { return &LogMailer{} }

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	slogx.FromContext(ctx).Info("outbound email (log mailer)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}
