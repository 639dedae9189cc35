package notify

import (
	"context"

	"github.com/Skotchmaster/catalogue/internal/logging"
)

// LogSender writes the message to the request logger instead of mailing it.
// It is used when no mail host is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, subject, body string, recipients []string) error {
	logging.FromContext(ctx).Info("notification",
		"subject", subject,
		"recipients", len(recipients),
		"body", body,
	)
	return nil
}
