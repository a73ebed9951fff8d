package notify

import (
	"context"

	"github.com/anfelyns/Password-Guardian-sub000/internal/logging"
)

// LogNotifier writes messages to the structured log instead of an
// external channel. Used by the local console and in development, where
// the one-time code must be visible without a mailbox.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.logger.Info(ctx, "notification", "to", to, "subject", subject, "body", body)
	return nil
}
