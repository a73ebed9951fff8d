// Package notify defines the delivery channel for one-time codes and
// provides SMTP and log-backed implementations. Delivery failure is
// non-fatal to an already committed state transition: the issued code
// stays valid and the caller can offer a resend.
package notify

import "context"

// Notifier delivers a message to an address.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
