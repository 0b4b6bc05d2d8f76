// Package notify delivers out-of-band messages to account holders. The rest
// of the service depends only on the Notifier contract; SMTP is the one
// shipped implementation.
package notify

import "context"

// Notifier sends a message with a plain-text body and an HTML alternative.
type Notifier interface {
	Send(ctx context.Context, to, subject, plainText, html string) error
}
