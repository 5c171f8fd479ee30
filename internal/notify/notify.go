// Package notify dispatches outbound email and SMS. Delivery failures are
// reported to the caller, who downgrades them; they are never fatal to a
// request.
package notify

import (
	"context"
	"strings"
)

// Dispatcher sends messages to a destination.
type Dispatcher interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// MaskDestination masks an email or phone destination for logging. Emails
// keep the first two characters of the local part and the domain; anything
// else keeps the first and last two characters.
func MaskDestination(dest string) string {
	at := strings.IndexByte(dest, '@')
	if at <= 0 {
		if len(dest) <= 4 {
			return "****"
		}
		return dest[:2] + strings.Repeat("*", len(dest)-4) + dest[len(dest)-2:]
	}
	local := dest[:at]
	if len(local) > 2 {
		local = local[:2] + strings.Repeat("*", len(local)-2)
	}
	return local + dest[at:]
}
