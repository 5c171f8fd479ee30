package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// SMTPDispatcher delivers email over SMTP with PLAIN auth. SMS delivery is
// not wired to a provider; it is logged with a masked destination so the
// flow stays observable in environments without an SMS gateway.
type SMTPDispatcher struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTPDispatcher creates a dispatcher for the given SMTP server.
func NewSMTPDispatcher(host, port, user, pass, from string) *SMTPDispatcher {
	return &SMTPDispatcher{host: host, port: port, user: user, pass: pass, from: from}
}

// SendEmail delivers a plain-text message. It fails when the SMTP server
// is unreachable or unconfigured.
func (d *SMTPDispatcher) SendEmail(_ context.Context, to, subject, body string) error {
	if d.host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	msg := strings.Join([]string{
		"From: " + d.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := d.host + ":" + d.port
	var auth smtp.Auth
	if d.user != "" {
		auth = smtp.PlainAuth("", d.user, d.pass, d.host)
	}
	if err := smtp.SendMail(addr, auth, d.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// SendSMS logs the dispatch with a masked destination. No SMS provider is
// configured in this deployment.
func (d *SMTPDispatcher) SendSMS(_ context.Context, to, body string) error {
	log.Printf("SMS dispatch to %s (%d bytes)", MaskDestination(to), len(body))
	return nil
}
