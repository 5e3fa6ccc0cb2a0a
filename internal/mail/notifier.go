// Package mail delivers account verification links.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Notifier sends a verification link to a new account holder. Delivery
// failures are reported to the caller, who decides whether they are fatal.
type Notifier interface {
	SendVerificationLink(ctx context.Context, recipient, displayName, link string) error
}

type smtpNotifier struct {
	addr     string
	host     string
	from     string
	username string
	password string
}

// NewSMTPNotifier returns a Notifier that delivers over plain SMTP. If
// username is empty the connection is unauthenticated (local relays,
// mailhog-style test servers).
func NewSMTPNotifier(host string, port int, from, username, password string) Notifier {
	return &smtpNotifier{
		addr:     fmt.Sprintf("%s:%d", host, port),
		host:     host,
		from:     from,
		username: username,
		password: password,
	}
}

func (n *smtpNotifier) SendVerificationLink(ctx context.Context, recipient, displayName, link string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: Verify your account\r\n")
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", displayName)
	fmt.Fprintf(&b, "Please verify your account by following this link:\r\n%s\r\n\r\n", link)
	fmt.Fprintf(&b, "The link expires shortly, so do not wait too long.\r\n")

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}
	if err := smtp.SendMail(n.addr, auth, n.from, []string{recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("sending verification mail to %s: %w", recipient, err)
	}
	return nil
}
