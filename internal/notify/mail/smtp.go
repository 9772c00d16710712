// Package mail sends email through an SMTP relay using gomail.
package mail

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"
)

// SMTPSender sends plain text mail via SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
	// transport overrides dialing when set (tests).
	transport gomail.Sender
}

// NewSMTPSender returns a sender for the given relay. Empty username disables auth.
func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, username, password)}
}

// NewSMTPSenderWithTransport returns a sender that hands messages to t instead of dialing.
func NewSMTPSenderWithTransport(t gomail.Sender) *SMTPSender {
	return &SMTPSender{transport: t}
}

// Send delivers one message to all recipients. gomail has no context support,
// so ctx is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, subject, body, from string, to []string) error {
	if len(to) == 0 {
		return errors.New("mail: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if s.transport != nil {
		return gomail.Send(s.transport, m)
	}
	if s.dialer == nil || s.dialer.Host == "" {
		return errors.New("mail: SMTP host not configured")
	}
	return s.dialer.DialAndSend(m)
}
