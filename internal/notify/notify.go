// Package notify delivers password reset codes over email or SMS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"account-service/internal/logging"
)

// ErrDelivery wraps any failure of the underlying mail or SMS transport.
var ErrDelivery = errors.New("failed to deliver OTP")

const (
	// ResetSubject is the subject line of the reset email.
	ResetSubject = "Password Reset OTP"
	// DefaultFrom is used when no sender address is configured.
	DefaultFrom = "no-reply@example.com"
)

// ResetBody returns the message text sent on both channels.
func ResetBody(code string) string {
	return fmt.Sprintf("Your OTP is %s. It will expire in 10 minutes.", code)
}

// Channel is the delivery medium for a code.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// ChannelFor picks email when identifier contains "@" and SMS otherwise.
func ChannelFor(identifier string) Channel {
	if strings.Contains(identifier, "@") {
		return ChannelEmail
	}
	return ChannelSMS
}

// MailSender sends a plain text message to the given recipients.
type MailSender interface {
	Send(ctx context.Context, subject, body, from string, to []string) error
}

// SMSSender sends body to a phone number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// Deliverer is what the reset flow depends on. Dispatcher and the dev sink implement it.
type Deliverer interface {
	Deliver(ctx context.Context, channel Channel, address, code string) error
}

// Dispatcher routes a code to the mail or SMS sender. Delivery is synchronous
// and every transport error is returned wrapped in ErrDelivery.
type Dispatcher struct {
	mail MailSender
	sms  SMSSender
	from string
	log  *zap.Logger
}

// NewDispatcher returns a Dispatcher. An empty from selects DefaultFrom.
func NewDispatcher(mail MailSender, sms SMSSender, from string, log *zap.Logger) *Dispatcher {
	if from == "" {
		from = DefaultFrom
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{mail: mail, sms: sms, from: from, log: log}
}

// Deliver sends code to address over channel.
func (d *Dispatcher) Deliver(ctx context.Context, channel Channel, address, code string) error {
	var err error
	switch channel {
	case ChannelEmail:
		if d.mail == nil {
			return fmt.Errorf("%w: mail sender not configured", ErrDelivery)
		}
		err = d.mail.Send(ctx, ResetSubject, ResetBody(code), d.from, []string{address})
	case ChannelSMS:
		if d.sms == nil {
			return fmt.Errorf("%w: sms sender not configured", ErrDelivery)
		}
		err = d.sms.Send(ctx, address, ResetBody(code))
	default:
		return fmt.Errorf("%w: unknown channel %q", ErrDelivery, channel)
	}
	if err != nil {
		d.log.Warn("otp delivery failed",
			zap.String("channel", string(channel)),
			zap.String("to", logging.MaskAddress(address)),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	d.log.Info("otp delivered",
		zap.String("channel", string(channel)),
		zap.String("to", logging.MaskAddress(address)))
	return nil
}
