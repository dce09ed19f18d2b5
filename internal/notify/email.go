package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
)

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailOptions configures SMTP delivery.
type EmailOptions struct {
	// Addr is host:port of the SMTP server.
	Addr string
	// From is the sender address.
	From string
	// To lists the recipients.
	To []string
	// Username enables PLAIN authentication when set.
	Username string
	// Password is used with Username.
	Password string
}

// Email sends one plain-text message per event.
type Email struct {
	// opts holds the server and addresses.
	opts EmailOptions
	// auth is nil when no username is configured.
	auth smtp.Auth
	// sendMail performs the SMTP exchange.
	sendMail sendMailFunc
}

// NewEmail creates an SMTP channel.
func NewEmail(opts EmailOptions) *Email {
	var auth smtp.Auth

	if opts.Username != "" {
		host, _, err := net.SplitHostPort(opts.Addr)
		if err != nil {
			host = opts.Addr
		}

		auth = smtp.PlainAuth("", opts.Username, opts.Password, host)
	}

	return &Email{
		opts:     opts,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

// Name implements Channel.
func (e *Email) Name() string {
	return "email"
}

// Send implements Channel. smtp.SendMail has no context, so cancellation is
// only honored before the exchange starts.
func (e *Email) Send(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := e.sendMail(e.opts.Addr, e.auth, e.opts.From, e.opts.To, e.message(event)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

func (e *Email) message(event domain.Event) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", e.opts.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.opts.To, ", "))
	fmt.Fprintf(&b, "Subject: Thermal alarm %d on zone %d\r\n", event.AlarmID, event.ZoneID)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(Summary(event))
	fmt.Fprintf(&b, "\r\n\r\nEvent: %s\r\nTime: %s\r\n", event.ID, event.Timestamp.UTC().Format(time.RFC3339))

	return []byte(b.String())
}
