// Package smtp delivers composed emails over SMTP.
package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"net/smtp"
	"strings"

	"portal-mailer/internal/mailer"
	"portal-mailer/internal/platform/config"
)

// Sender sends email through a single SMTP relay.
type Sender struct {
	cfg    config.SMTP
	logger *slog.Logger

	// sendMail is swappable for tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Option configures the Sender.
type Option func(*Sender)

// WithLogger sets the sender's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sender) {
		s.logger = logger
	}
}

// New creates an SMTP sender from transport configuration.
func New(cfg config.SMTP, opts ...Option) *Sender {
	s := &Sender{
		cfg:      cfg,
		logger:   slog.Default(),
		sendMail: smtp.SendMail,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send transmits the email. The envelope sender and recipient are parsed out
// of the display-name forms the composer builds.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	from, err := mail.ParseAddress(email.From)
	if err != nil {
		return fmt.Errorf("parse from address %q: %w", email.From, err)
	}
	to, err := mail.ParseAddress(email.To)
	if err != nil {
		return fmt.Errorf("parse to address %q: %w", email.To, err)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", email.From)
	fmt.Fprintf(&msg, "To: %s\r\n", email.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", email.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(email.Text)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.sendMail(addr, auth, from.Address, []string{to.Address}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to.Address, err)
	}

	s.logger.InfoContext(ctx, "smtp delivery complete", "to", to.Address)
	return nil
}
