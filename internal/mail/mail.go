// Package mail delivers account mails.
package mail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"

	"github.com/docket-app/docket/internal/config"
)

// Message is a plain text mail.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer sends a message.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// New returns an SMTP mailer when mail is enabled, otherwise a mailer that
// only logs what it would send.
func New(cfg config.Mail) (Mailer, error) {
	if !cfg.Enabled {
		return LogMailer{}, nil
	}

	return NewSMTP(cfg)
}

// SMTP sends mails through an SMTP server.
type SMTP struct {
	client *gomail.Client
	from   string
}

// NewSMTP creates an SMTP mailer.
func NewSMTP(cfg config.Mail) (*SMTP, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}

	if cfg.TLS {
		opts[1] = gomail.WithTLSPolicy(gomail.TLSMandatory)
	}

	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &SMTP{client: client, from: cfg.From}, nil
}

// Send implements Mailer.
func (s *SMTP) Send(ctx context.Context, m Message) error {
	msg := gomail.NewMsg()

	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}

	if err := msg.To(m.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}

	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, m.Text)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

// LogMailer writes mails to the log instead of sending them.
type LogMailer struct{}

// Send implements Mailer.
func (LogMailer) Send(_ context.Context, m Message) error {
	log.Info().Str("to", m.To).Str("subject", m.Subject).Str("body", m.Text).Msg("mail delivery disabled")

	return nil
}
