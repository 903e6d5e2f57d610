package utils

import (
	"gopkg.in/gomail.v2"

	"github.com/jas-4484/eduhub/internal/errors"
)

// SMTPConfig locates the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether enough is configured to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port > 0
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from   string
	sender Sender
}

// NewMailer builds a Mailer that dials the configured server per send.
func NewMailer(cfg SMTPConfig) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Mailer{
		from:   from,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewMailerWithSender is NewMailer with the transport supplied.
func NewMailerWithSender(from string, sender Sender) *Mailer {
	return &Mailer{from: from, sender: sender}
}

// SendEmail sends an HTML message to every recipient.
func (m *Mailer) SendEmail(to []string, subject, body string) error {
	if len(to) == 0 {
		return errors.Wrap(errors.ErrInvalidArgument, "no recipients")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return errors.Wrapf(err, "send %q", subject)
	}
	return nil
}
