package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
	"github.com/sirupsen/logrus"
)

// Mailer delivers one plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
	Channel() string
}

// Mailgun sends through the Mailgun HTTP API.
type Mailgun struct {
	client *mg.MailgunImpl
	sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), sender: sender}
}

func (m *Mailgun) Send(ctx context.Context, to, subject, text string) error {
	msg := mg.NewMessage(m.sender, subject, text, to)
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

func (m *Mailgun) Channel() string { return "mailgun" }

// LogMailer writes emails to the log instead of sending them. It is used
// when no Mailgun credentials are configured.
type LogMailer struct {
	Logger *logrus.Logger
}

func (l LogMailer) Send(ctx context.Context, to, subject, text string) error {
	l.Logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("email not sent: mail delivery disabled")
	return nil
}

func (LogMailer) Channel() string { return "log" }
