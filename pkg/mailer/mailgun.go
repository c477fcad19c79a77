package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

var ErrMailgunNotConfigured = errors.New("mailgun: domain, api key and sender are required")

// Mailgun delivers auth notifications through the Mailgun HTTP API.
type Mailgun struct {
	client  *mg.MailgunImpl
	sender  string
	tag     string
	timeout time.Duration
}

type MailgunOption func(*Mailgun)

// WithAPIBase points the client at another region, e.g. the EU endpoint.
func WithAPIBase(base string) MailgunOption {
	return func(m *Mailgun) {
		if base != "" {
			m.client.SetAPIBase(base)
		}
	}
}

func WithSendTimeout(d time.Duration) MailgunOption {
	return func(m *Mailgun) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func NewMailgun(domain, apiKey, sender string, opts ...MailgunOption) (*Mailgun, error) {
	if domain == "" || apiKey == "" || sender == "" {
		return nil, ErrMailgunNotConfigured
	}
	m := &Mailgun{
		client:  mg.NewMailgun(domain, apiKey),
		sender:  sender,
		tag:     "auth",
		timeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Send implements Sender. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	if err := msg.AddTag(m.tag); err != nil {
		return fmt.Errorf("mailgun tag: %w", err)
	}
	c, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if _, _, err := m.client.Send(c, msg); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", to, err)
	}
	return nil
}
