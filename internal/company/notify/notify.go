// Package notify renders the company notification templates and hands the
// resulting message to a mail transport.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Template names a notification template.
type Template string

const (
	TemplateCompanyCreated Template = "company-created"
	TemplateCompanyUpdated Template = "company-updated"
)

const (
	SubjectCompanyCreated = "New company registered!"
	SubjectCompanyUpdated = "Company updated successfully!"
)

var (
	ErrUnknownTemplate = errors.New("unknown template")
	ErrNoRecipients    = errors.New("no recipients")
)

// Payload is the data a notification template is rendered with.
type Payload struct {
	Name       string
	TradeName  string
	TaxID      string
	Address    string
	Recipients []string
}

// Message is a rendered notification ready for delivery.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
	Headers map[string]string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Mailer renders templates and delivers them through a Sender.
type Mailer struct {
	renderer    *Renderer
	sender      Sender
	from        string
	unsubscribe string
	logger      *zap.Logger
}

// NewMailer builds a Mailer. unsubscribe, when set, is sent as the
// List-Unsubscribe header.
func NewMailer(renderer *Renderer, sender Sender, from, unsubscribe string, logger *zap.Logger) *Mailer {
	return &Mailer{
		renderer:    renderer,
		sender:      sender,
		from:        from,
		unsubscribe: unsubscribe,
		logger:      logger.Named("mailer"),
	}
}

// Notify renders tmpl with payload and sends it to payload.Recipients.
func (m *Mailer) Notify(ctx context.Context, payload Payload, tmpl Template, subject string) error {
	if len(payload.Recipients) == 0 {
		return ErrNoRecipients
	}

	html, text, err := m.renderer.Render(tmpl, payload)
	if err != nil {
		return err
	}

	msg := &Message{
		From:    m.from,
		To:      payload.Recipients,
		Subject: subject,
		Text:    text,
		HTML:    html,
	}
	if m.unsubscribe != "" {
		msg.Headers = map[string]string{"List-Unsubscribe": "<" + m.unsubscribe + ">"}
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", tmpl, err)
	}

	m.logger.Debug("notification sent",
		zap.String("template", string(tmpl)),
		zap.Int("recipients", len(msg.To)),
	)
	return nil
}

// ParseRecipients splits a comma-separated address list, dropping blanks.
func ParseRecipients(list string) []string {
	var out []string
	for _, addr := range strings.Split(list, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
