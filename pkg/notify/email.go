package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendgridSender delivers emails through the SendGrid API.
type SendgridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

// NewSendgridSender builds a sender; an empty key yields a disabled sender.
func NewSendgridSender(apiKey, fromName, fromEmail string) *SendgridSender {
	if apiKey == "" {
		return &SendgridSender{}
	}
	return &SendgridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromEmail),
	}
}

// Enabled reports whether the provider is configured.
func (s *SendgridSender) Enabled() bool {
	return s != nil && s.client != nil
}

// SendEmail sends a single plain-text email.
func (s *SendgridSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	if !s.Enabled() {
		return fmt.Errorf("email provider not configured")
	}
	if msg.ToEmail == "" {
		return fmt.Errorf("recipient email missing")
	}
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	mail := sgmail.NewSingleEmailPlainText(s.from, msg.Subject, to, msg.Body)
	resp, err := s.client.SendWithContext(ctx, mail)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}
