package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender delivers text messages through the Twilio API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds a sender; missing credentials yield a disabled sender.
func NewTwilioSender(accountSID, authToken, fromNumber string) *TwilioSender {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return &TwilioSender{}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: fromNumber}
}

// Enabled reports whether the provider is configured.
func (s *TwilioSender) Enabled() bool {
	return s != nil && s.client != nil
}

// SendSMS sends a single text message.
func (s *TwilioSender) SendSMS(ctx context.Context, msg SMSMessage) error {
	if !s.Enabled() {
		return fmt.Errorf("sms provider not configured")
	}
	if msg.ToNumber == "" {
		return fmt.Errorf("recipient number missing")
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(msg.Body)
	params.SetFrom(s.from)
	params.SetTo(msg.ToNumber)
	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}
