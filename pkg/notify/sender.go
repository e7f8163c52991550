package notify

import "context"

// EmailMessage is a plain outbound email.
type EmailMessage struct {
	ToName  string
	ToEmail string
	Subject string
	Body    string
}

// SMSMessage is a plain outbound text message.
type SMSMessage struct {
	ToNumber string
	Body     string
}

// EmailSender delivers email messages through an external provider.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// SMSSender delivers text messages through an external provider.
type SMSSender interface {
	SendSMS(ctx context.Context, msg SMSMessage) error
}
