package messaging

import "context"

// EmailMessage is one outbound email.
type EmailMessage struct {
	To       string
	From     string
	Subject  string
	TextBody string
	HTMLBody string
}

// SMSMessage is one outbound text message.
type SMSMessage struct {
	To   string
	Body string
}

// EmailSender is the outbound email port.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMSSender is the outbound SMS port.
type SMSSender interface {
	Send(ctx context.Context, msg SMSMessage) error
}
