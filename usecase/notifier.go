package usecase

import "context"

// Email is a templated message handed to the notification sender.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier abstracts fire-and-forget email delivery. Implementations
// queue the message durably; delivery failures are logged downstream and
// never surface to the calling operation.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}
