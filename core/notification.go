package core

import (
	"context"
	"net/mail"
)

// Notification is a message addressed to one user of the platform.
// ActionURL is relative to the frontend base URL.
type Notification struct {
	Recipient   mail.Address
	Title       string
	Message     string
	ActionURL   string
	Attachments []Attachment
}

// Notifier delivers notifications. Delivery is fire-and-forget: failures are logged by the implementation.
type Notifier interface {
	Notify(ctx context.Context, notifications ...Notification)
}
