package emailsvc

import (
	"context"
	"net/mail"

	"github.com/trezcool/convocatorias/core"
)

const notificationTemplate = "notification"

type notificationData struct {
	RecipientName string
	Title         string
	Message       string
	ActionURL     string
}

type emailNotifier struct {
	svc core.EmailService
}

var _ core.Notifier = (*emailNotifier)(nil)

// NewNotifier delivers notifications as templated emails sent through `svc`.
func NewNotifier(svc core.EmailService) core.Notifier {
	return &emailNotifier{svc: svc}
}

func (n emailNotifier) Notify(_ context.Context, notifications ...core.Notification) {
	messages := make([]*core.EmailMessage, 0, len(notifications))
	for _, notif := range notifications {
		name := notif.Recipient.Name
		if name == "" {
			name = notif.Recipient.Address
		}
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{notif.Recipient},
			Subject:      notif.Title,
			Attachments:  notif.Attachments,
			TemplateName: notificationTemplate,
			TemplateData: notificationData{
				RecipientName: name,
				Title:         notif.Title,
				Message:       notif.Message,
				ActionURL:     notif.ActionURL,
			},
		})
	}
	n.svc.SendMessages(messages...)
}
