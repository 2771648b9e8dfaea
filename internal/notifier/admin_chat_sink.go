package notifier

import (
	"context"

	"github.com/noah-isme/datecheck-bot/internal/models"
)

type adminChatSender interface {
	SendAdmin(ctx context.Context, text string) error
}

// AdminChatSink posts notifications to the Telegram admin chat.
type AdminChatSink struct {
	sender adminChatSender
}

func NewAdminChatSink(sender adminChatSender) *AdminChatSink {
	return &AdminChatSink{sender: sender}
}

func (s *AdminChatSink) Name() string { return "telegram" }

func (s *AdminChatSink) Deliver(ctx context.Context, n models.AdminNotification) error {
	return s.sender.SendAdmin(ctx, n.Text)
}
