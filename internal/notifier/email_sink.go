package notifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/noah-isme/datecheck-bot/internal/models"
	"github.com/noah-isme/datecheck-bot/pkg/config"
)

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailSink sends a plain-text copy of each notification through Resend.
type EmailSink struct {
	emails emailSender
	from   string
	to     []string
}

// NewEmailSink builds a Resend-backed sink from configuration.
func NewEmailSink(cfg config.EmailConfig) *EmailSink {
	return newEmailSink(resend.NewClient(cfg.APIKey).Emails, cfg.From, cfg.To)
}

func newEmailSink(emails emailSender, from string, to []string) *EmailSink {
	return &EmailSink{emails: emails, from: from, to: to}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(ctx context.Context, n models.AdminNotification) error {
	subject := fmt.Sprintf("Проверка даты %s: %s", n.Record.Date, n.Record.Availability.StatusLabel())
	_, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      s.to,
		Subject: subject,
		Text:    plainText(n.Text),
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

var (
	markdownLink   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	markdownMarker = strings.NewReplacer("\\_", "_", "\\*", "*", "\\`", "`", "\\[", "[", "*", "", "`", "")
)

// plainText strips legacy Markdown: links become "text (url)" and emphasis markers are dropped.
func plainText(markdown string) string {
	withLinks := markdownLink.ReplaceAllString(markdown, "$1 ($2)")
	return markdownMarker.Replace(withLinks)
}
