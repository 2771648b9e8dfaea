package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datecheck-bot/internal/models"
)

type adminSenderStub struct {
	texts []string
	err   error
}

func (s *adminSenderStub) SendAdmin(ctx context.Context, text string) error {
	s.texts = append(s.texts, text)
	return s.err
}

type emailSenderStub struct {
	requests []*resend.SendEmailRequest
	err      error
}

func (s *emailSenderStub) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	s.requests = append(s.requests, params)
	if s.err != nil {
		return nil, s.err
	}
	return &resend.SendEmailResponse{Id: "msg-1"}, nil
}

func testNotification(t *testing.T) models.AdminNotification {
	t.Helper()
	date := models.NewDate(time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC))
	return models.AdminNotification{
		ID:   "n-1",
		Text: "🔔 *Новая проверка даты*\n👤 [@anna\\_k](https://t.me/anna_k)\n📊 Статус: ✅ FREE",
		Record: models.QueryRecord{
			Requester:    models.Requester{ID: 42, Username: "anna_k"},
			Date:         date,
			Availability: models.AvailabilityFree,
		},
	}
}

func TestAdminChatSinkForwardsText(t *testing.T) {
	sender := &adminSenderStub{}
	sink := NewAdminChatSink(sender)

	n := testNotification(t)
	require.NoError(t, sink.Deliver(context.Background(), n))
	assert.Equal(t, "telegram", sink.Name())
	assert.Equal(t, []string{n.Text}, sender.texts)

	sender.err = errors.New("chat not found")
	assert.EqualError(t, sink.Deliver(context.Background(), n), "chat not found")
}

func TestEmailSinkSendsPlainText(t *testing.T) {
	emails := &emailSenderStub{}
	sink := newEmailSink(emails, "bot@example.com", []string{"admin@example.com"})

	require.NoError(t, sink.Deliver(context.Background(), testNotification(t)))
	require.Len(t, emails.requests, 1)

	req := emails.requests[0]
	assert.Equal(t, "email", sink.Name())
	assert.Equal(t, "bot@example.com", req.From)
	assert.Equal(t, []string{"admin@example.com"}, req.To)
	assert.Equal(t, "Проверка даты 25.12.2025: FREE", req.Subject)
	assert.Contains(t, req.Text, "Новая проверка даты")
	assert.Contains(t, req.Text, "@anna_k (https://t.me/anna_k)")
	assert.NotContains(t, req.Text, "*")
}

func TestEmailSinkWrapsErrors(t *testing.T) {
	emails := &emailSenderStub{err: errors.New("rate limited")}
	sink := newEmailSink(emails, "bot@example.com", []string{"admin@example.com"})

	err := sink.Deliver(context.Background(), testNotification(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Ivan_ Petrov* (ID: 777)", plainText("Ivan\\_ Petrov\\* (ID: `777`)"))
	assert.Equal(t, "form (https://x.test/a)", plainText("[form](https://x.test/a)"))
}
