package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datecheck-bot/internal/models"
	"github.com/noah-isme/datecheck-bot/internal/service"
	"github.com/noah-isme/datecheck-bot/pkg/config"
	appErrors "github.com/noah-isme/datecheck-bot/pkg/errors"
	"github.com/noah-isme/datecheck-bot/pkg/jobs"
)

type ledgerStub struct {
	dates []string
	err   error
	calls int
}

func (l *ledgerStub) Name() string { return "stub" }

func (l *ledgerStub) BookedDates(ctx context.Context) ([]string, error) {
	l.calls++
	return l.dates, l.err
}

type sentReply struct {
	chatID  int64
	replyTo int
	text    string
}

type senderStub struct {
	mu      sync.Mutex
	replies []sentReply
	err     error
}

func (s *senderStub) Reply(ctx context.Context, chatID int64, replyTo int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, sentReply{chatID: chatID, replyTo: replyTo, text: text})
	return s.err
}

func (s *senderStub) sent() []sentReply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentReply(nil), s.replies...)
}

type notifierStub struct {
	records []models.QueryRecord
}

func (n *notifierStub) Notify(record models.QueryRecord) {
	n.records = append(n.records, record)
}

type adminSinkStub struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (s *adminSinkStub) Name() string { return "telegram" }

func (s *adminSinkStub) Deliver(ctx context.Context, n models.AdminNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, n.Text)
	return s.err
}

func (s *adminSinkStub) attempts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func testReplies() *service.ReplyService {
	return service.NewReplyService(config.ContactsConfig{
		StudioName:     "SVETLANA TELKOVA",
		FormURL:        "https://vk.com/app5619682_-220942261#713509",
		VKURL:          "https://vk.me/vostorg_dzr",
		TelegramHandle: "@TelkovaSvetlana",
	}, time.UTC)
}

var fixedNow = time.Date(2025, 11, 3, 9, 5, 0, 0, time.UTC)

func newTestBotHandler(ledger *ledgerStub, sender *senderStub, notifier adminNotifier) *BotHandler {
	checker := service.NewAvailabilityService(ledger, time.Second, nil, nil)
	h := NewBotHandler(checker, sender, notifier, testReplies(), service.NewMetricsService(), nil)
	h.now = func() time.Time { return fixedNow }
	return h
}

func textMessage(text string) models.InboundMessage {
	return models.InboundMessage{
		ChatID:    42,
		MessageID: 7,
		Text:      text,
		From:      models.Requester{ID: 42, Username: "anna_k", FirstName: "Anna"},
	}
}

func TestFreeDateEndToEnd(t *testing.T) {
	ledger := &ledgerStub{dates: []string{"Дата", "01.01.2025", " 14.02.2026 "}}
	sender := &senderStub{}
	sink := &adminSinkStub{}
	notifications := service.NewNotificationService([]service.NotificationSink{sink}, testReplies(), nil, nil, jobs.QueueConfig{})
	notifications.Start(context.Background())

	h := newTestBotHandler(ledger, sender, notifications)
	h.Dispatch(context.Background(), textMessage("  25.12.2025 "))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	notifications.Stop(ctx)

	replies := sender.sent()
	require.Len(t, replies, 1)
	assert.Equal(t, int64(42), replies[0].chatID)
	assert.Equal(t, 7, replies[0].replyTo)
	assert.Contains(t, replies[0].text, "✅ Дата 25.12.2025 свободна!")
	assert.Contains(t, replies[0].text, "https://vk.com/app5619682_-220942261#713509")
	assert.Contains(t, replies[0].text, "@TelkovaSvetlana")

	admin := sink.attempts()
	require.Len(t, admin, 1)
	assert.Contains(t, admin[0], "[@anna_k](https://t.me/anna_k)")
	assert.Contains(t, admin[0], "25.12.2025")
	assert.Contains(t, admin[0], "FREE")
	assert.Contains(t, admin[0], "03.11.2025 09:05")
}

func TestBookedDateRepliesBooked(t *testing.T) {
	ledger := &ledgerStub{dates: []string{"Дата", " 14.02.2026 "}}
	sender := &senderStub{}
	notifier := &notifierStub{}

	newTestBotHandler(ledger, sender, notifier).HandleText(context.Background(), textMessage("14.02.2026"))

	replies := sender.sent()
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].text, "уже занята")
	require.Len(t, notifier.records, 1)
	assert.Equal(t, models.AvailabilityBooked, notifier.records[0].Availability)
	assert.Equal(t, "14.02.2026", notifier.records[0].Date.String())
	assert.Equal(t, fixedNow, notifier.records[0].CheckedAt)
}

func TestFirstCalendarDayIsCheckedNotRejected(t *testing.T) {
	ledger := &ledgerStub{}
	sender := &senderStub{}
	notifier := &notifierStub{}

	newTestBotHandler(ledger, sender, notifier).HandleText(context.Background(), textMessage("01.01.0001"))

	replies := sender.sent()
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].text, "Дата 01.01.0001 свободна")
	assert.Equal(t, 1, ledger.calls)
	require.Len(t, notifier.records, 1)
	assert.Equal(t, "01.01.0001", notifier.records[0].Date.String())
}

func TestInvalidDateDoesNotReadLedgerOrNotify(t *testing.T) {
	for _, text := range []string{"31.02.2026", "2025-12-25", "tomorrow", ""} {
		t.Run(text, func(t *testing.T) {
			ledger := &ledgerStub{}
			sender := &senderStub{}
			notifier := &notifierStub{}

			newTestBotHandler(ledger, sender, notifier).Dispatch(context.Background(), textMessage(text))

			replies := sender.sent()
			require.Len(t, replies, 1)
			assert.Contains(t, replies[0].text, "ДД.ММ.ГГГГ")
			assert.Zero(t, ledger.calls)
			assert.Empty(t, notifier.records)
		})
	}
}

func TestLedgerFailureRepliesApologyWithoutVerdict(t *testing.T) {
	ledger := &ledgerStub{err: errors.New("403 forbidden")}
	sender := &senderStub{}
	notifier := &notifierStub{}

	newTestBotHandler(ledger, sender, notifier).HandleText(context.Background(), textMessage("25.12.2025"))

	replies := sender.sent()
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].text, "Попробуйте")
	assert.NotContains(t, replies[0].text, "свободна")
	assert.NotContains(t, replies[0].text, "занята")
	assert.Empty(t, notifier.records)
}

func TestNotificationFailureDoesNotAffectReply(t *testing.T) {
	ledger := &ledgerStub{}
	sender := &senderStub{}
	sink := &adminSinkStub{err: appErrors.ErrNotificationDelivery}
	metrics := service.NewMetricsService()
	notifications := service.NewNotificationService([]service.NotificationSink{sink}, testReplies(), metrics, nil,
		jobs.QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	notifications.Start(context.Background())

	h := newTestBotHandler(ledger, sender, notifications)
	h.Dispatch(context.Background(), textMessage("25.12.2025"))

	require.Eventually(t, func() bool { return metrics.Snapshot().NotificationFailures == 1 }, time.Second, time.Millisecond)
	notifications.Stop(context.Background())

	replies := sender.sent()
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].text, "свободна")
	assert.Len(t, sink.attempts(), 2)
}

func TestStartCommandSendsWelcome(t *testing.T) {
	sender := &senderStub{}
	notifier := &notifierStub{}
	ledger := &ledgerStub{}
	h := newTestBotHandler(ledger, sender, notifier)

	msg := textMessage("/start")
	msg.Command = "start"
	h.Dispatch(context.Background(), msg)

	other := textMessage("/help")
	other.Command = "help"
	h.Dispatch(context.Background(), other)

	replies := sender.sent()
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].text, "Добро пожаловать")
	assert.Zero(t, ledger.calls)
	assert.Empty(t, notifier.records)
}

func TestReplyFailureIsNotFatal(t *testing.T) {
	sender := &senderStub{err: errors.New("bot was blocked by the user")}
	notifier := &notifierStub{}

	h := newTestBotHandler(&ledgerStub{}, sender, notifier)
	assert.NotPanics(t, func() { h.Dispatch(context.Background(), textMessage("25.12.2025")) })
	assert.Len(t, notifier.records, 1)
}

type panickingChecker struct{}

func (panickingChecker) Check(ctx context.Context, date models.Date) (models.Availability, error) {
	panic("boom")
}

func TestDispatchRecoversPanics(t *testing.T) {
	sender := &senderStub{}
	h := NewBotHandler(panickingChecker{}, sender, &notifierStub{}, testReplies(), nil, nil)

	assert.NotPanics(t, func() { h.Dispatch(context.Background(), textMessage("25.12.2025")) })
	assert.Empty(t, sender.sent())
}

func TestConcurrentDispatchKeepsRepliesIndependent(t *testing.T) {
	ledger := &ledgerStub{dates: []string{"Дата", "14.02.2026"}}
	sender := &senderStub{}
	checker := service.NewAvailabilityService(&syncLedger{inner: ledger}, time.Second, nil, nil)
	h := NewBotHandler(checker, sender, &syncNotifier{}, testReplies(), nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		msg := textMessage("25.12.2025")
		if i%2 == 0 {
			msg.Text = "14.02.2026"
		}
		msg.ChatID = int64(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Dispatch(context.Background(), msg)
		}()
	}
	wg.Wait()

	replies := sender.sent()
	require.Len(t, replies, 20)
	for _, r := range replies {
		if r.chatID%2 == 0 {
			assert.Contains(t, r.text, "14.02.2026 уже занята")
		} else {
			assert.Contains(t, r.text, "25.12.2025 свободна")
		}
	}
}

type syncLedger struct {
	mu    sync.Mutex
	inner *ledgerStub
}

func (l *syncLedger) Name() string { return l.inner.Name() }

func (l *syncLedger) BookedDates(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.BookedDates(ctx)
}

type syncNotifier struct {
	mu sync.Mutex
	n  int
}

func (s *syncNotifier) Notify(models.QueryRecord) {
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
}
