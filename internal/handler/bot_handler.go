package handler

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/datecheck-bot/internal/models"
	"github.com/noah-isme/datecheck-bot/internal/service"
	appErrors "github.com/noah-isme/datecheck-bot/pkg/errors"
)

const sourceChat = "chat"

type availabilityChecker interface {
	Check(ctx context.Context, date models.Date) (models.Availability, error)
}

type replySender interface {
	Reply(ctx context.Context, chatID int64, replyTo int, text string) error
}

type adminNotifier interface {
	Notify(record models.QueryRecord)
}

// BotHandler turns inbound chat messages into replies and admin notifications.
// It keeps no per-request state, so Dispatch is safe to call concurrently.
type BotHandler struct {
	checker  availabilityChecker
	sender   replySender
	notifier adminNotifier
	replies  *service.ReplyService
	metrics  *service.MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewBotHandler wires the message flow.
func NewBotHandler(checker availabilityChecker, sender replySender, notifier adminNotifier, replies *service.ReplyService, metrics *service.MetricsService, logger *zap.Logger) *BotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotHandler{
		checker:  checker,
		sender:   sender,
		notifier: notifier,
		replies:  replies,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Dispatch routes one message. A panic in the flow is logged and swallowed.
func (h *BotHandler) Dispatch(ctx context.Context, msg models.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("message handler panic",
				zap.Int64("chat_id", msg.ChatID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	switch msg.Command {
	case "":
		h.metrics.RecordUpdate("text")
		h.HandleText(ctx, msg)
	case "start":
		h.metrics.RecordUpdate("start")
		h.HandleStart(ctx, msg)
	default:
		h.metrics.RecordUpdate("ignored")
	}
}

// HandleStart sends the welcome message.
func (h *BotHandler) HandleStart(ctx context.Context, msg models.InboundMessage) {
	h.reply(ctx, msg, h.replies.Welcome())
}

// HandleText validates the date, checks the ledger, replies and notifies the admins.
func (h *BotHandler) HandleText(ctx context.Context, msg models.InboundMessage) {
	date, err := service.ParseDate(msg.Text)
	if err != nil {
		h.metrics.RecordDateCheck(sourceChat, service.OutcomeInvalid)
		h.reply(ctx, msg, h.replies.InvalidFormat())
		return
	}

	availability, err := h.checker.Check(ctx, date)
	if err != nil {
		h.metrics.RecordDateCheck(sourceChat, service.OutcomeUnavailable)
		if !errors.Is(err, appErrors.ErrLedgerUnavailable) {
			h.logger.Error("unexpected availability error", zap.String("date", date.String()), zap.Error(err))
		}
		h.reply(ctx, msg, h.replies.LedgerUnavailable())
		return
	}

	outcome := service.OutcomeFree
	if availability.Booked() {
		outcome = service.OutcomeBooked
	}
	h.metrics.RecordDateCheck(sourceChat, outcome)
	h.logger.Info("date checked",
		zap.Int64("user_id", msg.From.ID),
		zap.String("date", date.String()),
		zap.String("status", availability.StatusLabel()),
	)

	h.reply(ctx, msg, h.replies.Result(date, availability))
	h.notifier.Notify(models.QueryRecord{
		Requester:    msg.From,
		Date:         date,
		Availability: availability,
		CheckedAt:    h.now(),
	})
}

func (h *BotHandler) reply(ctx context.Context, msg models.InboundMessage, text string) {
	if err := h.sender.Reply(ctx, msg.ChatID, msg.MessageID, text); err != nil {
		h.logger.Warn("reply failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}
