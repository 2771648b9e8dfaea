package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/datecheck-bot/internal/models"
	"github.com/noah-isme/datecheck-bot/pkg/config"
)

// Dispatcher handles one inbound message.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg models.InboundMessage)
}

// Client wraps the Bot API: long polling, replies and posts to the admin chat.
type Client struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
	pollTimeout int
	logger      *zap.Logger
}

// New authenticates with the Bot API. An invalid token fails here.
func New(cfg config.TelegramConfig, logger *zap.Logger) (*Client, error) {
	return NewWithEndpoint(cfg, tgbotapi.APIEndpoint, &http.Client{}, logger)
}

// NewWithEndpoint targets a custom Bot API server, e.g. a local one.
func NewWithEndpoint(cfg config.TelegramConfig, endpoint string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, httpClient)
	if err != nil {
		// The library includes the request URL, and with it the token, in some errors.
		return nil, fmt.Errorf("telegram auth: %s", strings.ReplaceAll(err.Error(), cfg.Token, "***"))
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 60
	}
	logger.Info("telegram bot authorized", zap.String("username", bot.Self.UserName))
	return &Client{bot: bot, adminChatID: cfg.AdminChatID, pollTimeout: pollTimeout, logger: logger}, nil
}

// Username is the bot's own handle.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// Reply sends text to chatID as a reply to message replyTo.
func (c *Client) Reply(ctx context.Context, chatID int64, replyTo int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	msg.DisableWebPagePreview = true
	return c.send(ctx, msg)
}

// SendAdmin posts text to the configured admin chat.
func (c *Client) SendAdmin(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(c.adminChatID, text)
	msg.DisableWebPagePreview = true
	return c.send(ctx, msg)
}

// send uses Markdown and falls back to plain text when Telegram rejects the markup.
func (c *Client) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	if err == nil {
		return nil
	}
	if !strings.Contains(err.Error(), "can't parse entities") {
		return err
	}
	c.logger.Warn("markdown rejected, resending as plain text", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	msg.ParseMode = ""
	_, err = c.bot.Send(msg)
	return err
}

// VerifyAdminChat checks that the bot can see the admin chat and is allowed to post there.
func (c *Client) VerifyAdminChat(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chat, err := c.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: c.adminChatID}})
	if err != nil {
		return fmt.Errorf("admin chat %d not reachable: %w", c.adminChatID, err)
	}
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: c.adminChatID, UserID: c.bot.Self.ID},
	})
	if err != nil {
		return fmt.Errorf("admin chat %d membership: %w", c.adminChatID, err)
	}

	switch {
	case member.HasLeft() || member.WasKicked():
		return fmt.Errorf("bot is not a member of admin chat %d", c.adminChatID)
	case member.Status == "restricted" && !member.CanSendMessages:
		return fmt.Errorf("bot is muted in admin chat %d", c.adminChatID)
	case chat.IsChannel() && !member.IsCreator() && !member.CanPostMessages:
		return fmt.Errorf("bot cannot post to admin channel %d", c.adminChatID)
	}
	return nil
}

// Run long-polls for updates and dispatches each message on its own
// goroutine. It returns after ctx is cancelled and running handlers finish;
// handlers already running are not cancelled with ctx.
func (c *Client) Run(ctx context.Context, dispatcher Dispatcher) {
	handlerCtx := context.WithoutCancel(ctx)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout
	u.AllowedUpdates = []string{"message"}
	updates := c.bot.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()
	defer c.bot.StopReceivingUpdates()

	c.logger.Info("bot is running", zap.String("username", c.bot.Self.UserName))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("bot polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg, ok := inboundMessage(update, c.bot.Self.UserName)
			if !ok {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				dispatcher.Dispatch(handlerCtx, msg)
			}()
		}
	}
}

// inboundMessage keeps text messages only. Stickers, media and service
// messages carry no text, and commands addressed to another bot are dropped.
func inboundMessage(update tgbotapi.Update, botUsername string) (models.InboundMessage, bool) {
	m := update.Message
	if m == nil || m.Chat == nil || m.Text == "" {
		return models.InboundMessage{}, false
	}
	msg := models.InboundMessage{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if m.IsCommand() {
		if _, addressee, ok := strings.Cut(m.CommandWithAt(), "@"); ok && !strings.EqualFold(addressee, botUsername) {
			return models.InboundMessage{}, false
		}
		msg.Command = m.Command()
	}
	if m.From != nil {
		msg.From = models.Requester{
			ID:        m.From.ID,
			Username:  m.From.UserName,
			FirstName: m.From.FirstName,
			LastName:  m.From.LastName,
		}
	}
	return msg, true
}
