package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/noah-isme/datecheck-bot/internal/models"
	"github.com/noah-isme/datecheck-bot/pkg/config"
)

// AdminTimestampLayout stamps admin notifications.
const AdminTimestampLayout = "02.01.2006 15:04"

// ReplyService renders every chat message the bot sends. Output uses the
// legacy Telegram Markdown dialect.
type ReplyService struct {
	contacts config.ContactsConfig
	location *time.Location
}

// NewReplyService builds the renderer. A nil location means the host zone.
func NewReplyService(contacts config.ContactsConfig, location *time.Location) *ReplyService {
	if location == nil {
		location = time.Local
	}
	return &ReplyService{contacts: contacts, location: location}
}

// Welcome answers /start.
func (s *ReplyService) Welcome() string {
	var b strings.Builder
	b.WriteString("🎀 Добро пожаловать в студию декора")
	if s.contacts.StudioName != "" {
		fmt.Fprintf(&b, " *%s*", s.contacts.StudioName)
	}
	b.WriteString("!\n\n")
	b.WriteString("Мы создаём атмосферу праздника с любовью и вниманием к деталям 💐\n")
	b.WriteString("Оформляем президиумы, фотозоны, декор для частных клиентов и бизнеса.\n\n")
	b.WriteString("📅 Этот бот поможет узнать, свободна ли нужная дата для вашего события.\n\n")
	b.WriteString("Введите дату в формате ДД.ММ.ГГГГ (например 25.12.2025)")
	return b.String()
}

// InvalidFormat asks the user to re-enter the date.
func (s *ReplyService) InvalidFormat() string {
	return "Введите дату в формате ДД.ММ.ГГГГ (например 05.11.2025)"
}

// LedgerUnavailable is the generic apology used when the ledger cannot be read.
func (s *ReplyService) LedgerUnavailable() string {
	return "⚠️ Ошибка при подключении к таблице. Попробуйте, пожалуйста, чуть позже."
}

// Result renders the booked or free template for date.
func (s *ReplyService) Result(date models.Date, availability models.Availability) string {
	if availability.Booked() {
		return s.booked(date)
	}
	return s.free(date)
}

func (s *ReplyService) booked(date models.Date) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ К сожалению, дата %s уже занята.\n", date)
	b.WriteString("Вы можете проверить другую дату")
	if s.contacts.VKURL != "" {
		b.WriteString(" или написать нам:\n")
		b.WriteString(markdownLink(displayURL(s.contacts.VKURL), s.contacts.VKURL))
	} else {
		b.WriteString(".")
	}
	return b.String()
}

func (s *ReplyService) free(date models.Date) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Дата %s свободна!\n", date)
	if s.contacts.FormURL != "" {
		b.WriteString("Заполните, пожалуйста, анкету:\n")
		b.WriteString(markdownLink("Открыть анкету", s.contacts.FormURL))
		b.WriteString("\n\n")
	}
	if s.contacts.VKURL != "" || s.contacts.TelegramHandle != "" {
		b.WriteString("Либо напишите в личные сообщения:\n")
		if s.contacts.VKURL != "" {
			fmt.Fprintf(&b, "ВК: %s\n", markdownLink(s.contacts.VKURL, s.contacts.VKURL))
		}
		if s.contacts.TelegramHandle != "" {
			fmt.Fprintf(&b, "ТГ: %s\n", s.contacts.TelegramHandle)
		}
		b.WriteString("\n")
	}
	b.WriteString("_P.S.: Если мы с вами не связываемся, возможно у вас стоит запрет на входящие сообщения._\n")
	b.WriteString("Пожалуйста, напишите нам первыми 💬")
	return b.String()
}

// AdminNotification renders the summary posted to the admin chat.
func (s *ReplyService) AdminNotification(record models.QueryRecord) string {
	status := "✅ " + record.Availability.StatusLabel()
	if record.Availability.Booked() {
		status = "❌ " + record.Availability.StatusLabel()
	}

	return "📩 *Новая проверка даты!*\n\n" +
		fmt.Sprintf("👤 Пользователь: %s\n", requesterContact(record.Requester)) +
		fmt.Sprintf("📅 Дата: %s\n", record.Date) +
		fmt.Sprintf("🕒 Время: %s\n", record.CheckedAt.In(s.location).Format(AdminTimestampLayout)) +
		fmt.Sprintf("📊 Статус: %s", status)
}

// requesterContact links to t.me for users with a handle. Otherwise it shows
// the escaped display name and the numeric id, which admins can still open.
func requesterContact(r models.Requester) string {
	if r.Username != "" {
		return markdownLink(r.Handle(), "https://t.me/"+r.Username)
	}
	name := tgbotapi.EscapeText(tgbotapi.ModeMarkdown, r.FullName())
	return fmt.Sprintf("%s (ID: `%s`)", name, strconv.FormatInt(r.ID, 10))
}

func markdownLink(text, url string) string {
	return "[" + text + "](" + url + ")"
}

func displayURL(raw string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	return strings.TrimSuffix(trimmed, "/")
}
