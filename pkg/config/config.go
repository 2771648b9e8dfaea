package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	appErrors "github.com/noah-isme/datecheck-bot/pkg/errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Ledger backends.
const (
	LedgerSheets   = "sheets"
	LedgerWorkbook = "xlsx"
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
)

// Admin chat capability check modes.
const (
	AdminChatCheckOff    = "off"
	AdminChatCheckWarn   = "warn"
	AdminChatCheckStrict = "strict"
)

type Config struct {
	Env  string `validate:"oneof=development production"`
	Port int    `validate:"gte=0,lte=65535"`

	Log      LogConfig
	Telegram TelegramConfig
	Ledger   LedgerConfig
	Notify   NotifyConfig
	Contacts ContactsConfig
	HTTP     HTTPConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// TelegramConfig holds bot credentials and the admin chat notifications go to.
type TelegramConfig struct {
	Token          string `validate:"required"`
	AdminChatID    int64  `validate:"required"`
	AdminChatCheck string `validate:"oneof=off warn strict"`
	PollTimeout    int    `validate:"gte=0"`
}

// LedgerConfig selects where booked dates are read from.
type LedgerConfig struct {
	Backend    string        `validate:"oneof=sheets xlsx postgres redis"`
	Timeout    time.Duration `validate:"gt=0"`
	HeaderRows int           `validate:"gte=0"`

	SpreadsheetID   string `validate:"required_if=Backend sheets"`
	SheetName       string
	CredentialsJSON string
	CredentialsFile string

	WorkbookPath string `validate:"required_if=Backend xlsx"`

	Database DatabaseConfig
	Redis    RedisConfig
	RedisKey string `validate:"required_if=Backend redis"`
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NotifyConfig tunes the background admin notification queue.
type NotifyConfig struct {
	Workers    int `validate:"gte=1"`
	BufferSize int `validate:"gte=1"`
	MaxRetries int `validate:"gte=0"`
	RetryDelay time.Duration
	Timezone   string

	Email EmailConfig
}

// EmailConfig enables an e-mail copy of each admin notification.
type EmailConfig struct {
	Enabled bool
	APIKey  string   `validate:"required_if=Enabled true"`
	From    string   `validate:"required_if=Enabled true"`
	To      []string `validate:"required_if=Enabled true,dive,email"`
}

// ContactsConfig holds the links shown in user replies.
type ContactsConfig struct {
	StudioName     string
	FormURL        string `validate:"omitempty,url"`
	VKURL          string `validate:"omitempty,url"`
	TelegramHandle string
}

// HTTPConfig controls the liveness server.
type HTTPConfig struct {
	LivenessEnabled bool
	CheckEnabled    bool
	AllowedOrigins  []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Telegram = TelegramConfig{
		Token:          strings.TrimSpace(v.GetString("BOT_TOKEN")),
		AdminChatID:    v.GetInt64("ADMIN_CHAT_ID"),
		AdminChatCheck: strings.ToLower(v.GetString("ADMIN_CHAT_CHECK")),
		PollTimeout:    v.GetInt("TELEGRAM_POLL_TIMEOUT"),
	}

	cfg.Ledger = LedgerConfig{
		Backend:         strings.ToLower(v.GetString("LEDGER_BACKEND")),
		Timeout:         parseDuration(v.GetString("LEDGER_TIMEOUT"), 5*time.Second),
		HeaderRows:      v.GetInt("LEDGER_HEADER_ROWS"),
		SpreadsheetID:   v.GetString("SPREADSHEET_ID"),
		SheetName:       v.GetString("SHEET_NAME"),
		CredentialsJSON: v.GetString("SERVICE_ACCOUNT"),
		CredentialsFile: v.GetString("SERVICE_ACCOUNT_FILE"),
		WorkbookPath:    v.GetString("LEDGER_WORKBOOK_PATH"),
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSL_MODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RedisKey: v.GetString("LEDGER_REDIS_KEY"),
	}

	cfg.Notify = NotifyConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		BufferSize: v.GetInt("NOTIFY_BUFFER_SIZE"),
		MaxRetries: v.GetInt("NOTIFY_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
		Timezone:   v.GetString("NOTIFY_TIMEZONE"),
		Email: EmailConfig{
			Enabled: v.GetBool("NOTIFY_EMAIL_ENABLED"),
			APIKey:  v.GetString("RESEND_API_KEY"),
			From:    v.GetString("NOTIFY_EMAIL_FROM"),
			To:      splitAndTrim(v.GetString("NOTIFY_EMAIL_TO")),
		},
	}

	cfg.Contacts = ContactsConfig{
		StudioName:     v.GetString("STUDIO_NAME"),
		FormURL:        v.GetString("CONTACT_FORM_URL"),
		VKURL:          v.GetString("CONTACT_VK_URL"),
		TelegramHandle: v.GetString("CONTACT_TELEGRAM"),
	}

	cfg.HTTP = HTTPConfig{
		LivenessEnabled: v.GetBool("LIVENESS_ENABLED"),
		CheckEnabled:    v.GetBool("HTTP_CHECK_ENABLED"),
		AllowedOrigins:  splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	return cfg, nil
}

// Validate reports missing or malformed settings as a startup configuration
// error. Field names are reported, values never are.
func (c *Config) Validate() error {
	if c == nil {
		return appErrors.Clone(appErrors.ErrStartupConfiguration, "configuration not loaded")
	}

	var problems []string
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return appErrors.WrapAs(err, appErrors.ErrStartupConfiguration, "")
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
	}

	if c.Ledger.Backend == LedgerSheets &&
		strings.TrimSpace(c.Ledger.CredentialsJSON) == "" &&
		strings.TrimSpace(c.Ledger.CredentialsFile) == "" {
		problems = append(problems, "Config.Ledger.CredentialsJSON|CredentialsFile (required_without_all)")
	}

	if _, err := c.Notify.Location(); err != nil {
		problems = append(problems, "Config.Notify.Timezone (timezone)")
	}

	if len(problems) > 0 {
		return appErrors.Clone(appErrors.ErrStartupConfiguration, "invalid startup configuration: "+strings.Join(problems, ", "))
	}
	return nil
}

// Location resolves the timezone used to stamp admin notifications. Empty means the host zone.
func (c NotifyConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 10000)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("ADMIN_CHAT_ID", 0)
	v.SetDefault("ADMIN_CHAT_CHECK", AdminChatCheckWarn)
	v.SetDefault("TELEGRAM_POLL_TIMEOUT", 60)

	v.SetDefault("LEDGER_BACKEND", LedgerSheets)
	v.SetDefault("LEDGER_TIMEOUT", "5s")
	v.SetDefault("LEDGER_HEADER_ROWS", 1)
	v.SetDefault("SPREADSHEET_ID", "")
	v.SetDefault("SHEET_NAME", "")
	v.SetDefault("SERVICE_ACCOUNT", "")
	v.SetDefault("SERVICE_ACCOUNT_FILE", "")
	v.SetDefault("LEDGER_WORKBOOK_PATH", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bookings")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LEDGER_REDIS_KEY", "booked_dates")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_BUFFER_SIZE", 64)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")
	v.SetDefault("NOTIFY_TIMEZONE", "")
	v.SetDefault("NOTIFY_EMAIL_ENABLED", false)
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("NOTIFY_EMAIL_FROM", "")
	v.SetDefault("NOTIFY_EMAIL_TO", "")

	v.SetDefault("STUDIO_NAME", "SVETLANA TELKOVA")
	v.SetDefault("CONTACT_FORM_URL", "https://vk.com/app5619682_-220942261#713509")
	v.SetDefault("CONTACT_VK_URL", "https://vk.me/vostorg_dzr")
	v.SetDefault("CONTACT_TELEGRAM", "@TelkovaSvetlana")

	v.SetDefault("LIVENESS_ENABLED", true)
	v.SetDefault("HTTP_CHECK_ENABLED", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
