package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultTimezone = "America/Los_Angeles"

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFile     string     `env:"LOG_FILE"`
	SPADir      string     `env:"SPA_DIR"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	Timezone    string     `env:"SIPOCALYPSE_TIMEZONE"`
	TZFallback  string     `env:"TIMEZONE"` // used when SIPOCALYPSE_TIMEZONE is unset
	CORSOrigins []string   `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	AdminEmails         string `env:"ADMIN_EMAILS"`
	AdminPassword       string `env:"ADMIN_PASSWORD"`
	AdminPasswordBcrypt string `env:"ADMIN_PASSWORD_BCRYPT"`
	AdminSessionSecret  string `env:"ADMIN_SESSION_SECRET" envDefault:"dev-only-change-me"`

	StoreBackend        string `env:"STORE_BACKEND" envDefault:"sheets"`
	SheetsSpreadsheetID string `env:"GOOGLE_SHEETS_SPREADSHEET_ID"`
	SheetsClientEmail   string `env:"GOOGLE_SHEETS_CLIENT_EMAIL"`
	SheetsPrivateKey    string `env:"GOOGLE_SHEETS_PRIVATE_KEY"`
	DBPath              string `env:"DB_PATH" envDefault:"data/sipocalypse.db"`
	RedisURL            string `env:"REDIS_URL"`

	AIProvider       string `env:"AI_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIModel      string `env:"OPENAI_MODEL" envDefault:"gpt-4.1-mini"`
	OpenAIImageModel string `env:"OPENAI_IMAGE_MODEL" envDefault:"gpt-image-1.5"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiModel      string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	ResendAPIKey    string `env:"RESEND_API_KEY"`
	ResendFromEmail string `env:"RESEND_FROM_EMAIL"`
	SiteURL         string `env:"SITE_URL" envDefault:"https://sipocalypse.fun"`

	LeadWebhookURL    string `env:"GSHEET_WEBHOOK_URL"`
	LeadWebhookSecret string `env:"GSHEET_WEBHOOK_SECRET"`
	LeadStrict        bool   `env:"GSHEET_STRICT"`
	SupabaseURL       string `env:"SUPABASE_URL"`
	SupabaseKey       string `env:"SUPABASE_KEY"`
	SupabaseTable     string `env:"SUPABASE_LEADS_TABLE" envDefault:"leads"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.Timezone = cmp.Or(cfg.Timezone, cfg.TZFallback, defaultTimezone)
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Production reports whether cookies must be marked Secure.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SheetsConfigured reports whether all Google Sheets settings are present.
func (c *Config) SheetsConfigured() bool {
	return c.SheetsSpreadsheetID != "" && c.SheetsClientEmail != "" && c.SheetsPrivateKey != ""
}

// MissingEnvVars lists the settings required by the admin workflow that are unset.
func (c *Config) MissingEnvVars() []string {
	required := []struct {
		name  string
		value string
	}{
		{"GOOGLE_SHEETS_SPREADSHEET_ID", c.SheetsSpreadsheetID},
		{"GOOGLE_SHEETS_CLIENT_EMAIL", c.SheetsClientEmail},
		{"GOOGLE_SHEETS_PRIVATE_KEY", c.SheetsPrivateKey},
		{"ADMIN_EMAILS", c.AdminEmails},
		{"ADMIN_SESSION_SECRET", c.AdminSessionSecret},
		{"OPENAI_API_KEY", c.OpenAIAPIKey},
	}
	if c.AdminPassword == "" && c.AdminPasswordBcrypt == "" {
		required = append(required, struct {
			name  string
			value string
		}{"ADMIN_PASSWORD", ""})
	}

	missing := []string{}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	return missing
}
