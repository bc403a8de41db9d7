package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMongoDB = "mongodb"
	BackendMemory  = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Challans  ChallanConfig
	Documents DocumentConfig
	Reminders ReminderConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Backend string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// ChallanConfig holds numbering and calendar settings for challans.
type ChallanConfig struct {
	Prefix   string
	Timezone string
}

// DocumentConfig points at the spreadsheet templates used for printing.
type DocumentConfig struct {
	TemplateDir string
}

// ReminderConfig holds scheduler-related settings.
type ReminderConfig struct {
	CronSchedule string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// Reminders are only delivered when AccessToken, PhoneNumberID and ReminderTo are set.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	ReminderTo    string
}

// Enabled reports whether outbound WhatsApp delivery is configured.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != ""
}

// SheetsConfig contains configuration required to mirror challans into Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the register mirror is configured.
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getenvWithDefault("STORE_BACKEND", BackendMongoDB)),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "challans"),
		},
		Challans: ChallanConfig{
			Prefix:   getenvWithDefault("DC_PREFIX", "DSI"),
			Timezone: getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
		},
		Documents: DocumentConfig{
			TemplateDir: getenvWithDefault("DOCUMENT_TEMPLATE_DIR", "./templates"),
		},
		Reminders: ReminderConfig{
			CronSchedule: getenvWithDefault("REMINDER_CRON_SCHEDULE", "0 9 * * *"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ReminderTo:    os.Getenv("WHATSAPP_REMINDER_TO"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	default:
		return fmt.Errorf("STORE_BACKEND %q is not supported", c.Store.Backend)
	}

	if strings.TrimSpace(c.Challans.Prefix) == "" || strings.ContainsAny(c.Challans.Prefix, "/ ") {
		return errors.New("DC_PREFIX must be a non-empty token without slashes or spaces")
	}

	if _, err := time.LoadLocation(c.Challans.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Challans.Timezone, err)
	}

	if c.Reminders.CronSchedule == "" {
		return errors.New("REMINDER_CRON_SCHEDULE must be provided")
	}
	if _, err := cron.ParseStandard(c.Reminders.CronSchedule); err != nil {
		return fmt.Errorf("REMINDER_CRON_SCHEDULE %q: %w", c.Reminders.CronSchedule, err)
	}

	w := c.WhatsApp
	if w.AccessToken != "" || w.PhoneNumberID != "" || w.ReminderTo != "" {
		switch {
		case w.AccessToken == "":
			return errors.New("WHATSAPP_TOKEN must be provided")
		case w.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case w.ReminderTo == "":
			return errors.New("WHATSAPP_REMINDER_TO must be provided")
		case w.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case w.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	return nil
}

// Location resolves the configured timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Challans.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
