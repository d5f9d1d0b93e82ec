package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingToken   = errors.New("TELEGRAM_TOKEN is required but not set")
	ErrUnknownDriver  = errors.New("unknown driver")
	ErrMissingSetting = errors.New("required setting is not set")
	ErrInvalidValue   = errors.New("invalid value")
)

// Драйверы хранилища и кеша
const (
	StoreSheets   = "sheets"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	Environment   string `mapstructure:"ENV"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	AdminChatID   int64  `mapstructure:"ADMIN_CHAT_ID"`

	StoreDriver           string `mapstructure:"STORE_DRIVER"`
	SpreadsheetID         string `mapstructure:"SPREADSHEET_ID"`
	GoogleCredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	SheetsRequestsPerMin  int    `mapstructure:"SHEETS_REQUESTS_PER_MINUTE"`
	ScheduleSheet         string `mapstructure:"SCHEDULE_SHEET"`
	RequestsSheet         string `mapstructure:"REQUESTS_SHEET"`
	ClientsSheet          string `mapstructure:"CLIENTS_SHEET"`
	DBDSN                 string `mapstructure:"DB_DSN"`

	CacheDriver   string `mapstructure:"CACHE_DRIVER"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	Timezone            string        `mapstructure:"TIMEZONE"`
	BookingWindowDays   int           `mapstructure:"BOOKING_WINDOW_DAYS"`
	CacheTTL            time.Duration `mapstructure:"CACHE_TTL"`
	SessionIdleTimeout  time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	CacheWarmupInterval time.Duration `mapstructure:"CACHE_WARMUP_INTERVAL"`
	CancelReleasesSlot  bool          `mapstructure:"CANCEL_RELEASES_SLOT"`

	MetricsAddr string `mapstructure:"METRICS_ADDR"`

	ConsultantContact string `mapstructure:"LAWYER_CONTACT_DETAILS"`
	PaymentDetails    string `mapstructure:"PAYMENT_DETAILS_TEXT"`
}

var defaults = map[string]any{
	"ENV":                        "development",
	"LOG_LEVEL":                  "info",
	"ADMIN_CHAT_ID":              0,
	"STORE_DRIVER":               StoreSheets,
	"SPREADSHEET_ID":             "",
	"GOOGLE_CREDENTIALS_FILE":    "credentials.json",
	"SHEETS_REQUESTS_PER_MINUTE": 60,
	"SCHEDULE_SHEET":             "Графік",
	"REQUESTS_SHEET":             "Заявки",
	"CLIENTS_SHEET":              "Клієнти",
	"DB_DSN":                     "",
	"CACHE_DRIVER":               CacheMemory,
	"REDIS_ADDR":                 "localhost:6379",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"TIMEZONE":                   "Europe/Kyiv",
	"BOOKING_WINDOW_DAYS":        7,
	"CACHE_TTL":                  "5m",
	"SESSION_IDLE_TIMEOUT":       "30m",
	"CACHE_WARMUP_INTERVAL":      "5m",
	"CANCEL_RELEASES_SLOT":       true,
	"METRICS_ADDR":               ":9090",
	"LAWYER_CONTACT_DETAILS":     "",
	"PAYMENT_DETAILS_TEXT":       "",
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromViper(viper.New())
}

// FromViper собирает конфигурацию из окружения через переданный экземпляр viper
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if err := v.BindEnv("TELEGRAM_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind TELEGRAM_TOKEN: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.CacheDriver = strings.ToLower(strings.TrimSpace(cfg.CacheDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded: store=%s cache=%s tz=%s\n", cfg.StoreDriver, cfg.CacheDriver, cfg.Timezone)

	return cfg, nil
}

// Validate проверяет обязательные поля и допустимые значения
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}

	switch c.StoreDriver {
	case StoreSheets:
		if c.SpreadsheetID == "" {
			return fmt.Errorf("%w: SPREADSHEET_ID", ErrMissingSetting)
		}
	case StorePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("%w: DB_DSN", ErrMissingSetting)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%w: STORE_DRIVER=%q", ErrUnknownDriver, c.StoreDriver)
	}

	switch c.CacheDriver {
	case CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR", ErrMissingSetting)
		}
	default:
		return fmt.Errorf("%w: CACHE_DRIVER=%q", ErrUnknownDriver, c.CacheDriver)
	}

	if c.BookingWindowDays <= 0 {
		return fmt.Errorf("%w: BOOKING_WINDOW_DAYS must be positive", ErrInvalidValue)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("%w: CACHE_TTL must be positive", ErrInvalidValue)
	}
	if c.SessionIdleTimeout < 0 || c.CacheWarmupInterval < 0 {
		return fmt.Errorf("%w: intervals must not be negative", ErrInvalidValue)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: TIMEZONE=%q: %v", ErrInvalidValue, c.Timezone, err)
	}

	return nil
}

// Location возвращает часовой пояс расписания
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
