package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestFromViper_Defaults(t *testing.T) {
	setEnv(t, map[string]string{
		"TELEGRAM_TOKEN": "123:abc",
		"SPREADSHEET_ID": "sheet-id",
	})

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, StoreSheets, cfg.StoreDriver)
	assert.Equal(t, CacheMemory, cfg.CacheDriver)
	assert.Equal(t, "Графік", cfg.ScheduleSheet)
	assert.Equal(t, 7, cfg.BookingWindowDays)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.True(t, cfg.CancelReleasesSlot)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Kyiv", loc.String())
}

func TestFromViper_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"TELEGRAM_TOKEN":         "123:abc",
		"STORE_DRIVER":           " Postgres ",
		"DB_DSN":                 "postgres://localhost/consult",
		"CACHE_DRIVER":           "REDIS",
		"REDIS_ADDR":             "redis:6379",
		"ADMIN_CHAT_ID":          "-1001234",
		"BOOKING_WINDOW_DAYS":    "14",
		"CACHE_TTL":              "90s",
		"CANCEL_RELEASES_SLOT":   "false",
		"LAWYER_CONTACT_DETAILS": "@lawyer",
	})

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, CacheRedis, cfg.CacheDriver)
	assert.Equal(t, int64(-1001234), cfg.AdminChatID)
	assert.Equal(t, 14, cfg.BookingWindowDays)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.CancelReleasesSlot)
	assert.Equal(t, "@lawyer", cfg.ConsultantContact)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"no token", map[string]string{"TELEGRAM_TOKEN": ""}, ErrMissingToken},
		{"sheets without id", map[string]string{"TELEGRAM_TOKEN": "t", "STORE_DRIVER": "sheets", "SPREADSHEET_ID": ""}, ErrMissingSetting},
		{"postgres without dsn", map[string]string{"TELEGRAM_TOKEN": "t", "STORE_DRIVER": "postgres", "DB_DSN": ""}, ErrMissingSetting},
		{"unknown store", map[string]string{"TELEGRAM_TOKEN": "t", "STORE_DRIVER": "excel"}, ErrUnknownDriver},
		{"unknown cache", map[string]string{"TELEGRAM_TOKEN": "t", "STORE_DRIVER": "memory", "CACHE_DRIVER": "memcached"}, ErrUnknownDriver},
		{"zero window", map[string]string{"TELEGRAM_TOKEN": "t", "STORE_DRIVER": "memory", "BOOKING_WINDOW_DAYS": "0"}, ErrInvalidValue},
		{"zero ttl", map[string]string{"TELEGRAM_TOKEN": "t", "STORE_DRIVER": "memory", "CACHE_TTL": "0s"}, ErrInvalidValue},
		{"bad timezone", map[string]string{"TELEGRAM_TOKEN": "t", "STORE_DRIVER": "memory", "TIMEZONE": "Mars/Olympus"}, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)

			_, err := FromViper(viper.New())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
