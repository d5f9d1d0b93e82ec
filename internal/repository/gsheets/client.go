// Package gsheets - хранилище таблиц поверх Google Sheets API.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/metrics"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const (
	defaultRequestsPerMinute = 60
	limiterBurst             = 5
	maxRetries               = 3
	retryBase                = 500 * time.Millisecond
)

type Config struct {
	SpreadsheetID     string
	CredentialsFile   string
	RequestsPerMinute int
	// ClientOptions заменяют авторизацию по файлу (endpoint, http-клиент)
	ClientOptions []option.ClientOption
}

// Client - общий клиент Sheets API, создаётся при первом обращении
type Client struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger

	mu  sync.Mutex
	srv *sheetsapi.Service
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}

	return &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), limiterBurst),
		logger:  logger,
	}
}

// Table возвращает лист таблицы по имени
func (c *Client) Table(sheet string) *Table {
	return &Table{client: c, sheet: sheet}
}

// service создаёт клиент API один раз; после ошибки следующий вызов пробует снова
func (c *Client) service(ctx context.Context) (*sheetsapi.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.srv != nil {
		return c.srv, nil
	}

	opts := c.cfg.ClientOptions
	if len(opts) == 0 {
		opts = []option.ClientOption{option.WithCredentialsFile(c.cfg.CredentialsFile)}
	}

	// Токены обновляются вне времени жизни конкретного запроса
	srv, err := sheetsapi.NewService(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	c.logger.Info("Google Sheets client initialized",
		zap.String("spreadsheet_id", c.cfg.SpreadsheetID))
	c.srv = srv
	return srv, nil
}

// do выполняет запрос с ограничением частоты и повторами.
// Неидемпотентные запросы повторяются только при 429: такой запрос сервер не применял.
func (c *Client) do(ctx context.Context, op string, idempotent bool, fn func(srv *sheetsapi.Service) error) error {
	start := time.Now()

	srv, err := c.service(ctx)
	if err != nil {
		metrics.ObserveStore("sheets", op, start, err)
		return err
	}

	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn(srv)
		if err != nil && isRetryable(err, idempotent) {
			c.logger.Warn("Sheets request failed, retrying",
				zap.String("op", op),
				zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})

	metrics.ObserveStore("sheets", op, start, err)
	return err
}

func isRetryable(err error, idempotent bool) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	return idempotent && apiErr.Code >= http.StatusInternalServerError
}
