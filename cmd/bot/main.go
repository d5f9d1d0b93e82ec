package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/Freeeeeet/consultation_bot/internal/app"
	"github.com/Freeeeeet/consultation_bot/internal/cache"
	"github.com/Freeeeeet/consultation_bot/internal/config"
	"github.com/Freeeeeet/consultation_bot/internal/controller"
	"github.com/Freeeeeet/consultation_bot/internal/controller/handlers"
	"github.com/Freeeeeet/consultation_bot/internal/controller/state"
	"github.com/Freeeeeet/consultation_bot/internal/messaging"
	"github.com/Freeeeeet/consultation_bot/internal/repository"
	"github.com/Freeeeeet/consultation_bot/internal/repository/base"
	"github.com/Freeeeeet/consultation_bot/internal/repository/gsheets"
	"github.com/Freeeeeet/consultation_bot/internal/repository/memtable"
	"github.com/Freeeeeet/consultation_bot/internal/repository/postgres"
	"github.com/Freeeeeet/consultation_bot/internal/service"
	"github.com/Freeeeeet/consultation_bot/migrations"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// tables - три листа, с которыми работает бот
type tables struct {
	schedule base.Table
	requests base.Table
	clients  base.Table
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting consultation bot",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.StoreDriver),
		zap.String("cache", cfg.CacheDriver))

	if err := run(cfg, logger); err != nil {
		logger.Error("Bot stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	logger.Info("Bot stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	store, err := openTables(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	scheduleCache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	// Репозитории
	slotRepo := repository.NewSlotRepository(store.schedule, scheduleCache, repository.ScheduleOptions{
		Location:   loc,
		WindowDays: cfg.BookingWindowDays,
	}, logger)
	clientRepo := repository.NewClientRepository(store.clients, loc, time.Now)
	requestRepo := repository.NewRequestRepository(store.requests, loc, time.Now, logger)

	// Бот создаётся раньше обработчиков: отправка сообщений нужна диалогу
	var router *controller.UpdateRouter
	b, err := bot.New(cfg.TelegramToken,
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			router.HandleUpdate(ctx, b, update)
		}),
		bot.WithWorkers(1),
	)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	messenger := messaging.NewTelegram(b, logger)

	// Сервисы
	userService := service.NewUserService(clientRepo, logger)
	bookingService := service.NewBookingService(slotRepo, requestRepo, cfg.CancelReleasesSlot, logger)
	notifications := service.NewNotificationService(messenger, cfg.AdminChatID, loc, logger)

	// Диалог
	stateManager := state.NewManager(time.Now)
	dialog := handlers.NewHandlers(userService, bookingService, notifications, stateManager, messenger, handlers.Options{
		ConsultantContact: cfg.ConsultantContact,
		PaymentDetails:    cfg.PaymentDetails,
		WindowDays:        cfg.BookingWindowDays,
	}, logger)
	dispatcher := controller.NewDispatcher(dialog, logger)
	router = controller.NewUpdateRouter(dispatcher, logger)

	botController := controller.NewBotController(b, router, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		// Меню команд не обязательно для работы
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	// Фоновые задачи
	scheduler := app.NewScheduler(
		func(ctx context.Context) error {
			_, err := bookingService.ListFreeSlots(ctx)
			return err
		},
		stateManager,
		dispatcher,
		app.SchedulerConfig{
			WarmupInterval: cfg.CacheWarmupInterval,
			IdleTimeout:    cfg.SessionIdleTimeout,
		},
		logger,
	)
	scheduler.Start(ctx)

	var ops *app.OpsServer
	if cfg.MetricsAddr != "" {
		ops = app.NewOpsServer(cfg.MetricsAddr, app.NewOpsRouter(func() map[string]int {
			return map[string]int{
				"sessions": stateManager.Len(),
				"pending":  dispatcher.Pending(),
			}
		}), logger)
		ops.Start()
	}

	// Блокируется до сигнала
	if err := botController.Start(ctx); err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	logger.Info("Shutting down")
	scheduler.Stop()
	dispatcher.Wait()
	notifications.Wait()

	if ops != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ops.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Ops server shutdown failed", zap.Error(err))
		}
	}

	return nil
}

func openTables(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*tables, error) {
	switch cfg.StoreDriver {
	case config.StoreSheets:
		client := gsheets.NewClient(gsheets.Config{
			SpreadsheetID:     cfg.SpreadsheetID,
			CredentialsFile:   cfg.GoogleCredentialsFile,
			RequestsPerMinute: cfg.SheetsRequestsPerMin,
		}, logger)
		return &tables{
			schedule: client.Table(cfg.ScheduleSheet),
			requests: client.Table(cfg.RequestsSheet),
			clients:  client.Table(cfg.ClientsSheet),
			close:    func() {},
		}, nil

	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}

		migrator, err := app.NewMigrator(pool, migrations.FS, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		err = migrator.Run(ctx)
		_ = migrator.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}

		t := &tables{
			schedule: postgres.NewTable(pool, cfg.ScheduleSheet),
			requests: postgres.NewTable(pool, cfg.RequestsSheet),
			clients:  postgres.NewTable(pool, cfg.ClientsSheet),
			close:    pool.Close,
		}
		headers := map[string][]string{
			cfg.ScheduleSheet: repository.ScheduleColumns,
			cfg.RequestsSheet: repository.RequestColumns,
			cfg.ClientsSheet:  repository.ClientColumns,
		}
		for sheet, header := range headers {
			if err := postgres.NewTable(pool, sheet).EnsureHeader(ctx, header); err != nil {
				pool.Close()
				return nil, fmt.Errorf("ensure header of %q: %w", sheet, err)
			}
		}
		return t, nil

	case config.StoreMemory:
		logger.Warn("Using in-memory tables: data is lost on restart")
		return &tables{
			schedule: memtable.New(cfg.ScheduleSheet, repository.ScheduleColumns),
			requests: memtable.New(cfg.RequestsSheet, repository.RequestColumns),
			clients:  memtable.New(cfg.ClientsSheet, repository.ClientColumns),
			close:    func() {},
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.StoreDriver)
}

func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.ScheduleCache, func(), error) {
	if cfg.CacheDriver != config.CacheRedis {
		return cache.NewMemory(cfg.CacheTTL, time.Now), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	return cache.NewRedis(rdb, cache.DefaultRedisKey, cfg.CacheTTL, logger), func() { _ = rdb.Close() }, nil
}
