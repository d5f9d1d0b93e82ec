package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/controller/handlers"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdleSessions возвращает пользователей, чьи сессии не менялись с cutoff
type IdleSessions interface {
	IdleSince(cutoff time.Time) []int64
}

// EventDispatcher принимает события диалога
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev handlers.Event)
}

// SchedulerConfig - периоды фоновых задач; нулевой период отключает задачу
type SchedulerConfig struct {
	WarmupInterval time.Duration
	IdleTimeout    time.Duration
	// IdleCheckInterval по умолчанию - минута
	IdleCheckInterval time.Duration
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	warmup     func(ctx context.Context) error
	sessions   IdleSessions
	dispatcher EventDispatcher
	cfg        SchedulerConfig
	now        func() time.Time
	logger     *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик.
// warmup перечитывает расписание в кеш.
func NewScheduler(
	warmup func(ctx context.Context) error,
	sessions IdleSessions,
	dispatcher EventDispatcher,
	cfg SchedulerConfig,
	logger *zap.Logger,
) *Scheduler {
	if cfg.IdleCheckInterval <= 0 {
		cfg.IdleCheckInterval = time.Minute
	}

	return &Scheduler{
		warmup:     warmup,
		sessions:   sessions,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        time.Now,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Duration("warmup_interval", s.cfg.WarmupInterval),
		zap.Duration("idle_timeout", s.cfg.IdleTimeout))

	if s.cfg.WarmupInterval > 0 && s.warmup != nil {
		s.wg.Add(1)
		go s.runTask(ctx, "cache warm-up", s.cfg.WarmupInterval, true, s.warmCache)
	}
	if s.cfg.IdleTimeout > 0 && s.sessions != nil && s.dispatcher != nil {
		s.wg.Add(1)
		go s.runTask(ctx, "idle session expiry", s.cfg.IdleCheckInterval, false, s.ExpireIdleSessions)
	}
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) runTask(ctx context.Context, name string, every time.Duration, immediately bool, task func(context.Context)) {
	defer s.wg.Done()

	// Первый запуск сразу при старте
	if immediately {
		task(ctx)
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			task(ctx)
		case <-s.stopChan:
			s.logger.Info("Background task stopped", zap.String("task", name))
			return
		case <-ctx.Done():
			s.logger.Info("Background task cancelled", zap.String("task", name))
			return
		}
	}
}

func (s *Scheduler) warmCache(ctx context.Context) {
	if err := s.warmup(ctx); err != nil {
		s.logger.Warn("Schedule cache warm-up failed", zap.Error(err))
		return
	}
	s.logger.Debug("Schedule cache warmed up")
}

// ExpireIdleSessions ставит в очередь истечение каждой брошенной сессии.
// Решение принимает сам диалог: сессия могла измениться, пока событие ждало очереди.
func (s *Scheduler) ExpireIdleSessions(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.IdleTimeout)

	idle := s.sessions.IdleSince(cutoff)
	for _, userID := range idle {
		s.dispatcher.Dispatch(ctx, handlers.Event{
			ID:         uuid.NewString(),
			Kind:       handlers.EventExpire,
			UserID:     userID,
			IdleCutoff: cutoff,
		})
	}

	if len(idle) > 0 {
		s.logger.Info("Idle sessions scheduled for expiry", zap.Int("count", len(idle)))
	}
}
