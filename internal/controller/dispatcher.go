package controller

import (
	"context"
	"sync"

	"github.com/Freeeeeet/consultation_bot/internal/controller/handlers"
	"go.uber.org/zap"
)

// EventHandler обрабатывает одно событие до конца
type EventHandler interface {
	Handle(ctx context.Context, ev handlers.Event)
}

type queuedEvent struct {
	ctx context.Context
	ev  handlers.Event
}

// Dispatcher выполняет события одного пользователя строго по очереди.
// Разные пользователи обрабатываются параллельно.
type Dispatcher struct {
	handler EventHandler
	logger  *zap.Logger

	mu     sync.Mutex
	queues map[int64][]queuedEvent
	wg     sync.WaitGroup
}

func NewDispatcher(handler EventHandler, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handler: handler,
		logger:  logger,
		queues:  make(map[int64][]queuedEvent),
	}
}

// Dispatch ставит событие в очередь пользователя и не ждёт обработки
func (d *Dispatcher) Dispatch(ctx context.Context, ev handlers.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	queue, running := d.queues[ev.UserID]
	d.queues[ev.UserID] = append(queue, queuedEvent{ctx: ctx, ev: ev})
	if running {
		return
	}

	d.wg.Add(1)
	go d.drain(ev.UserID)
}

// Wait ждёт, пока все поставленные события будут обработаны
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Pending - число пользователей с необработанными событиями
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

func (d *Dispatcher) drain(userID int64) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		queue := d.queues[userID]
		if len(queue) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		next := queue[0]
		d.queues[userID] = queue[1:]
		d.mu.Unlock()

		d.logger.Debug("Handling event",
			zap.String("event_id", next.ev.ID),
			zap.Int64("user_id", userID))
		d.handler.Handle(next.ctx, next.ev)
	}
}
