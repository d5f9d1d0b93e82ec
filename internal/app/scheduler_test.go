package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/controller/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessions struct {
	idle      []int64
	gotCutoff time.Time
}

func (s *fakeSessions) IdleSince(cutoff time.Time) []int64 {
	s.gotCutoff = cutoff
	return s.idle
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []handlers.Event
}

func (d *fakeDispatcher) Dispatch(_ context.Context, ev handlers.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func TestScheduler_ExpireIdleSessions(t *testing.T) {
	now := time.Date(2025, 5, 10, 10, 0, 0, 0, time.UTC)
	sessions := &fakeSessions{idle: []int64{1, 2}}
	dispatcher := &fakeDispatcher{}

	s := NewScheduler(nil, sessions, dispatcher, SchedulerConfig{IdleTimeout: 30 * time.Minute}, zap.NewNop())
	s.now = func() time.Time { return now }

	s.ExpireIdleSessions(context.Background())

	cutoff := now.Add(-30 * time.Minute)
	assert.Equal(t, cutoff, sessions.gotCutoff)

	require.Len(t, dispatcher.events, 2)
	for i, ev := range dispatcher.events {
		assert.Equal(t, handlers.EventExpire, ev.Kind)
		assert.Equal(t, sessions.idle[i], ev.UserID)
		assert.Equal(t, cutoff, ev.IdleCutoff)
		assert.NotEmpty(t, ev.ID)
	}
}

func TestScheduler_WarmupRunsOnStart(t *testing.T) {
	var calls atomic.Int32
	warmup := func(context.Context) error {
		calls.Add(1)
		return nil
	}

	s := NewScheduler(warmup, nil, nil, SchedulerConfig{WarmupInterval: time.Hour}, zap.NewNop())
	s.Start(context.Background())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	// Повторная остановка безопасна
	s.Stop()
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sessions := &fakeSessions{}

	s := NewScheduler(nil, sessions, &fakeDispatcher{}, SchedulerConfig{
		IdleTimeout:       time.Minute,
		IdleCheckInterval: time.Millisecond,
	}, zap.NewNop())
	s.Start(ctx)

	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
