package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/repository/base"
)

var errSheetDown = errors.New("sheet unavailable")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// plainTable скрывает CompareAndSwapCell, как у листа Google Sheets
type plainTable struct {
	base.Table
}

// flakyTable возвращает ошибку чтения, пока failReads выставлен
type flakyTable struct {
	base.Table

	mu        sync.Mutex
	failReads bool
}

func (t *flakyTable) SetFailing(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failReads = v
}

func (t *flakyTable) Read(ctx context.Context) (*base.Snapshot, error) {
	t.mu.Lock()
	fail := t.failReads
	t.mu.Unlock()

	if fail {
		return nil, errSheetDown
	}
	return t.Table.Read(ctx)
}
