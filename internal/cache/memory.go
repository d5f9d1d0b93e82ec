package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/metrics"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"golang.org/x/sync/singleflight"
)

// Memory - одна ячейка в памяти процесса
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu         sync.Mutex
	entry      *model.FreeSlots
	generation uint64

	group singleflight.Group
}

// NewMemory создаёт кэш; now == nil означает time.Now
func NewMemory(ttl time.Duration, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{ttl: ttl, now: now}
}

func (c *Memory) Get(ctx context.Context, load LoadFunc) (model.FreeSlots, error) {
	c.mu.Lock()
	if c.entry != nil && c.now().Sub(c.entry.ComputedAt) < c.ttl {
		out := c.entry.Clone()
		c.mu.Unlock()
		metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
		return out, nil
	}
	gen := c.generation
	c.mu.Unlock()

	metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()

	// Ключ включает поколение: после Invalidate новый вызов не присоединится к старой загрузке
	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		started := c.now()
		slots, err := load(ctx)
		if err != nil {
			return nil, err
		}
		slots.ComputedAt = started

		c.mu.Lock()
		if c.generation == gen {
			stored := slots.Clone()
			c.entry = &stored
		}
		c.mu.Unlock()

		return slots, nil
	})
	if err != nil {
		return model.FreeSlots{}, err
	}

	return v.(model.FreeSlots).Clone(), nil
}

// Invalidate очищает ячейку; загрузка, начатая до вызова, результат не сохранит
func (c *Memory) Invalidate(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = nil
	c.generation++
}
