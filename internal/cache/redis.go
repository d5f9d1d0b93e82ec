package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/metrics"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultRedisKey = "consultation_bot:free_slots"

var errStaleEntry = errors.New("schedule cache invalidated during load")

// Redis - кэш, общий для нескольких экземпляров бота.
// Ошибки Redis не прерывают чтение: слоты вычисляются заново.
//
// Рядом с записью хранится счётчик версий: Invalidate увеличивает его,
// а запись результата загрузки идёт под WATCH и отменяется, если версия
// сменилась после начала загрузки на любом экземпляре.
type Redis struct {
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger

	mu         sync.Mutex
	generation uint64
	group      singleflight.Group
}

func NewRedis(rdb *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{rdb: rdb, key: key, ttl: ttl, logger: logger}
}

func (c *Redis) Get(ctx context.Context, load LoadFunc) (model.FreeSlots, error) {
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		var slots model.FreeSlots
		if err := json.Unmarshal(data, &slots); err == nil {
			metrics.CacheLookups.WithLabelValues("redis", "hit").Inc()
			return slots, nil
		}
		c.logger.Warn("Corrupted schedule cache entry", zap.String("key", c.key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Failed to read schedule cache", zap.String("key", c.key), zap.Error(err))
	}

	metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		version, verErr := readVersion(ctx, c.rdb, c.versionKey())

		started := time.Now()
		slots, err := load(ctx)
		if err != nil {
			return nil, err
		}
		slots.ComputedAt = started

		// Без версии нельзя заметить параллельный Invalidate: не кэшируем
		if verErr != nil {
			c.logger.Warn("Failed to read schedule cache version", zap.String("key", c.key), zap.Error(verErr))
			return slots, nil
		}
		c.store(ctx, gen, version, slots)
		return slots, nil
	})
	if err != nil {
		return model.FreeSlots{}, err
	}

	return v.(model.FreeSlots).Clone(), nil
}

func (c *Redis) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, c.versionKey())
		p.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		c.logger.Warn("Failed to invalidate schedule cache", zap.String("key", c.key), zap.Error(err))
	}
}

// store записывает снимок, только если с начала загрузки не было инвалидаций
func (c *Redis) store(ctx context.Context, gen, version uint64, slots model.FreeSlots) {
	data, err := json.Marshal(slots)
	if err != nil {
		c.logger.Warn("Failed to encode schedule cache entry", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		return
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, c.versionKey())
		if err != nil {
			return err
		}
		if current != version {
			return errStaleEntry
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, c.key, data, c.ttl)
			return nil
		})
		return err
	}, c.versionKey())

	switch {
	case err == nil:
	case errors.Is(err, errStaleEntry), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Stale schedule snapshot not cached", zap.String("key", c.key))
	default:
		c.logger.Warn("Failed to write schedule cache", zap.String("key", c.key), zap.Error(err))
	}
}

func (c *Redis) versionKey() string {
	return c.key + ":version"
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// readVersion читает счётчик инвалидаций; отсутствующий ключ - версия 0
func readVersion(ctx context.Context, rdb stringGetter, key string) (uint64, error) {
	v, err := rdb.Get(ctx, key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
