// Package cache хранит вычисленный список свободных слотов между обращениями к таблице.
package cache

import (
	"context"

	"github.com/Freeeeeet/consultation_bot/internal/model"
)

// LoadFunc вычисляет свободные слоты из таблицы
type LoadFunc func(ctx context.Context) (model.FreeSlots, error)

// ScheduleCache - кэш списка свободных слотов с TTL.
// Get всегда возвращает копию, которую вызывающий может менять.
type ScheduleCache interface {
	Get(ctx context.Context, load LoadFunc) (model.FreeSlots, error)
	Invalidate(ctx context.Context)
}
