package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/cache"
	"github.com/Freeeeeet/consultation_bot/internal/metrics"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/Freeeeeet/consultation_bot/internal/repository/base"
	"go.uber.org/zap"
)

// Колонки листа расписания
const (
	ScheduleColumnDate   = "Дата"
	ScheduleColumnTime   = "Час"
	ScheduleColumnStatus = "Статус"
)

var ScheduleColumns = []string{ScheduleColumnDate, ScheduleColumnTime, ScheduleColumnStatus}

const DefaultWindowDays = 7

// ScheduleOptions задают окно записи
type ScheduleOptions struct {
	Location   *time.Location
	WindowDays int
	Now        func() time.Time
}

// SlotRepository читает расписание и меняет статусы слотов
type SlotRepository struct {
	table      base.Table
	cache      cache.ScheduleCache
	loc        *time.Location
	windowDays int
	now        func() time.Time
	locks      *slotLocks
	logger     *zap.Logger
}

func NewSlotRepository(table base.Table, scheduleCache cache.ScheduleCache, opts ScheduleOptions, logger *zap.Logger) *SlotRepository {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &SlotRepository{
		table:      table,
		cache:      scheduleCache,
		loc:        opts.Location,
		windowDays: opts.WindowDays,
		now:        opts.Now,
		locks:      newSlotLocks(),
		logger:     logger,
	}
}

// ListFreeSlots возвращает свободные слоты окна [сегодня, сегодня+N дней), позже текущего момента.
// Ошибка чтения таблицы возвращается вызывающему.
func (r *SlotRepository) ListFreeSlots(ctx context.Context) (model.FreeSlots, error) {
	slots, err := r.cache.Get(ctx, r.loadFreeSlots)
	if err != nil {
		r.cache.Invalidate(ctx)
		return model.FreeSlots{}, fmt.Errorf("list free slots: %w", err)
	}

	// Запись кэша могла пережить часть окна: отсекаем прошедшее заново
	return r.restrictToWindow(slots), nil
}

// ConditionalUpdate переводит слот из expected в desired, если текущий статус совпадает с expected.
// Читает таблицу напрямую, минуя кэш. Любая ошибка даёт false.
func (r *SlotRepository) ConditionalUpdate(ctx context.Context, date, tm string, expected, desired model.SlotStatus) bool {
	log := r.logger.With(
		zap.String("date", date),
		zap.String("time", tm),
		zap.String("expected", string(expected)),
		zap.String("desired", string(desired)),
	)

	cas, atomic := r.table.(base.CompareAndSwapper)
	if !atomic {
		// Таблица не умеет условную запись: сериализуем проверку и запись хотя бы внутри процесса
		unlock := r.locks.lock(model.NormalizeDate(date) + " " + model.NormalizeTime(tm))
		defer unlock()
	}

	snap, err := r.table.Read(ctx)
	if err != nil {
		r.cache.Invalidate(ctx)
		r.record(desired, "error")
		log.Warn("Failed to read schedule for conditional update", zap.Error(err))
		return false
	}

	dateCol, timeCol, statusCol := r.columns(snap)
	if dateCol < 0 || timeCol < 0 || statusCol < 0 {
		r.record(desired, "error")
		log.Error("Schedule sheet misses required columns", zap.Strings("header", snap.Header))
		return false
	}

	wantDate, wantTime := model.NormalizeDate(date), model.NormalizeTime(tm)
	row, found := snap.Find(func(row base.Row) bool {
		return model.NormalizeDate(row.Cell(dateCol)) == wantDate &&
			model.NormalizeTime(row.Cell(timeCol)) == wantTime
	})
	if !found {
		r.record(desired, "not_found")
		log.Warn("Slot not found")
		return false
	}

	if atomic {
		swapped, err := cas.CompareAndSwapCell(ctx, row.Number, statusCol, string(expected), string(desired))
		r.cache.Invalidate(ctx)
		switch {
		case err != nil:
			r.record(desired, "error")
			log.Warn("Failed to update slot status", zap.Int("row", row.Number), zap.Error(err))
			return false
		case !swapped:
			r.record(desired, "mismatch")
			log.Info("Slot status changed concurrently", zap.Int("row", row.Number))
			return false
		}
		r.record(desired, "ok")
		log.Info("Slot status updated", zap.Int("row", row.Number))
		return true
	}

	if current := row.Cell(statusCol); !expected.Matches(current) {
		r.cache.Invalidate(ctx)
		r.record(desired, "mismatch")
		log.Info("Slot status mismatch",
			zap.Int("row", row.Number),
			zap.String("current", current))
		return false
	}

	if err := r.table.UpdateCell(ctx, row.Number, statusCol, string(desired)); err != nil {
		r.cache.Invalidate(ctx)
		r.record(desired, "error")
		log.Warn("Failed to update slot status", zap.Int("row", row.Number), zap.Error(err))
		return false
	}

	r.cache.Invalidate(ctx)
	r.record(desired, "ok")
	log.Info("Slot status updated", zap.Int("row", row.Number))
	return true
}

// loadFreeSlots вычисляет свободные слоты по свежему снимку листа
func (r *SlotRepository) loadFreeSlots(ctx context.Context) (model.FreeSlots, error) {
	snap, err := r.table.Read(ctx)
	if err != nil {
		return model.FreeSlots{}, err
	}

	now := r.now().In(r.loc)
	dateCol, timeCol, statusCol := r.columns(snap)
	if dateCol < 0 || timeCol < 0 || statusCol < 0 {
		r.logger.Error("Schedule sheet misses required columns", zap.Strings("header", snap.Header))
		return model.GroupFreeSlots(nil, now), nil
	}

	var (
		free    []model.ScheduleSlot
		skipped int
	)
	for _, row := range snap.Rows {
		if !model.SlotStatusFree.Matches(row.Cell(statusCol)) {
			continue
		}

		startsAt, err := model.ParseSlotTime(row.Cell(dateCol), row.Cell(timeCol), r.loc)
		if err != nil {
			skipped++
			continue
		}
		if !r.inWindow(startsAt, now) {
			continue
		}

		free = append(free, model.ScheduleSlot{
			Row:      row.Number,
			Date:     startsAt.Format(model.DateLayout),
			Time:     startsAt.Format(model.TimeLayout),
			Status:   row.Cell(statusCol),
			StartsAt: startsAt,
		})
	}

	if skipped > 0 {
		r.logger.Warn("Skipped malformed schedule rows", zap.Int("count", skipped))
	}

	return model.GroupFreeSlots(free, now), nil
}

func (r *SlotRepository) restrictToWindow(slots model.FreeSlots) model.FreeSlots {
	now := r.now().In(r.loc)
	out := model.FreeSlots{ComputedAt: slots.ComputedAt, Days: make([]model.DaySlots, 0, len(slots.Days))}

	for _, day := range slots.Days {
		var times []string
		for _, tm := range day.Times {
			startsAt, err := model.ParseSlotTime(day.Date, tm, r.loc)
			if err == nil && r.inWindow(startsAt, now) {
				times = append(times, tm)
			}
		}
		if len(times) > 0 {
			out.Days = append(out.Days, model.DaySlots{Date: day.Date, Times: times})
		}
	}
	return out
}

// inWindow: дата в [сегодня, сегодня+N), момент строго позже now
func (r *SlotRepository) inWindow(startsAt, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
	end := today.AddDate(0, 0, r.windowDays)
	day := time.Date(startsAt.Year(), startsAt.Month(), startsAt.Day(), 0, 0, 0, 0, r.loc)

	return !day.Before(today) && day.Before(end) && startsAt.After(now)
}

func (r *SlotRepository) columns(snap *base.Snapshot) (date, tm, status int) {
	return snap.Column(ScheduleColumnDate), snap.Column(ScheduleColumnTime), snap.Column(ScheduleColumnStatus)
}

func (r *SlotRepository) record(desired model.SlotStatus, outcome string) {
	metrics.SlotTransitions.WithLabelValues(model.NormalizeStatus(string(desired)), outcome).Inc()
}
