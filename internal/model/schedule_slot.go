package model

import (
	"sort"
	"strings"
	"time"
)

// Форматы дат в таблицах
const (
	DateLayout      = "02.01.2006"
	TimeLayout      = "15:04"
	TimestampLayout = "02.01.2006 15:04:05"

	// Разбор допускает даты и время без ведущих нулей (1.6.2025, 9:00)
	dateParseLayout = "2.1.2006"
	timeParseLayout = "15:04"
)

type SlotStatus string

const (
	SlotStatusFree            SlotStatus = "Вільно"
	SlotStatusBooked          SlotStatus = "Заброньовано"
	SlotStatusCancelledByUser SlotStatus = "Скасовано клієнтом"
)

// Matches сравнивает статус из таблицы без учёта регистра и пробелов
func (s SlotStatus) Matches(raw string) bool {
	return NormalizeStatus(raw) == NormalizeStatus(string(s))
}

// NormalizeStatus приводит значение ячейки статуса к каноническому виду
func NormalizeStatus(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ScheduleSlot - строка листа расписания
type ScheduleSlot struct {
	Row      int
	Date     string
	Time     string
	Status   string
	StartsAt time.Time
}

// DaySlots - свободные времена одной даты
type DaySlots struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// FreeSlots - свободные слоты, сгруппированные по датам
type FreeSlots struct {
	ComputedAt time.Time  `json:"computed_at"`
	Days       []DaySlots `json:"days"`
}

// Clone возвращает глубокую копию
func (f FreeSlots) Clone() FreeSlots {
	out := FreeSlots{ComputedAt: f.ComputedAt, Days: make([]DaySlots, 0, len(f.Days))}
	for _, d := range f.Days {
		out.Days = append(out.Days, DaySlots{Date: d.Date, Times: append([]string(nil), d.Times...)})
	}
	return out
}

func (f FreeSlots) Empty() bool {
	return len(f.Days) == 0
}

// Dates возвращает даты по возрастанию
func (f FreeSlots) Dates() []string {
	dates := make([]string, 0, len(f.Days))
	for _, d := range f.Days {
		dates = append(dates, d.Date)
	}
	return dates
}

// TimesFor возвращает свободные времена даты (nil если даты нет)
func (f FreeSlots) TimesFor(date string) []string {
	date = NormalizeDate(date)
	for _, d := range f.Days {
		if d.Date == date {
			return append([]string(nil), d.Times...)
		}
	}
	return nil
}

// Has проверяет, свободен ли слот
func (f FreeSlots) Has(date, tm string) bool {
	tm = NormalizeTime(tm)
	for _, t := range f.TimesFor(date) {
		if t == tm {
			return true
		}
	}
	return false
}

// GroupFreeSlots группирует слоты по датам; даты и времена сортируются по возрастанию
func GroupFreeSlots(slots []ScheduleSlot, computedAt time.Time) FreeSlots {
	sorted := append([]ScheduleSlot(nil), slots...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartsAt.Before(sorted[j].StartsAt)
	})

	out := FreeSlots{ComputedAt: computedAt, Days: make([]DaySlots, 0)}
	for _, s := range sorted {
		n := len(out.Days)
		if n == 0 || out.Days[n-1].Date != s.Date {
			out.Days = append(out.Days, DaySlots{Date: s.Date})
			n++
		}
		day := &out.Days[n-1]
		if len(day.Times) > 0 && day.Times[len(day.Times)-1] == s.Time {
			continue // дубликат строки в таблице
		}
		day.Times = append(day.Times, s.Time)
	}
	return out
}

// ParseSlotTime собирает дату и время слота в момент времени в заданной зоне
func ParseSlotTime(date, tm string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateParseLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(timeParseLayout, strings.TrimSpace(tm))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// NormalizeDate приводит дату к DateLayout; неразборчивое значение только обрезается
func NormalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if d, err := time.Parse(dateParseLayout, date); err == nil {
		return d.Format(DateLayout)
	}
	return date
}

// NormalizeTime приводит время к TimeLayout; неразборчивое значение только обрезается
func NormalizeTime(tm string) string {
	tm = strings.TrimSpace(tm)
	if t, err := time.Parse(timeParseLayout, tm); err == nil {
		return t.Format(TimeLayout)
	}
	return tm
}
