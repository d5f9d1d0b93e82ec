package base

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrRowNotFound    = errors.New("row not found")
)

// HeaderRow - номер строки заголовка; строки данных начинаются со второй
const HeaderRow = 1

// Table - построчный доступ к листу удалённой таблицы
type Table interface {
	// Read читает весь лист: заголовок и строки данных
	Read(ctx context.Context) (*Snapshot, error)
	// UpdateCell записывает значение в ячейку (row - номер строки листа, col - индекс колонки с нуля)
	UpdateCell(ctx context.Context, row, col int, value string) error
	// AppendRow добавляет строку в конец листа
	AppendRow(ctx context.Context, values []string) error
}

// CompareAndSwapper - атомарная условная запись ячейки.
// Текущее значение сравнивается с expected без учёта регистра и пробелов по краям.
type CompareAndSwapper interface {
	CompareAndSwapCell(ctx context.Context, row, col int, expected, value string) (bool, error)
}

// Row - строка данных листа
type Row struct {
	Number int
	Cells  []string
}

// Cell возвращает значение колонки; отсутствующая колонка даёт пустую строку
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[col])
}

// Snapshot - прочитанное состояние листа
type Snapshot struct {
	Header []string
	Rows   []Row
}

// Column ищет колонку по заголовку, -1 если её нет
func (s *Snapshot) Column(name string) int {
	want := normalizeHeader(name)
	for i, h := range s.Header {
		if normalizeHeader(h) == want {
			return i
		}
	}
	return -1
}

// Find возвращает первую строку, для которой match вернул true
func (s *Snapshot) Find(match func(Row) bool) (Row, bool) {
	for _, r := range s.Rows {
		if match(r) {
			return r, true
		}
	}
	return Row{}, false
}

// Layout раскладывает значения по колонкам заголовка.
// Значения колонок, которых нет в заголовке, отбрасываются и возвращаются в dropped.
func (s *Snapshot) Layout(columns []string, values map[string]string) (row []string, dropped []string) {
	row = make([]string, len(s.Header))
	for _, c := range columns {
		idx := s.Column(c)
		if idx < 0 {
			if values[c] != "" {
				dropped = append(dropped, c)
			}
			continue
		}
		row[idx] = values[c]
	}
	return row, dropped
}

// EnsureHeader записывает columns строкой заголовка, если лист пуст.
// Без этого первая добавленная запись стала бы заголовком.
func EnsureHeader(ctx context.Context, t Table, snap *Snapshot, columns []string) error {
	if len(snap.Header) > 0 {
		return nil
	}
	if err := t.AppendRow(ctx, columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	snap.Header = append([]string(nil), columns...)
	return nil
}

// NewSnapshot строит снимок из сырых строк листа (первая строка - заголовок)
func NewSnapshot(values [][]string) *Snapshot {
	s := &Snapshot{}
	if len(values) == 0 {
		return s
	}
	s.Header = values[0]
	for i, cells := range values[1:] {
		s.Rows = append(s.Rows, Row{Number: HeaderRow + 1 + i, Cells: cells})
	}
	return s
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
