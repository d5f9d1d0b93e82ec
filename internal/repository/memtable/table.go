// Package memtable хранит листы в памяти процесса: тесты и локальный запуск без внешних сервисов.
package memtable

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Freeeeeet/consultation_bot/internal/repository/base"
)

// Table - лист в памяти; первая строка - заголовок
type Table struct {
	mu     sync.Mutex
	name   string
	values [][]string
}

// New создаёт лист с заголовком и строками данных; nil header - пустой лист
func New(name string, header []string, rows ...[]string) *Table {
	t := &Table{name: name}
	if header != nil {
		t.values = append(t.values, append([]string(nil), header...))
	}
	for _, r := range rows {
		t.values = append(t.values, append([]string(nil), r...))
	}
	return t
}

func (t *Table) Name() string {
	return t.name
}

// Read возвращает копию листа
func (t *Table) Read(ctx context.Context) (*base.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return base.NewSnapshot(t.copyValues()), nil
}

// UpdateCell записывает ячейку, расширяя строку при необходимости
func (t *Table) UpdateCell(ctx context.Context, row, col int, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.setLocked(row, col, value)
}

// CompareAndSwapCell выполняет проверку и запись под одной блокировкой
func (t *Table) CompareAndSwapCell(ctx context.Context, row, col int, expected, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	current, err := t.getLocked(row, col)
	if err != nil {
		return false, err
	}
	if normalize(current) != normalize(expected) {
		return false, nil
	}
	return true, t.setLocked(row, col, value)
}

// AppendRow добавляет строку в конец листа
func (t *Table) AppendRow(ctx context.Context, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.values = append(t.values, append([]string(nil), values...))
	return nil
}

// Cell возвращает значение ячейки (для проверок в тестах)
func (t *Table) Cell(row, col int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, _ := t.getLocked(row, col)
	return v
}

// Len возвращает количество строк данных
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.values) == 0 {
		return 0
	}
	return len(t.values) - 1
}

func (t *Table) getLocked(row, col int) (string, error) {
	idx := row - 1
	if idx < 0 || idx >= len(t.values) {
		return "", fmt.Errorf("%s row %d: %w", t.name, row, base.ErrRowNotFound)
	}
	if col < 0 || col >= len(t.values[idx]) {
		return "", nil
	}
	return t.values[idx][col], nil
}

func (t *Table) setLocked(row, col int, value string) error {
	idx := row - 1
	if idx < 0 || idx >= len(t.values) {
		return fmt.Errorf("%s row %d: %w", t.name, row, base.ErrRowNotFound)
	}
	if col < 0 {
		return fmt.Errorf("%s column %d: %w", t.name, col, base.ErrColumnNotFound)
	}
	for len(t.values[idx]) <= col {
		t.values[idx] = append(t.values[idx], "")
	}
	t.values[idx][col] = value
	return nil
}

func (t *Table) copyValues() [][]string {
	out := make([][]string, len(t.values))
	for i, r := range t.values {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
