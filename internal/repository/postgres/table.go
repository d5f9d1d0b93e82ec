// Package postgres хранит листы в PostgreSQL: одна строка листа - одна запись sheet_rows.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/metrics"
	"github.com/Freeeeeet/consultation_bot/internal/repository/base"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

const uniqueViolation = "23505"

// Table - лист в таблице sheet_rows
type Table struct {
	pool  *pgxpool.Pool
	sheet string
}

func NewTable(pool *pgxpool.Pool, sheet string) *Table {
	return &Table{pool: pool, sheet: sheet}
}

func (t *Table) Name() string {
	return t.sheet
}

// EnsureHeader создаёт строку заголовка, если листа ещё нет
func (t *Table) EnsureHeader(ctx context.Context, header []string) error {
	query := `
		INSERT INTO sheet_rows (sheet_name, row_num, cells)
		VALUES ($1, $2, $3)
		ON CONFLICT (sheet_name, row_num) DO NOTHING
	`

	if _, err := t.pool.Exec(ctx, query, t.sheet, base.HeaderRow, header); err != nil {
		return fmt.Errorf("ensure header of %q: %w", t.sheet, err)
	}
	return nil
}

// Read читает лист целиком; пропуски в нумерации строк заполняются пустыми строками
func (t *Table) Read(ctx context.Context) (_ *base.Snapshot, err error) {
	defer observe("read", time.Now(), &err)

	query := `
		SELECT row_num, array_replace(cells, NULL, '')
		FROM sheet_rows
		WHERE sheet_name = $1
		ORDER BY row_num
	`

	rows, err := t.pool.Query(ctx, query, t.sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", t.sheet, err)
	}
	defer rows.Close()

	var values [][]string
	for rows.Next() {
		var (
			num   int
			cells []string
		)
		if err := rows.Scan(&num, &cells); err != nil {
			return nil, fmt.Errorf("scan sheet %q: %w", t.sheet, err)
		}
		for len(values) < num-1 {
			values = append(values, nil)
		}
		values = append(values, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sheet %q: %w", t.sheet, err)
	}

	return base.NewSnapshot(values), nil
}

// UpdateCell записывает ячейку; массивы PostgreSQL индексируются с единицы
func (t *Table) UpdateCell(ctx context.Context, row, col int, value string) (err error) {
	defer observe("update", time.Now(), &err)

	if col < 0 {
		return fmt.Errorf("update sheet %q: %w", t.sheet, base.ErrColumnNotFound)
	}

	query := `
		UPDATE sheet_rows
		SET cells[$3] = $4, updated_at = NOW()
		WHERE sheet_name = $1 AND row_num = $2
	`

	tag, err := t.pool.Exec(ctx, query, t.sheet, row, col+1, value)
	if err != nil {
		return fmt.Errorf("update sheet %q row %d: %w", t.sheet, row, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update sheet %q row %d: %w", t.sheet, row, base.ErrRowNotFound)
	}
	return nil
}

// CompareAndSwapCell проверяет и записывает ячейку одним UPDATE
func (t *Table) CompareAndSwapCell(ctx context.Context, row, col int, expected, value string) (_ bool, err error) {
	defer observe("cas", time.Now(), &err)

	if col < 0 {
		return false, fmt.Errorf("update sheet %q: %w", t.sheet, base.ErrColumnNotFound)
	}

	query := `
		UPDATE sheet_rows
		SET cells[$3] = $4, updated_at = NOW()
		WHERE sheet_name = $1
		  AND row_num = $2
		  AND LOWER(BTRIM(COALESCE(cells[$3], ''))) = LOWER(BTRIM($5))
	`

	tag, err := t.pool.Exec(ctx, query, t.sheet, row, col+1, value, expected)
	if err != nil {
		return false, fmt.Errorf("compare and swap sheet %q row %d: %w", t.sheet, row, err)
	}
	return tag.RowsAffected() == 1, nil
}

// AppendRow занимает следующий номер строки; гонку за номер решает повтор при конфликте ключа
func (t *Table) AppendRow(ctx context.Context, values []string) (err error) {
	defer observe("append", time.Now(), &err)

	query := `
		INSERT INTO sheet_rows (sheet_name, row_num, cells)
		SELECT $1, COALESCE(MAX(row_num), $2) + 1, $3
		FROM sheet_rows
		WHERE sheet_name = $1
	`

	backoff := retry.WithMaxRetries(5, retry.NewConstant(10*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := t.pool.Exec(ctx, query, t.sheet, base.HeaderRow, values)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("append to sheet %q: %w", t.sheet, err)
	}
	return nil
}

func observe(op string, start time.Time, err *error) {
	metrics.ObserveStore("postgres", op, start, *err)
}
