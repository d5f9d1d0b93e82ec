package gsheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/consultation_bot/internal/repository/base"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Table - лист Google-таблицы.
// Условной записи API не предоставляет, поэтому Table не реализует base.CompareAndSwapper.
type Table struct {
	client *Client
	sheet  string
}

func (t *Table) Name() string {
	return t.sheet
}

// Read читает все значения листа в отображаемом виде
func (t *Table) Read(ctx context.Context) (*base.Snapshot, error) {
	var resp *sheetsapi.ValueRange
	err := t.client.do(ctx, "read", true, func(srv *sheetsapi.Service) error {
		var err error
		resp, err = srv.Spreadsheets.Values.
			Get(t.client.cfg.SpreadsheetID, quoteSheet(t.sheet)).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", t.sheet, err)
	}

	values := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		values[i] = cells
	}
	return base.NewSnapshot(values), nil
}

// UpdateCell записывает одну ячейку
func (t *Table) UpdateCell(ctx context.Context, row, col int, value string) error {
	if col < 0 {
		return fmt.Errorf("update sheet %q: %w", t.sheet, base.ErrColumnNotFound)
	}

	rng := fmt.Sprintf("%s!%s%d", quoteSheet(t.sheet), ColumnLetter(col), row)
	body := &sheetsapi.ValueRange{Values: [][]interface{}{{value}}}

	err := t.client.do(ctx, "update", true, func(srv *sheetsapi.Service) error {
		_, err := srv.Spreadsheets.Values.
			Update(t.client.cfg.SpreadsheetID, rng, body).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// AppendRow добавляет строку после последней заполненной
func (t *Table) AppendRow(ctx context.Context, values []string) error {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	body := &sheetsapi.ValueRange{Values: [][]interface{}{row}}

	err := t.client.do(ctx, "append", false, func(srv *sheetsapi.Service) error {
		_, err := srv.Spreadsheets.Values.
			Append(t.client.cfg.SpreadsheetID, quoteSheet(t.sheet)+"!A1", body).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("append to sheet %q: %w", t.sheet, err)
	}
	return nil
}

// ColumnLetter переводит индекс колонки с нуля в буквенное обозначение A1 (0 -> A, 26 -> AA)
func ColumnLetter(col int) string {
	var sb []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		sb = append([]byte{byte('A' + (n-1)%26)}, sb...)
	}
	return string(sb)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
