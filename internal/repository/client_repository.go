package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/Freeeeeet/consultation_bot/internal/repository/base"
)

// Колонки листа клиентов
const (
	ClientColumnUserID    = "Telegram ID"
	ClientColumnHandle    = "Username"
	ClientColumnName      = "Ім'я"
	ClientColumnFirstSeen = "Перший візит"
	ClientColumnLastSeen  = "Останній візит"
)

var ClientColumns = []string{
	ClientColumnUserID,
	ClientColumnHandle,
	ClientColumnName,
	ClientColumnFirstSeen,
	ClientColumnLastSeen,
}

// ClientRepository - справочник имён клиентов
type ClientRepository struct {
	table base.Table
	loc   *time.Location
	now   func() time.Time
}

func NewClientRepository(table base.Table, loc *time.Location, now func() time.Time) *ClientRepository {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ClientRepository{table: table, loc: loc, now: now}
}

// GetByUserID ищет клиента по Telegram ID; nil, nil если не найден
func (r *ClientRepository) GetByUserID(ctx context.Context, userID int64) (*model.ClientRecord, error) {
	snap, err := r.table.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", userID, err)
	}

	row, ok := r.find(snap, userID)
	if !ok {
		return nil, nil
	}

	return r.toRecord(snap, row, userID), nil
}

// Upsert обновляет имя, username и время последнего визита или добавляет нового клиента
func (r *ClientRepository) Upsert(ctx context.Context, userID int64, handle, name string) error {
	snap, err := r.table.Read(ctx)
	if err != nil {
		return fmt.Errorf("upsert client %d: %w", userID, err)
	}

	stamp := r.now().In(r.loc).Format(model.TimestampLayout)

	row, ok := r.find(snap, userID)
	if !ok {
		if err := base.EnsureHeader(ctx, r.table, snap, ClientColumns); err != nil {
			return fmt.Errorf("append client %d: %w", userID, err)
		}
		values, _ := snap.Layout(ClientColumns, map[string]string{
			ClientColumnUserID:    strconv.FormatInt(userID, 10),
			ClientColumnHandle:    handle,
			ClientColumnName:      name,
			ClientColumnFirstSeen: stamp,
			ClientColumnLastSeen:  stamp,
		})
		if err := r.table.AppendRow(ctx, values); err != nil {
			return fmt.Errorf("append client %d: %w", userID, err)
		}
		return nil
	}

	nameCol := snap.Column(ClientColumnName)
	if nameCol < 0 {
		return fmt.Errorf("update client %d: %q: %w", userID, ClientColumnName, base.ErrColumnNotFound)
	}

	updates := []struct {
		col   int
		value string
	}{
		{nameCol, name},
		{snap.Column(ClientColumnHandle), handle},
		{snap.Column(ClientColumnLastSeen), stamp},
	}
	for _, u := range updates {
		if u.col < 0 {
			continue
		}
		if err := r.table.UpdateCell(ctx, row.Number, u.col, u.value); err != nil {
			return fmt.Errorf("update client %d: %w", userID, err)
		}
	}

	return nil
}

func (r *ClientRepository) find(snap *base.Snapshot, userID int64) (base.Row, bool) {
	idCol := snap.Column(ClientColumnUserID)
	if idCol < 0 {
		return base.Row{}, false
	}

	want := strconv.FormatInt(userID, 10)
	return snap.Find(func(row base.Row) bool {
		return row.Cell(idCol) == want
	})
}

func (r *ClientRepository) toRecord(snap *base.Snapshot, row base.Row, userID int64) *model.ClientRecord {
	rec := &model.ClientRecord{
		Row:    row.Number,
		UserID: userID,
		Handle: row.Cell(snap.Column(ClientColumnHandle)),
		Name:   row.Cell(snap.Column(ClientColumnName)),
	}
	rec.FirstSeen, _ = time.ParseInLocation(model.TimestampLayout, row.Cell(snap.Column(ClientColumnFirstSeen)), r.loc)
	rec.LastSeen, _ = time.ParseInLocation(model.TimestampLayout, row.Cell(snap.Column(ClientColumnLastSeen)), r.loc)
	return rec
}
