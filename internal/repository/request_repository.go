package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/Freeeeeet/consultation_bot/internal/repository/base"
	"go.uber.org/zap"
)

// Колонки журнала заявок; порядок задаёт раскладку нового листа
const (
	RequestColumnName      = "Ім'я"
	RequestColumnContact   = "Контакт"
	RequestColumnQuestion  = "Питання"
	RequestColumnUserID    = "Telegram ID"
	RequestColumnDate      = "Дата"
	RequestColumnTime      = "Час"
	RequestColumnCreatedAt = "Час запису"
	RequestColumnPhone     = "Телефон"
	RequestColumnMessenger = "Месенджер"
	RequestColumnStatus    = "Статус заявки"
)

var RequestColumns = []string{
	RequestColumnName,
	RequestColumnContact,
	RequestColumnQuestion,
	RequestColumnUserID,
	RequestColumnDate,
	RequestColumnTime,
	RequestColumnCreatedAt,
	RequestColumnPhone,
	RequestColumnMessenger,
	RequestColumnStatus,
}

// RequestRepository - журнал заявок: только добавление и отметка об отмене
type RequestRepository struct {
	table  base.Table
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

func NewRequestRepository(table base.Table, loc *time.Location, now func() time.Time, logger *zap.Logger) *RequestRepository {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &RequestRepository{table: table, loc: loc, now: now, logger: logger}
}

// Append добавляет заявку. Колонки, которых нет в листе, пропускаются.
func (r *RequestRepository) Append(ctx context.Context, req *model.BookingRequest) error {
	snap, err := r.table.Read(ctx)
	if err != nil {
		return fmt.Errorf("append request: %w", err)
	}

	if req.CreatedAt.IsZero() {
		req.CreatedAt = r.now()
	}
	if req.Status == "" {
		req.Status = model.RequestStatusActive
	}

	if err := base.EnsureHeader(ctx, r.table, snap, RequestColumns); err != nil {
		return fmt.Errorf("append request: %w", err)
	}

	values, dropped := snap.Layout(RequestColumns, map[string]string{
		RequestColumnName:      req.Name,
		RequestColumnContact:   req.Contact,
		RequestColumnQuestion:  req.Question,
		RequestColumnUserID:    req.UserID,
		RequestColumnDate:      req.Date,
		RequestColumnTime:      req.Time,
		RequestColumnCreatedAt: req.CreatedAt.In(r.loc).Format(model.TimestampLayout),
		RequestColumnPhone:     req.BookingPhone,
		RequestColumnMessenger: req.PreferredMessenger,
		RequestColumnStatus:    string(req.Status),
	})
	if len(dropped) > 0 {
		r.logger.Warn("Requests sheet misses columns, values dropped", zap.Strings("columns", dropped))
	}

	if err := r.table.AppendRow(ctx, values); err != nil {
		return fmt.Errorf("append request: %w", err)
	}
	return nil
}

// FindActiveForUser возвращает будущие неотменённые записи пользователя по возрастанию времени.
// Заявки на звонок (без даты и времени) не попадают в выборку.
func (r *RequestRepository) FindActiveForUser(ctx context.Context, userID int64, handle string) ([]model.ActiveBooking, error) {
	snap, err := r.table.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("find active requests of %d: %w", userID, err)
	}

	now := r.now().In(r.loc)
	var (
		idCol       = snap.Column(RequestColumnUserID)
		dateCol     = snap.Column(RequestColumnDate)
		timeCol     = snap.Column(RequestColumnTime)
		questionCol = snap.Column(RequestColumnQuestion)
		statusCol   = snap.Column(RequestColumnStatus)
	)

	bookings := make([]model.ActiveBooking, 0)
	for _, row := range snap.Rows {
		if !matchesUser(row.Cell(idCol), userID, handle) {
			continue
		}
		if isCancelled(row.Cell(statusCol)) || (statusCol < 0 && hasCancelNote(row.Cell(questionCol))) {
			continue
		}
		startsAt, err := model.ParseSlotTime(row.Cell(dateCol), row.Cell(timeCol), r.loc)
		if err != nil || !startsAt.After(now) {
			continue
		}

		bookings = append(bookings, model.ActiveBooking{
			Row:      row.Number,
			Date:     startsAt.Format(model.DateLayout),
			Time:     startsAt.Format(model.TimeLayout),
			Question: row.Cell(questionCol),
			StartsAt: startsAt,
		})
	}

	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].StartsAt.Before(bookings[j].StartsAt)
	})
	return bookings, nil
}

// GetByRow читает заявку по номеру строки; nil, nil если строки нет
func (r *RequestRepository) GetByRow(ctx context.Context, rowNumber int) (*model.BookingRequest, error) {
	snap, err := r.table.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("get request row %d: %w", rowNumber, err)
	}

	row, ok := snap.Find(func(row base.Row) bool { return row.Number == rowNumber })
	if !ok {
		return nil, nil
	}

	req := &model.BookingRequest{
		Row:                row.Number,
		Name:               row.Cell(snap.Column(RequestColumnName)),
		Contact:            row.Cell(snap.Column(RequestColumnContact)),
		Question:           row.Cell(snap.Column(RequestColumnQuestion)),
		UserID:             row.Cell(snap.Column(RequestColumnUserID)),
		Date:               model.NormalizeDate(row.Cell(snap.Column(RequestColumnDate))),
		Time:               model.NormalizeTime(row.Cell(snap.Column(RequestColumnTime))),
		BookingPhone:       row.Cell(snap.Column(RequestColumnPhone)),
		PreferredMessenger: row.Cell(snap.Column(RequestColumnMessenger)),
		Status:             model.RequestStatus(row.Cell(snap.Column(RequestColumnStatus))),
	}
	req.CreatedAt, _ = time.ParseInLocation(model.TimestampLayout, row.Cell(snap.Column(RequestColumnCreatedAt)), r.loc)
	if snap.Column(RequestColumnStatus) < 0 && hasCancelNote(req.Question) {
		req.Status = model.RequestStatusCancelledByUser
	}
	return req, nil
}

// MarkCancelled отмечает заявку отменённой пользователем.
// В листе без колонки статуса отметка дописывается к вопросу.
func (r *RequestRepository) MarkCancelled(ctx context.Context, rowNumber int, who string) error {
	snap, err := r.table.Read(ctx)
	if err != nil {
		return fmt.Errorf("mark request %d cancelled: %w", rowNumber, err)
	}

	if statusCol := snap.Column(RequestColumnStatus); statusCol >= 0 {
		if err := r.table.UpdateCell(ctx, rowNumber, statusCol, string(model.RequestStatusCancelledByUser)); err != nil {
			return fmt.Errorf("mark request %d cancelled: %w", rowNumber, err)
		}
		return nil
	}

	questionCol := snap.Column(RequestColumnQuestion)
	if questionCol < 0 {
		return fmt.Errorf("mark request %d cancelled: %w", rowNumber, base.ErrColumnNotFound)
	}

	row, ok := snap.Find(func(row base.Row) bool { return row.Number == rowNumber })
	if !ok {
		return fmt.Errorf("mark request %d cancelled: %w", rowNumber, base.ErrRowNotFound)
	}

	note := fmt.Sprintf("[%s: %s, %s]",
		model.RequestStatusCancelledByUser, who, r.now().In(r.loc).Format(model.TimestampLayout))
	value := strings.TrimSpace(row.Cell(questionCol) + " " + note)

	if err := r.table.UpdateCell(ctx, rowNumber, questionCol, value); err != nil {
		return fmt.Errorf("mark request %d cancelled: %w", rowNumber, err)
	}
	return nil
}

// IsActiveStatus - заявка не отменена (пустой статус в старых строках считается активным)
func IsActiveStatus(status model.RequestStatus) bool {
	return !isCancelled(string(status))
}

func isCancelled(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), string(model.RequestStatusCancelledByUser))
}

func hasCancelNote(question string) bool {
	return strings.Contains(question, "["+string(model.RequestStatusCancelledByUser)+":")
}

// matchesUser сравнивает идентификатор из журнала с Telegram ID или @username
func matchesUser(identity string, userID int64, handle string) bool {
	if identity == "" {
		return false
	}
	if identity == strconv.FormatInt(userID, 10) {
		return true
	}
	return strings.HasPrefix(handle, "@") && strings.EqualFold(identity, handle)
}

// MatchesUser - экспортированная проверка принадлежности заявки пользователю
func MatchesUser(req *model.BookingRequest, userID int64, handle string) bool {
	return matchesUser(req.UserID, userID, handle)
}
