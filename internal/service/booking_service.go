package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/Freeeeeet/consultation_bot/internal/repository"
	"go.uber.org/zap"
)

// CancelOutcome - результат отмены записи
type CancelOutcome int

const (
	CancelApplied      CancelOutcome = iota // Слот освобождён, заявка отмечена
	CancelSlotMismatch                      // Слот не в статусе "заброньовано", журнал не тронут
	CancelNotFound                          // Заявка не найдена или не принадлежит пользователю
)

// ContactRequest - заявка на обратный звонок
type ContactRequest struct {
	UserID int64
	Handle string
	Name   string
	Phone  string
	Shared bool // номер пришёл кнопкой "поделиться контактом"
}

type BookingService struct {
	slotRepo        *repository.SlotRepository
	requestRepo     *repository.RequestRepository
	releaseOnCancel bool
	logger          *zap.Logger
}

func NewBookingService(
	slotRepo *repository.SlotRepository,
	requestRepo *repository.RequestRepository,
	releaseOnCancel bool,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		slotRepo:        slotRepo,
		requestRepo:     requestRepo,
		releaseOnCancel: releaseOnCancel,
		logger:          logger,
	}
}

// ListFreeSlots возвращает свободные слоты окна записи
func (s *BookingService) ListFreeSlots(ctx context.Context) (model.FreeSlots, error) {
	return s.slotRepo.ListFreeSlots(ctx)
}

// ReserveSlot занимает свободный слот; false - слот уже занят или таблица недоступна
func (s *BookingService) ReserveSlot(ctx context.Context, date, tm string) bool {
	return s.slotRepo.ConditionalUpdate(ctx, date, tm, model.SlotStatusFree, model.SlotStatusBooked)
}

// ReleaseSlot возвращает занятый, но не оформленный слот в свободные
func (s *BookingService) ReleaseSlot(ctx context.Context, date, tm string) bool {
	released := s.slotRepo.ConditionalUpdate(ctx, date, tm, model.SlotStatusBooked, model.SlotStatusFree)
	if released {
		s.logger.Info("Held slot released", zap.String("date", date), zap.String("time", tm))
	}
	return released
}

// SubmitContactRequest записывает заявку на звонок
func (s *BookingService) SubmitContactRequest(ctx context.Context, req ContactRequest) (*model.BookingRequest, error) {
	recordType := model.RecordContactTyped
	if req.Shared {
		recordType = model.RecordContactShared
	}

	record := &model.BookingRequest{
		Name:         req.Name,
		Contact:      req.Handle,
		Question:     recordType,
		UserID:       strconv.FormatInt(req.UserID, 10),
		BookingPhone: req.Phone,
		Status:       model.RequestStatusActive,
	}

	if err := s.requestRepo.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("submit contact request: %w", err)
	}

	s.logger.Info("Contact request recorded",
		zap.Int64("user_id", req.UserID),
		zap.Bool("shared", req.Shared))

	return record, nil
}

// SubmitBooking записывает оформленную консультацию; слот к этому моменту уже занят
func (s *BookingService) SubmitBooking(ctx context.Context, req *model.BookingRequest) error {
	req.Status = model.RequestStatusActive

	if err := s.requestRepo.Append(ctx, req); err != nil {
		return fmt.Errorf("submit booking: %w", err)
	}

	s.logger.Info("Booking recorded",
		zap.String("user_id", req.UserID),
		zap.String("date", req.Date),
		zap.String("time", req.Time))

	return nil
}

// ActiveBookings возвращает будущие действующие записи пользователя
func (s *BookingService) ActiveBookings(ctx context.Context, userID int64, handle string) ([]model.ActiveBooking, error) {
	bookings, err := s.requestRepo.FindActiveForUser(ctx, userID, handle)
	if err != nil {
		return nil, fmt.Errorf("active bookings: %w", err)
	}
	return bookings, nil
}

// CancelBooking отменяет запись пользователя.
// Сначала меняется статус слота; журнал отмечается только если слот был занят.
func (s *BookingService) CancelBooking(ctx context.Context, userID int64, handle string, ref model.BookingRef) (CancelOutcome, error) {
	req, err := s.requestRepo.GetByRow(ctx, ref.Row)
	if err != nil {
		return CancelNotFound, fmt.Errorf("cancel booking: %w", err)
	}

	if req == nil ||
		!repository.MatchesUser(req, userID, handle) ||
		!repository.IsActiveStatus(req.Status) ||
		req.Date != model.NormalizeDate(ref.Date) ||
		req.Time != model.NormalizeTime(ref.Time) {
		s.logger.Warn("Cancellation target does not match user's booking",
			zap.Int64("user_id", userID),
			zap.Int("row", ref.Row),
			zap.String("date", ref.Date),
			zap.String("time", ref.Time))
		return CancelNotFound, nil
	}

	target := model.SlotStatusCancelledByUser
	if s.releaseOnCancel {
		target = model.SlotStatusFree
	}

	if !s.slotRepo.ConditionalUpdate(ctx, req.Date, req.Time, model.SlotStatusBooked, target) {
		return CancelSlotMismatch, nil
	}

	if err := s.requestRepo.MarkCancelled(ctx, ref.Row, handle); err != nil {
		// Слот уже освобождён: сообщаем пользователю об отмене, оператор поправит журнал
		s.logger.Error("Slot released but request row not marked",
			zap.Int64("user_id", userID),
			zap.Int("row", ref.Row),
			zap.Error(err))
	}

	s.logger.Info("Booking cancelled",
		zap.Int64("user_id", userID),
		zap.Int("row", ref.Row),
		zap.String("date", req.Date),
		zap.String("time", req.Time))

	return CancelApplied, nil
}
