package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/messaging"
	"github.com/Freeeeeet/consultation_bot/internal/metrics"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"go.uber.org/zap"
)

const notificationTimeout = 10 * time.Second

// NotificationService отправляет уведомления в чат оператора.
// Отправка асинхронная, ошибки только логируются.
type NotificationService struct {
	messenger   messaging.Messenger
	adminChatID int64
	loc         *time.Location
	logger      *zap.Logger
	wg          sync.WaitGroup
}

func NewNotificationService(messenger messaging.Messenger, adminChatID int64, loc *time.Location, logger *zap.Logger) *NotificationService {
	if adminChatID == 0 {
		logger.Warn("ADMIN_CHAT_ID is not set, operator notifications are disabled")
	}
	if loc == nil {
		loc = time.UTC
	}

	return &NotificationService{
		messenger:   messenger,
		adminChatID: adminChatID,
		loc:         loc,
		logger:      logger,
	}
}

func (s *NotificationService) Enabled() bool {
	return s.adminChatID != 0
}

// NotifyContactRequest - новая заявка на звонок
func (s *NotificationService) NotifyContactRequest(ctx context.Context, req *model.BookingRequest, userID int64) {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>Новий запит на дзвінок (%s)</b>\n\n", esc(contactKind(req.Question)))
	fmt.Fprintf(&b, "👤 <b>Ім'я:</b> %s\n", esc(req.Name))
	fmt.Fprintf(&b, "📞 <b>Контакт:</b> <code>%s</code>\n", esc(req.BookingPhone))
	fmt.Fprintf(&b, "💬 <b>Telegram:</b> %s (ID: <code>%d</code>)\n", esc(req.Contact), userID)
	fmt.Fprintf(&b, "⏰ <b>Час запиту:</b> %s", esc(s.stamp(req.CreatedAt)))

	s.send(ctx, "contact", b.String())
}

// NotifyBooking - новая запись на консультацию
func (s *NotificationService) NotifyBooking(ctx context.Context, req *model.BookingRequest, userID int64) {
	var b strings.Builder
	b.WriteString("📅 <b>Новий запис на консультацію!</b>\n\n")
	fmt.Fprintf(&b, "👤 <b>Ім'я:</b> %s\n", esc(req.Name))
	fmt.Fprintf(&b, "📱 <b>Телефон для консультації:</b> <code>%s</code>\n", esc(req.BookingPhone))
	fmt.Fprintf(&b, "🗣️ <b>Бажаний месенджер:</b> %s\n", esc(req.PreferredMessenger))
	fmt.Fprintf(&b, "🗓️ <b>Дата:</b> %s\n", esc(req.Date))
	fmt.Fprintf(&b, "🕒 <b>Час:</b> %s\n", esc(req.Time))
	fmt.Fprintf(&b, "❓ <b>Питання:</b> %s\n", esc(req.Question))
	fmt.Fprintf(&b, "💬 <b>Telegram:</b> %s (ID: <code>%d</code>)\n", esc(req.Contact), userID)
	fmt.Fprintf(&b, "⏰ <b>Час запису:</b> %s", esc(s.stamp(req.CreatedAt)))

	s.send(ctx, "booking", b.String())
}

// NotifyCancellation - пользователь отменил запись
func (s *NotificationService) NotifyCancellation(ctx context.Context, name, handle string, userID int64, ref model.BookingRef) {
	var b strings.Builder
	b.WriteString("❌ <b>Клієнт скасував запис</b>\n\n")
	fmt.Fprintf(&b, "👤 <b>Ім'я:</b> %s\n", esc(name))
	fmt.Fprintf(&b, "🗓️ <b>Дата:</b> %s\n", esc(ref.Date))
	fmt.Fprintf(&b, "🕒 <b>Час:</b> %s\n", esc(ref.Time))
	fmt.Fprintf(&b, "📄 <b>Рядок у таблиці:</b> %d\n", ref.Row)
	fmt.Fprintf(&b, "💬 <b>Telegram:</b> %s (ID: <code>%d</code>)", esc(handle), userID)

	s.send(ctx, "cancellation", b.String())
}

// Wait дожидается отправки всех уведомлений (остановка процесса, тесты)
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) send(ctx context.Context, kind, text string) {
	if !s.Enabled() {
		metrics.Notifications.WithLabelValues(kind, "disabled").Inc()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Уведомление не должно обрываться вместе с обработкой события
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
		defer cancel()

		err := s.messenger.Send(sendCtx, messaging.Message{
			ChatID: s.adminChatID,
			Text:   text,
			HTML:   true,
		})
		if err != nil {
			metrics.Notifications.WithLabelValues(kind, "error").Inc()
			s.logger.Error("Failed to notify operator",
				zap.String("kind", kind),
				zap.Int64("admin_chat_id", s.adminChatID),
				zap.Error(err))
			return
		}

		metrics.Notifications.WithLabelValues(kind, "ok").Inc()
		s.logger.Debug("Operator notified", zap.String("kind", kind))
	}()
}

func (s *NotificationService) stamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.In(s.loc).Format(model.TimestampLayout)
}

func contactKind(recordType string) string {
	if recordType == model.RecordContactShared {
		return "контакт пошарено"
	}
	return "контакт введено"
}

func esc(s string) string {
	return html.EscapeString(s)
}
