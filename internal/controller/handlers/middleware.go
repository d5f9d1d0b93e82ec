package handlers

import (
	"context"
	"html"

	"github.com/Freeeeeet/consultation_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/consultation_bot/internal/controller/state"
	"github.com/Freeeeeet/consultation_bot/internal/messaging"
	"github.com/Freeeeeet/consultation_bot/internal/metrics"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandlerContext - контекст обработки одного события: событие, сессия и логгер с его полями
type HandlerContext struct {
	Ctx     context.Context
	Event   Event
	Session *state.Session
	Logger  *zap.Logger

	h *Handlers
}

// Handle обрабатывает событие до конца и сохраняет сессию.
// События одной сессии должны приходить сюда последовательно.
func (h *Handlers) Handle(ctx context.Context, ev Event) {
	metrics.DialogEvents.WithLabelValues(ev.Kind.String()).Inc()

	sess, ok := h.stateManager.Get(ev.UserID)
	if !ok {
		sess = state.Session{UserID: ev.UserID}
	}
	if ev.ChatID != 0 {
		sess.ChatID = ev.ChatID
	}

	hc := &HandlerContext{
		Ctx:     ctx,
		Event:   ev,
		Session: &sess,
		Logger: h.logger.With(
			zap.String("event_id", ev.ID),
			zap.String("event", ev.Kind.String()),
			zap.Int64("user_id", ev.UserID),
			zap.String("state", string(sess.State)),
		),
		h: h,
	}

	defer func() {
		if r := recover(); r != nil {
			hc.Logger.Error("Panic while handling event", zap.Any("panic", r), zap.Stack("stack"))
			hc.releaseHeldSlot()
			h.stateManager.Clear(ev.UserID)
			hc.reply(msgStateError+" "+msgRestart, keyboard.RemoveReply())
		}
	}()

	h.route(hc)
	h.stateManager.Save(sess)
}

func (h *Handlers) route(hc *HandlerContext) {
	switch hc.Event.Kind {
	case EventStart:
		h.handleStart(hc)
	case EventRename:
		h.handleRename(hc)
	case EventCancel:
		h.handleCancel(hc)
	case EventHelp:
		h.handleHelp(hc)
	case EventText:
		h.handleText(hc)
	case EventContact:
		h.handleContact(hc)
	case EventButton:
		h.handleButton(hc)
	case EventExpire:
		h.handleExpire(hc)
	default:
		hc.Logger.Warn("Unknown event kind")
	}
}

// handle возвращает @username или ID пользователя
func (hc *HandlerContext) handle() string {
	return model.UserHandle(hc.Event.Username, hc.Event.UserID)
}

// reply отправляет новое сообщение
func (hc *HandlerContext) reply(text string, markup models.ReplyMarkup) {
	hc.send(messaging.Message{ChatID: hc.Session.ChatID, Text: text, HTML: true, Markup: markup})
}

// show заменяет сообщение с нажатой кнопкой или отправляет новое
func (hc *HandlerContext) show(text string, kb *models.InlineKeyboardMarkup) {
	msg := messaging.Message{ChatID: hc.Session.ChatID, Text: text, HTML: true}
	if hc.Event.Kind == EventButton {
		msg.EditMessageID = hc.Event.MessageID
	}
	if kb != nil {
		msg.Markup = kb
	}
	hc.send(msg)
}

func (hc *HandlerContext) send(msg messaging.Message) {
	if err := hc.h.messenger.Send(hc.Ctx, msg); err != nil {
		hc.Logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.Error(err))
	}
}

// clear завершает диалог; занятый, но не оформленный слот освобождается
func (hc *HandlerContext) clear() {
	hc.releaseHeldSlot()
	*hc.Session = state.Session{UserID: hc.Session.UserID, ChatID: hc.Session.ChatID}
}

// idle возвращает сессию к выбору услуги, сохраняя имя
func (hc *HandlerContext) idle() {
	hc.releaseHeldSlot()
	hc.Session.Reset(state.StateServiceChoice)
}

func (hc *HandlerContext) releaseHeldSlot() {
	s := hc.Session
	if !s.HoldsSlot {
		return
	}
	s.HoldsSlot = false

	if !hc.h.bookingService.ReleaseSlot(hc.Ctx, s.SelectedDate, s.SelectedTime) {
		hc.Logger.Warn("Failed to release held slot",
			zap.String("date", s.SelectedDate),
			zap.String("time", s.SelectedTime))
	}
}

// fail сообщает об ошибке и сбрасывает сессию
func (hc *HandlerContext) fail(text string) {
	hc.clear()
	hc.reply(text+" "+msgRestart, keyboard.RemoveReply())
}

// stateError - в сессии нет ожидаемого поля
func (hc *HandlerContext) stateError(missing string) {
	hc.Logger.Warn("Session state is inconsistent", zap.String("missing", missing))
	hc.fail(msgStateError)
}

// reprompt отвечает на ввод, который текущий шаг не принимает; шаг не меняется
func (hc *HandlerContext) reprompt() {
	switch {
	case hc.Session.State == state.StateNone:
		hc.reply(msgUnknown, nil)
	case hc.Event.Kind == EventButton:
		hc.reply(msgStaleButton, nil)
	default:
		hc.reply(msgUseButtons, nil)
	}
}

func esc(s string) string {
	return html.EscapeString(s)
}
