package handlers

import (
	"fmt"

	"github.com/Freeeeeet/consultation_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/consultation_bot/internal/controller/state"
	"go.uber.org/zap"
)

// handleStart обрабатывает команду /start: новый диалог с выбора услуги
func (h *Handlers) handleStart(hc *HandlerContext) {
	hc.clear()
	h.enterServiceChoice(hc)
}

// handleRename обрабатывает команду /rename
func (h *Handlers) handleRename(hc *HandlerContext) {
	hc.clear()

	name := h.userService.ResolveName(hc.Ctx, hc.Event.UserID)
	if name == "" {
		hc.reply("Ви ще не вказували своє ім'я. Почніть з команди /start, щоб записатися на консультацію або залишити контакт.", nil)
		return
	}

	hc.Session.Name = name
	hc.Session.State = state.StateRenamingName
	hc.reply(fmt.Sprintf("Ваше поточне ім'я: <b>%s</b>\n\nВведіть нове ім'я:", esc(name)), nil)
}

// acceptRename сохраняет новое имя; ошибку записи видит пользователь
func (h *Handlers) acceptRename(hc *HandlerContext, name string) {
	if msg, ok := validateName(name); !ok {
		hc.reply(msg, nil)
		return
	}

	if err := h.userService.Rename(hc.Ctx, hc.Event.UserID, hc.handle(), name); err != nil {
		hc.Logger.Error("Failed to rename client", zap.Error(err))
		hc.fail("Вибачте, не вдалося змінити ім'я.")
		return
	}

	hc.clear()
	hc.reply(fmt.Sprintf("Ваше ім'я успішно змінено на: <b>%s</b>", esc(name)), nil)
}

// handleCancel обрабатывает команду /cancel
func (h *Handlers) handleCancel(hc *HandlerContext) {
	if hc.Session.State == state.StateNone {
		hc.reply("Немає активної дії для скасування.", nil)
		return
	}

	hc.clear()
	hc.reply("Дію скасовано. Щоб почати знову, надішліть /start.", keyboard.RemoveReply())
}

// handleHelp обрабатывает команду /help
func (h *Handlers) handleHelp(hc *HandlerContext) {
	hc.reply("📚 <b>Довідка</b>\n\n"+
		"/start - обрати послугу: залишити контакт, записатися на консультацію або скасувати запис\n"+
		"/rename - змінити збережене ім'я\n"+
		"/cancel - перервати поточну дію\n"+
		"/help - показати цю довідку", nil)
}

// handleExpire завершает диалог, брошенный пользователем
func (h *Handlers) handleExpire(hc *HandlerContext) {
	s := hc.Session
	if s.State == state.StateNone || s.UpdatedAt.After(hc.Event.IdleCutoff) {
		return
	}

	// Завершённый сценарий: пользователь ничего не ждёт, сообщать не о чем
	if s.State == state.StateServiceChoice && !s.HoldsSlot {
		hc.Logger.Debug("Idle session dropped", zap.Time("updated_at", s.UpdatedAt))
		hc.clear()
		return
	}

	hc.Logger.Info("Session expired", zap.Time("updated_at", s.UpdatedAt))
	hc.clear()
	hc.reply("Час очікування відповіді минув, діалог завершено. Щоб почати знову, надішліть /start.", keyboard.RemoveReply())
}
