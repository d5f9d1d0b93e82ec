package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Freeeeeet/consultation_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/consultation_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/consultation_bot/internal/controller/state"
	"github.com/Freeeeeet/consultation_bot/internal/service"
	"go.uber.org/zap"
)

// handleText обрабатывает текстовые сообщения в зависимости от шага диалога
func (h *Handlers) handleText(hc *HandlerContext) {
	text := strings.TrimSpace(hc.Event.Text)

	switch hc.Session.State {
	case state.StateCallbackName, state.StateBookingName:
		h.acceptName(hc, text)
	case state.StatePhoneNumber:
		h.recordContact(hc, text, false)
	case state.StateQuestion:
		h.acceptQuestion(hc, text)
	case state.StateBookingPhoneNumber:
		h.acceptBookingPhone(hc, text)
	case state.StateRenamingName:
		h.acceptRename(hc, text)
	default:
		hc.reprompt()
	}
}

// handleContact обрабатывает отправленный кнопкой номер телефона
func (h *Handlers) handleContact(hc *HandlerContext) {
	phone := strings.TrimSpace(hc.Event.Phone)

	switch hc.Session.State {
	case state.StatePhoneNumber:
		h.recordContact(hc, phone, true)
	case state.StateBookingPhoneNumber:
		h.acceptBookingPhone(hc, phone)
	default:
		hc.reprompt()
	}
}

// handleButton направляет нажатие кнопки; кнопка не своего шага получает повторную подсказку
func (h *Handlers) handleButton(hc *HandlerContext) {
	current := hc.Session.State
	expect := func(states ...state.UserState) bool {
		for _, s := range states {
			if current == s {
				return true
			}
		}
		hc.Logger.Info("Button pressed in unexpected state",
			zap.String("action", hc.Event.Action.Data()))
		hc.reprompt()
		return false
	}

	switch a := hc.Event.Action.(type) {
	case callbacks.MainMenu:
		hc.clear()
		h.enterServiceChoice(hc)

	case callbacks.AskContact:
		if expect(state.StateServiceChoice) {
			h.startContactFlow(hc)
		}
	case callbacks.BookConsultation:
		if expect(state.StateServiceChoice) {
			h.startBookingFlow(hc)
		}
	case callbacks.CancelMyBooking:
		if expect(state.StateServiceChoice) {
			h.startCancellationFlow(hc)
		}

	case callbacks.SelectDate:
		if expect(state.StateDate) {
			h.selectDate(hc, a.Date)
		}
	case callbacks.BackToServiceChoice:
		if expect(state.StateDate) {
			hc.Session.SelectedDate = ""
			h.enterServiceChoice(hc)
		}
	case callbacks.SelectTime:
		if expect(state.StateTime) {
			h.selectTime(hc, a.Time)
		}
	case callbacks.BackToDateSelection:
		if expect(state.StateTime) {
			hc.Session.SelectedDate = ""
			h.showDates(hc, "")
		}
	case callbacks.SelectMessenger:
		if expect(state.StateMessengerChoice) {
			h.finishBooking(hc, a.Key)
		}
	case callbacks.BackToBookingPhone:
		if expect(state.StateMessengerChoice) {
			hc.Session.BookingPhone = ""
			h.askBookingPhone(hc)
		}

	case callbacks.SelectBooking:
		if expect(state.StateListBookingsForCancellation) {
			h.askCancellationConfirm(hc, a.Ref)
		}
	case callbacks.ConfirmCancellation:
		if expect(state.StateConfirmCancellation) {
			h.applyCancellation(hc, a.Ref)
		}
	case callbacks.KeepBooking:
		if expect(state.StateConfirmCancellation) {
			h.keepBooking(hc)
		}

	default:
		hc.reprompt()
	}
}

// enterServiceChoice показывает выбор услуги; имя подтягивается из справочника, если его нет в сессии
func (h *Handlers) enterServiceChoice(hc *HandlerContext) {
	s := hc.Session
	if s.Name == "" {
		s.Name = h.userService.ResolveName(hc.Ctx, hc.Event.UserID)
	}
	s.Reset(state.StateServiceChoice)

	greeting := "Привіт! 👋\nЯк я можу допомогти?"
	if s.Name != "" {
		greeting = fmt.Sprintf("Привіт, <b>%s</b>! 👋\nЯк я можу допомогти?", esc(s.Name))
	}

	hc.show(greeting, serviceChoiceKeyboard())
}

func (h *Handlers) startContactFlow(hc *HandlerContext) {
	hc.Session.Flow = state.FlowCallback
	if hc.Session.Name == "" {
		hc.Session.State = state.StateCallbackName
		hc.show("Щоб ми могли вам зателефонувати, будь ласка, введіть ваше ім'я:", nil)
		return
	}
	h.askPhone(hc)
}

func (h *Handlers) startBookingFlow(hc *HandlerContext) {
	hc.Session.Flow = state.FlowBooking
	if hc.Session.Name == "" {
		hc.Session.State = state.StateBookingName
		hc.Session.AfterName = state.AfterNameDefault
		hc.show("Для запису на консультацію, будь ласка, введіть ваше ім'я:", nil)
		return
	}
	h.showDates(hc, "")
}

func (h *Handlers) startCancellationFlow(hc *HandlerContext) {
	hc.Session.Flow = state.FlowCancellation
	if hc.Session.Name == "" {
		hc.Session.State = state.StateBookingName
		hc.Session.AfterName = state.AfterNameCancellation
		hc.show("Щоб знайти ваші записи, будь ласка, введіть ваше ім'я:", nil)
		return
	}
	h.listBookings(hc)
}

// acceptName запоминает имя и переходит к следующему шагу ветки
func (h *Handlers) acceptName(hc *HandlerContext, name string) {
	if msg, ok := validateName(name); !ok {
		hc.reply(msg, nil)
		return
	}

	s := hc.Session
	s.Name = name
	// Справочник имён не должен останавливать диалог: ошибка уже залогирована сервисом
	_ = h.userService.RememberName(hc.Ctx, hc.Event.UserID, hc.handle(), name)

	if s.State == state.StateCallbackName {
		h.askPhone(hc)
		return
	}

	if s.AfterName == state.AfterNameCancellation {
		s.AfterName = state.AfterNameDefault
		h.listBookings(hc)
		return
	}
	h.showDates(hc, "")
}

func (h *Handlers) askPhone(hc *HandlerContext) {
	hc.Session.State = state.StatePhoneNumber
	hc.reply(fmt.Sprintf("Дякую, %s! Будь ласка, поділіться номером телефону кнопкою нижче або введіть його вручну:",
		esc(hc.Session.Name)), keyboard.ShareContact())
}

// recordContact записывает заявку на звонок и возвращает к выбору услуги
func (h *Handlers) recordContact(hc *HandlerContext, contact string, shared bool) {
	if contact == "" {
		hc.reply(msgEmptyPhone, keyboard.ShareContact())
		return
	}
	if utf8.RuneCountInString(contact) > PhoneMaxLength {
		hc.reply("Номер занадто довгий. "+msgEmptyPhone, keyboard.ShareContact())
		return
	}

	s := hc.Session
	if s.Name == "" {
		hc.stateError("name")
		return
	}
	s.Contact = contact

	req, err := h.bookingService.SubmitContactRequest(hc.Ctx, service.ContactRequest{
		UserID: hc.Event.UserID,
		Handle: hc.handle(),
		Name:   s.Name,
		Phone:  contact,
		Shared: shared,
	})
	if err != nil {
		hc.Logger.Error("Failed to record contact request", zap.Error(err))
		hc.fail(msgSaveError)
		return
	}

	h.notifications.NotifyContactRequest(hc.Ctx, req, hc.Event.UserID)

	hc.reply(fmt.Sprintf("Дякуємо, %s! Ваш контакт (<code>%s</code>) отримано. Ми зв'яжемося з вами найближчим часом.",
		esc(s.Name), esc(contact)), keyboard.RemoveReply())
	hc.idle()
	hc.reply(msgBackToMenu, mainMenuKeyboard())
}

func validateName(name string) (string, bool) {
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return msgEmptyName, false
	case n > NameMaxLength:
		return msgNameTooLong, false
	}
	return "", true
}
