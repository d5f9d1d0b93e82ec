package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Freeeeeet/consultation_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/consultation_bot/internal/controller/state"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"go.uber.org/zap"
)

// showDates показывает даты со свободными слотами; note выводится перед списком
func (h *Handlers) showDates(hc *HandlerContext, note string) {
	slots, err := h.bookingService.ListFreeSlots(hc.Ctx)
	if err != nil {
		hc.Logger.Error("Failed to list free slots", zap.Error(err))
		hc.fail(msgSlotsError)
		return
	}

	s := hc.Session
	s.SelectedDate = ""
	s.SelectedTime = ""

	if slots.Empty() {
		hc.Logger.Info("No free slots in booking window")
		s.Reset(state.StateServiceChoice)
		hc.show(fmt.Sprintf("%sНа жаль, на найближчі %d %s вільних слотів немає. Спробуйте пізніше або залиште контакт, і ми вам зателефонуємо.",
			notePrefix(note), h.opts.WindowDays, pluralDays(h.opts.WindowDays)), serviceChoiceKeyboard())
		return
	}

	s.State = state.StateDate
	hc.show(notePrefix(note)+msgChooseDate, datesKeyboard(slots.Dates()))
}

// selectDate проверяет по свежему списку, что на дату ещё есть время
func (h *Handlers) selectDate(hc *HandlerContext, date string) {
	slots, err := h.bookingService.ListFreeSlots(hc.Ctx)
	if err != nil {
		hc.Logger.Error("Failed to list free slots", zap.Error(err))
		hc.fail(msgSlotsError)
		return
	}

	times := slots.TimesFor(date)
	if len(times) == 0 {
		hc.Logger.Info("Selected date has no free times", zap.String("date", date))
		if slots.Empty() {
			h.showDates(hc, "")
			return
		}
		hc.show("⚠️ На жаль, на "+esc(dateLabel(date))+" вже немає вільного часу.\n\n"+msgChooseDate, datesKeyboard(slots.Dates()))
		return
	}

	hc.Session.SelectedDate = date
	hc.Session.State = state.StateTime
	hc.show(fmt.Sprintf("📅 Дата: <b>%s</b>\nОберіть зручний час:", esc(dateLabel(date))), timesKeyboard(times))
}

// selectTime занимает слот, если он всё ещё свободен и входит в окно записи;
// иначе показывает, что осталось
func (h *Handlers) selectTime(hc *HandlerContext, tm string) {
	s := hc.Session
	if s.SelectedDate == "" {
		hc.stateError("selected_date")
		return
	}

	slots, err := h.bookingService.ListFreeSlots(hc.Ctx)
	if err != nil {
		hc.Logger.Error("Failed to list free slots", zap.Error(err))
		hc.fail(msgSlotsError)
		return
	}

	if !slots.Has(s.SelectedDate, tm) {
		hc.Logger.Info("Selected time is no longer offered",
			zap.String("date", s.SelectedDate),
			zap.String("time", tm))
		h.showRemainingTimes(hc, slots)
		return
	}

	if h.bookingService.ReserveSlot(hc.Ctx, s.SelectedDate, tm) {
		s.SelectedTime = tm
		s.HoldsSlot = true
		s.State = state.StateQuestion
		hc.show(fmt.Sprintf("✅ Ви обрали <b>%s</b> о <b>%s</b>.\n\n%s",
			esc(dateLabel(s.SelectedDate)), esc(tm), msgAskQuestion), nil)
		return
	}

	hc.Logger.Info("Slot reservation failed",
		zap.String("date", s.SelectedDate),
		zap.String("time", tm))

	// Неудачная попытка сбрасывает кэш: список перечитывается
	if slots, err = h.bookingService.ListFreeSlots(hc.Ctx); err != nil {
		hc.Logger.Error("Failed to list free slots", zap.Error(err))
		hc.fail(msgSlotsError)
		return
	}
	h.showRemainingTimes(hc, slots)
}

func (h *Handlers) showRemainingTimes(hc *HandlerContext, slots model.FreeSlots) {
	const taken = "⚠️ На жаль, цей час вже недоступний."
	if times := slots.TimesFor(hc.Session.SelectedDate); len(times) > 0 {
		hc.show(taken+" Оберіть інший час:", timesKeyboard(times))
		return
	}
	h.showDates(hc, taken+" На цю дату вільного часу більше немає.")
}

// acceptQuestion сохраняет вопрос и спрашивает телефон для связи
func (h *Handlers) acceptQuestion(hc *HandlerContext, question string) {
	switch n := utf8.RuneCountInString(question); {
	case n == 0:
		hc.reply(msgEmptyQuestion, nil)
		return
	case n > QuestionMaxLength:
		hc.reply(msgQuestionTooLong, nil)
		return
	}

	hc.Session.Question = question
	h.askBookingPhone(hc)
}

func (h *Handlers) askBookingPhone(hc *HandlerContext) {
	hc.Session.State = state.StateBookingPhoneNumber
	hc.reply("Вкажіть номер телефону для зв'язку: поділіться ним кнопкою нижче або введіть вручну.", keyboard.ShareContact())
}

// acceptBookingPhone сохраняет телефон и предлагает выбрать месенджер
func (h *Handlers) acceptBookingPhone(hc *HandlerContext, phone string) {
	if phone == "" {
		hc.reply(msgEmptyPhone, keyboard.ShareContact())
		return
	}
	if utf8.RuneCountInString(phone) > PhoneMaxLength {
		hc.reply("Номер занадто довгий. "+msgEmptyPhone, keyboard.ShareContact())
		return
	}

	hc.Session.BookingPhone = phone
	hc.Session.State = state.StateMessengerChoice
	// Reply-клавиатуру можно убрать только отдельным сообщением
	hc.reply("Дякую, номер збережено.", keyboard.RemoveReply())
	hc.reply(msgChooseMessenger, messengersKeyboard())
}

// finishBooking записывает заявку на консультацию
func (h *Handlers) finishBooking(hc *HandlerContext, messengerKey string) {
	label, ok := messengerLabel(messengerKey)
	if !ok {
		hc.reprompt()
		return
	}

	s := hc.Session
	if s.SelectedDate == "" || s.SelectedTime == "" || !s.HoldsSlot {
		hc.stateError("reserved_slot")
		return
	}
	s.PreferredMessenger = label

	req := &model.BookingRequest{
		Name:               s.Name,
		Contact:            hc.handle(),
		Question:           s.Question,
		UserID:             strconv.FormatInt(hc.Event.UserID, 10),
		Date:               s.SelectedDate,
		Time:               s.SelectedTime,
		BookingPhone:       s.BookingPhone,
		PreferredMessenger: label,
	}

	if err := h.bookingService.SubmitBooking(hc.Ctx, req); err != nil {
		hc.Logger.Error("Failed to record booking", zap.Error(err))
		hc.fail(msgSaveError)
		return
	}

	// Заявка записана: слот больше не считается удерживаемым
	s.HoldsSlot = false
	h.notifications.NotifyBooking(hc.Ctx, req, hc.Event.UserID)

	var text strings.Builder
	fmt.Fprintf(&text, "🎉 <b>Ви успішно записані на консультацію!</b>\n\n📅 %s\n🕐 %s\n💬 %s\n📱 %s",
		esc(dateLabel(req.Date)), esc(req.Time), esc(label), esc(req.BookingPhone))
	if h.opts.ConsultantContact != "" {
		fmt.Fprintf(&text, "\n\n👤 Контакти консультанта:\n%s", esc(h.opts.ConsultantContact))
	}
	if h.opts.PaymentDetails != "" {
		fmt.Fprintf(&text, "\n\n💳 Реквізити для оплати:\n%s", esc(h.opts.PaymentDetails))
	}
	text.WriteString("\n\nМи зв'яжемося з вами перед консультацією.")

	hc.show(text.String(), nil)
	hc.idle()
	hc.reply(msgBackToMenu, mainMenuKeyboard())
}

func notePrefix(note string) string {
	if note == "" {
		return ""
	}
	return note + "\n\n"
}
