package handlers

import (
	"fmt"

	"github.com/Freeeeeet/consultation_bot/internal/controller/state"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/Freeeeeet/consultation_bot/internal/service"
	"go.uber.org/zap"
)

// listBookings показывает будущие записи пользователя для отмены
func (h *Handlers) listBookings(hc *HandlerContext) {
	bookings, err := h.bookingService.ActiveBookings(hc.Ctx, hc.Event.UserID, hc.handle())
	if err != nil {
		hc.Logger.Error("Failed to load active bookings", zap.Error(err))
		hc.fail(msgBookingsError)
		return
	}

	s := hc.Session
	s.Cancellation = model.BookingRef{}

	if len(bookings) == 0 {
		s.Reset(state.StateServiceChoice)
		hc.show("У вас немає активних записів на консультацію.", serviceChoiceKeyboard())
		return
	}

	s.Flow = state.FlowCancellation
	s.State = state.StateListBookingsForCancellation
	hc.show("Оберіть запис, який бажаєте скасувати:", bookingsKeyboard(bookings))
}

// askCancellationConfirm запоминает выбранную запись и просит подтверждение
func (h *Handlers) askCancellationConfirm(hc *HandlerContext, ref model.BookingRef) {
	hc.Session.Cancellation = ref
	hc.Session.State = state.StateConfirmCancellation
	hc.show(fmt.Sprintf("Ви впевнені, що хочете скасувати запис на <b>%s</b> о <b>%s</b>?",
		esc(dateLabel(ref.Date)), esc(ref.Time)), confirmCancellationKeyboard(ref))
}

// keepBooking - пользователь передумал: снова список записей
func (h *Handlers) keepBooking(hc *HandlerContext) {
	h.listBookings(hc)
}

// applyCancellation отменяет запись, выбранную на предыдущем шаге
func (h *Handlers) applyCancellation(hc *HandlerContext, ref model.BookingRef) {
	s := hc.Session
	if s.Cancellation.Row == 0 {
		hc.stateError("cancellation")
		return
	}
	if s.Cancellation != ref {
		hc.Logger.Info("Confirmation for a different booking",
			zap.Int("selected_row", s.Cancellation.Row),
			zap.Int("confirmed_row", ref.Row))
		hc.reprompt()
		return
	}

	outcome, err := h.bookingService.CancelBooking(hc.Ctx, hc.Event.UserID, hc.handle(), ref)
	if err != nil {
		hc.Logger.Error("Failed to cancel booking", zap.Error(err))
		hc.fail("Вибачте, не вдалося скасувати запис.")
		return
	}

	var text string
	switch outcome {
	case service.CancelApplied:
		h.notifications.NotifyCancellation(hc.Ctx, s.Name, hc.handle(), hc.Event.UserID, ref)
		text = fmt.Sprintf("✅ Ваш запис на <b>%s</b> о <b>%s</b> скасовано.", esc(dateLabel(ref.Date)), esc(ref.Time))
	case service.CancelSlotMismatch:
		text = "⚠️ Не вдалося скасувати запис: статус слоту в розкладі вже змінено. Будь ласка, зв'яжіться з нами напряму."
	default:
		text = "⚠️ Цей запис не знайдено або він уже скасований."
	}

	hc.idle()
	hc.show(text, mainMenuKeyboard())
}
