package state

import (
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/model"
)

// UserState - текущий шаг диалога
type UserState string

const (
	StateNone UserState = "" // Нет активного диалога

	StateServiceChoice UserState = "service_choice"

	// Заявка на звонок
	StateCallbackName UserState = "callback_name"
	StatePhoneNumber  UserState = "phone_number"

	// Запись на консультацию
	StateBookingName        UserState = "booking_name"
	StateDate               UserState = "date"
	StateTime               UserState = "time"
	StateQuestion           UserState = "question"
	StateBookingPhoneNumber UserState = "booking_phone_number"
	StateMessengerChoice    UserState = "messenger_choice"

	// Смена имени
	StateRenamingName UserState = "renaming_name"

	// Отмена записи
	StateListBookingsForCancellation UserState = "list_bookings_for_cancellation"
	StateConfirmCancellation         UserState = "confirm_cancellation"
)

// Flow - ветка диалога, к которой относятся собранные поля
type Flow int

const (
	FlowNone Flow = iota
	FlowCallback
	FlowBooking
	FlowCancellation
)

// AfterName - что делать после ввода имени
type AfterName int

const (
	AfterNameDefault AfterName = iota
	AfterNameCancellation
)

// Session - состояние диалога одного пользователя.
// Только значения без указателей: копия сессии не разделяет данные с оригиналом.
type Session struct {
	UserID int64
	ChatID int64
	State  UserState
	Flow   Flow

	Name               string
	Contact            string
	SelectedDate       string
	SelectedTime       string
	Question           string
	BookingPhone       string
	PreferredMessenger string

	AfterName AfterName
	// HoldsSlot - слот SelectedDate/SelectedTime занят этой сессией, но заявка ещё не записана
	HoldsSlot bool
	// Cancellation - запись, выбранная для отмены (Row == 0 - не выбрана)
	Cancellation model.BookingRef

	UpdatedAt time.Time
}

// Reset стирает поля диалога, сохраняя идентификаторы и имя
func (s *Session) Reset(state UserState) {
	*s = Session{
		UserID: s.UserID,
		ChatID: s.ChatID,
		Name:   s.Name,
		State:  state,
	}
}
