package handlers

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/consultation_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/go-telegram/bot/models"
)

var weekdayShort = [...]string{"Нд", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

func serviceChoiceKeyboard() *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(keyboard.Button("📞 Залишити контакт", callbacks.AskContact{})).
		Row(keyboard.Button("📅 Записатися на консультацію", callbacks.BookConsultation{})).
		Row(keyboard.Button("❌ Скасувати мій запис", callbacks.CancelMyBooking{})).
		Build()
}

func mainMenuKeyboard() *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().Row(keyboard.MainMenuButton()).Build()
}

func datesKeyboard(dates []string) *models.InlineKeyboardMarkup {
	buttons := make([]models.InlineKeyboardButton, 0, len(dates))
	for _, d := range dates {
		buttons = append(buttons, keyboard.Button(dateLabel(d), callbacks.SelectDate{Date: d}))
	}

	return keyboard.NewBuilder().
		Grid(datesPerRow, buttons...).
		Row(keyboard.BackButton(callbacks.BackToServiceChoice{})).
		Build()
}

func timesKeyboard(times []string) *models.InlineKeyboardMarkup {
	buttons := make([]models.InlineKeyboardButton, 0, len(times))
	for _, t := range times {
		buttons = append(buttons, keyboard.Button("🕐 "+t, callbacks.SelectTime{Time: t}))
	}

	return keyboard.NewBuilder().
		Grid(timesPerRow, buttons...).
		Row(keyboard.BackButton(callbacks.BackToDateSelection{})).
		Build()
}

func messengersKeyboard() *models.InlineKeyboardMarkup {
	buttons := make([]models.InlineKeyboardButton, 0, len(MessengerOptions))
	for _, m := range MessengerOptions {
		buttons = append(buttons, keyboard.Button(m.Label, callbacks.SelectMessenger{Key: m.Key}))
	}

	return keyboard.NewBuilder().
		Grid(messengersPerRow, buttons...).
		Row(keyboard.BackButton(callbacks.BackToBookingPhone{})).
		Build()
}

func bookingsKeyboard(bookings []model.ActiveBooking) *models.InlineKeyboardMarkup {
	b := keyboard.NewBuilder()
	for _, booking := range bookings {
		text := fmt.Sprintf("%s о %s", dateLabel(booking.Date), booking.Time)
		b.Row(keyboard.Button(text, callbacks.SelectBooking{Ref: booking.Ref()}))
	}
	return b.Row(keyboard.MainMenuButton()).Build()
}

func confirmCancellationKeyboard(ref model.BookingRef) *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(
			keyboard.Button("✅ Так, скасувати", callbacks.ConfirmCancellation{Ref: ref}),
			keyboard.Button("↩️ Ні, залишити", callbacks.KeepBooking{}),
		).
		Build()
}

// dateLabel добавляет к дате день недели: "Пт 16.10.2026"
func dateLabel(date string) string {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return weekdayShort[d.Weekday()] + " " + date
}
