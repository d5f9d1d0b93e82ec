package model

import "time"

type RequestStatus string

const (
	RequestStatusActive          RequestStatus = "Активна"            // Заявка действует
	RequestStatusCancelledByUser RequestStatus = "Скасована клієнтом" // Отменена пользователем
)

// Метки типа записи для заявок на обратный звонок (пишутся в колонку вопроса)
const (
	RecordContactShared = "Запит на дзвінок (контакт пошарено)"
	RecordContactTyped  = "Запит на дзвінок (контакт введено)"
)

// BookingRequest - строка журнала заявок
type BookingRequest struct {
	Row                int
	Name               string
	Contact            string
	Question           string
	UserID             string
	Date               string
	Time               string
	CreatedAt          time.Time
	BookingPhone       string
	PreferredMessenger string
	Status             RequestStatus
}

// BookingRef ссылается на заявку: строка журнала плюс слот
type BookingRef struct {
	Row  int
	Date string
	Time string
}

// ActiveBooking - действующая заявка пользователя на консультацию
type ActiveBooking struct {
	Row      int
	Date     string
	Time     string
	Question string
	StartsAt time.Time
}

func (b ActiveBooking) Ref() BookingRef {
	return BookingRef{Row: b.Row, Date: b.Date, Time: b.Time}
}
