package callbacks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/consultation_bot/internal/model"
)

// ========================
// Callback Data Patterns
// ========================

// Service choice
const (
	AskContactData       = "ask_contact"
	BookConsultationData = "book_consultation"
	CancelMyBookingData  = "cancel_my_booking_start"
	MainMenuData         = "main_menu_start"
)

// Booking flow
const (
	DatePrefix      = "date_"      // date_10.05.2025
	TimePrefix      = "time_"      // time_14:00
	MessengerPrefix = "messenger_" // messenger_viber

	BackToServiceChoiceData = "back_to_service_choice_from_date"
	BackToDateSelectionData = "back_to_date_selection"
	BackToBookingPhoneData  = "back_to_booking_phone"
)

// Cancellation flow
const (
	CancelSelectedPrefix      = "cancel_selected_booking_"  // cancel_selected_booking_12_10.05.2025_14:00
	ConfirmCancellationPrefix = "confirm_cancellation_yes_" // confirm_cancellation_yes_12_10.05.2025_14:00
	KeepBookingData           = "confirm_cancellation_no"
)

var ErrUnknownAction = errors.New("unknown callback action")

// Action - нажатие inline-кнопки, разобранное из callback data.
// Набор реализаций закрыт: все они объявлены в этом пакете.
type Action interface {
	Data() string
	action()
}

type (
	AskContact          struct{}
	BookConsultation    struct{}
	CancelMyBooking     struct{}
	MainMenu            struct{}
	BackToServiceChoice struct{}
	BackToDateSelection struct{}
	BackToBookingPhone  struct{}
	KeepBooking         struct{}

	SelectDate          struct{ Date string }
	SelectTime          struct{ Time string }
	SelectMessenger     struct{ Key string }
	SelectBooking       struct{ Ref model.BookingRef }
	ConfirmCancellation struct{ Ref model.BookingRef }
)

func (AskContact) Data() string          { return AskContactData }
func (BookConsultation) Data() string    { return BookConsultationData }
func (CancelMyBooking) Data() string     { return CancelMyBookingData }
func (MainMenu) Data() string            { return MainMenuData }
func (BackToServiceChoice) Data() string { return BackToServiceChoiceData }
func (BackToDateSelection) Data() string { return BackToDateSelectionData }
func (BackToBookingPhone) Data() string  { return BackToBookingPhoneData }
func (KeepBooking) Data() string         { return KeepBookingData }

func (a SelectDate) Data() string      { return DatePrefix + a.Date }
func (a SelectTime) Data() string      { return TimePrefix + a.Time }
func (a SelectMessenger) Data() string { return MessengerPrefix + a.Key }
func (a SelectBooking) Data() string   { return CancelSelectedPrefix + encodeRef(a.Ref) }
func (a ConfirmCancellation) Data() string {
	return ConfirmCancellationPrefix + encodeRef(a.Ref)
}

func (AskContact) action()          {}
func (BookConsultation) action()    {}
func (CancelMyBooking) action()     {}
func (MainMenu) action()            {}
func (BackToServiceChoice) action() {}
func (BackToDateSelection) action() {}
func (BackToBookingPhone) action()  {}
func (KeepBooking) action()         {}
func (SelectDate) action()          {}
func (SelectTime) action()          {}
func (SelectMessenger) action()     {}
func (SelectBooking) action()       {}
func (ConfirmCancellation) action() {}

var exact = map[string]Action{
	AskContactData:          AskContact{},
	BookConsultationData:    BookConsultation{},
	CancelMyBookingData:     CancelMyBooking{},
	MainMenuData:            MainMenu{},
	BackToServiceChoiceData: BackToServiceChoice{},
	BackToDateSelectionData: BackToDateSelection{},
	BackToBookingPhoneData:  BackToBookingPhone{},
	KeepBookingData:         KeepBooking{},
}

// Decode разбирает callback data в Action
func Decode(data string) (Action, error) {
	if a, ok := exact[data]; ok {
		return a, nil
	}

	switch {
	case strings.HasPrefix(data, ConfirmCancellationPrefix):
		ref, err := decodeRef(strings.TrimPrefix(data, ConfirmCancellationPrefix))
		if err != nil {
			return nil, err
		}
		return ConfirmCancellation{Ref: ref}, nil

	case strings.HasPrefix(data, CancelSelectedPrefix):
		ref, err := decodeRef(strings.TrimPrefix(data, CancelSelectedPrefix))
		if err != nil {
			return nil, err
		}
		return SelectBooking{Ref: ref}, nil

	case strings.HasPrefix(data, DatePrefix):
		if v := strings.TrimPrefix(data, DatePrefix); v != "" {
			return SelectDate{Date: v}, nil
		}

	case strings.HasPrefix(data, TimePrefix):
		if v := strings.TrimPrefix(data, TimePrefix); v != "" {
			return SelectTime{Time: v}, nil
		}

	case strings.HasPrefix(data, MessengerPrefix):
		if v := strings.TrimPrefix(data, MessengerPrefix); v != "" {
			return SelectMessenger{Key: v}, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
}

// encodeRef: <row>_<date>_<time>
func encodeRef(ref model.BookingRef) string {
	return fmt.Sprintf("%d_%s_%s", ref.Row, ref.Date, ref.Time)
}

func decodeRef(s string) (model.BookingRef, error) {
	parts := strings.SplitN(s, "_", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return model.BookingRef{}, fmt.Errorf("%w: booking reference %q", ErrUnknownAction, s)
	}

	row, err := strconv.Atoi(parts[0])
	if err != nil || row <= 0 {
		return model.BookingRef{}, fmt.Errorf("%w: booking row %q", ErrUnknownAction, parts[0])
	}

	return model.BookingRef{Row: row, Date: parts[1], Time: parts[2]}, nil
}
