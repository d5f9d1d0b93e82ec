package handlers

import (
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/consultation_bot/internal/controller/state"
	"github.com/Freeeeeet/consultation_bot/internal/messaging"
	"github.com/Freeeeeet/consultation_bot/internal/service"
	"go.uber.org/zap"
)

// EventKind - тип входящего события
type EventKind int

const (
	EventStart EventKind = iota
	EventRename
	EventCancel
	EventHelp
	EventText
	EventContact
	EventButton
	EventExpire
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventRename:
		return "rename"
	case EventCancel:
		return "cancel"
	case EventHelp:
		return "help"
	case EventText:
		return "text"
	case EventContact:
		return "contact"
	case EventButton:
		return "button"
	case EventExpire:
		return "expire"
	}
	return "unknown"
}

// Event - входящее событие диалога, уже разобранное из обновления Telegram
type Event struct {
	ID       string
	Kind     EventKind
	UserID   int64
	ChatID   int64
	Username string
	// MessageID - сообщение с нажатой кнопкой (для EventButton)
	MessageID int
	Text      string
	Phone     string
	Action    callbacks.Action
	// IdleCutoff - для EventExpire: сессия истекает, если не менялась после этого момента
	IdleCutoff time.Time
}

// Options - тексты, которые задаются конфигурацией
type Options struct {
	ConsultantContact string
	PaymentDetails    string
	WindowDays        int
}

// Handlers - диалоговый движок: переводит сессию по шагам в ответ на события
type Handlers struct {
	userService    *service.UserService
	bookingService *service.BookingService
	notifications  *service.NotificationService
	stateManager   *state.Manager
	messenger      messaging.Messenger
	opts           Options
	logger         *zap.Logger
}

// NewHandlers создаёт диалоговый движок
func NewHandlers(
	userService *service.UserService,
	bookingService *service.BookingService,
	notifications *service.NotificationService,
	stateManager *state.Manager,
	messenger messaging.Messenger,
	opts Options,
	logger *zap.Logger,
) *Handlers {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 7
	}

	return &Handlers{
		userService:    userService,
		bookingService: bookingService,
		notifications:  notifications,
		stateManager:   stateManager,
		messenger:      messenger,
		opts:           opts,
		logger:         logger,
	}
}
