package controller

import (
	"context"
	"strings"

	"github.com/Freeeeeet/consultation_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/consultation_bot/internal/controller/handlers"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventDispatcher принимает разобранные события
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev handlers.Event)
}

// UpdateRouter превращает обновления Telegram в события диалога
type UpdateRouter struct {
	dispatcher EventDispatcher
	logger     *zap.Logger
}

func NewUpdateRouter(dispatcher EventDispatcher, logger *zap.Logger) *UpdateRouter {
	return &UpdateRouter{dispatcher: dispatcher, logger: logger}
}

var commandKinds = map[string]handlers.EventKind{
	"/start":  handlers.EventStart,
	"/rename": handlers.EventRename,
	"/cancel": handlers.EventCancel,
	"/help":   handlers.EventHelp,
}

// HandleUpdate - обработчик обновлений для bot.Bot
func (r *UpdateRouter) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil && b != nil {
		// Ответ на нажатие не ждёт очереди, иначе кнопка "висит"
		go r.answerCallback(context.WithoutCancel(ctx), b, update.CallbackQuery.ID)
	}

	ev, ok := r.EventFromUpdate(update)
	if !ok {
		r.logger.Debug("Ignoring update", zap.Int64("update_id", update.ID))
		return
	}

	r.dispatcher.Dispatch(ctx, ev)
}

// EventFromUpdate разбирает обновление; false - обновление не относится к диалогу
func (r *UpdateRouter) EventFromUpdate(update *models.Update) (handlers.Event, bool) {
	switch {
	case update.Message != nil:
		return r.fromMessage(update.Message)
	case update.CallbackQuery != nil:
		return r.fromCallback(update.CallbackQuery)
	}
	return handlers.Event{}, false
}

func (r *UpdateRouter) fromMessage(msg *models.Message) (handlers.Event, bool) {
	if msg.From == nil || msg.From.IsBot {
		return handlers.Event{}, false
	}

	ev := handlers.Event{
		ID:       uuid.NewString(),
		Kind:     handlers.EventText,
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: msg.From.Username,
		Text:     msg.Text,
	}

	if msg.Contact != nil {
		ev.Kind = handlers.EventContact
		ev.Phone = msg.Contact.PhoneNumber
		return ev, true
	}

	if kind, ok := commandKinds[commandName(msg.Text)]; ok {
		ev.Kind = kind
	}
	return ev, true
}

func (r *UpdateRouter) fromCallback(cq *models.CallbackQuery) (handlers.Event, bool) {
	ev := handlers.Event{
		ID:       uuid.NewString(),
		Kind:     handlers.EventButton,
		UserID:   cq.From.ID,
		ChatID:   cq.From.ID,
		Username: cq.From.Username,
	}

	if msg := cq.Message.Message; msg != nil {
		ev.ChatID = msg.Chat.ID
		ev.MessageID = msg.ID
	}

	action, err := callbacks.Decode(cq.Data)
	if err != nil {
		r.logger.Info("Failed to decode callback data",
			zap.String("data", cq.Data),
			zap.Int64("user_id", cq.From.ID),
			zap.Error(err))
		// Событие всё равно уходит в диалог: пользователь получит подсказку
	}
	ev.Action = action

	return ev, true
}

func (r *UpdateRouter) answerCallback(ctx context.Context, b *bot.Bot, id string) {
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: id,
	}); err != nil {
		r.logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}

// commandName возвращает "/start" для "/start@my_bot payload"
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}
