package messaging

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Telegram отправляет сообщения через Bot API
type Telegram struct {
	bot    *bot.Bot
	logger *zap.Logger
}

func NewTelegram(b *bot.Bot, logger *zap.Logger) *Telegram {
	return &Telegram{bot: b, logger: logger}
}

// Send редактирует сообщение с inline-кнопками, если это возможно, иначе отправляет новое
func (t *Telegram) Send(ctx context.Context, msg Message) error {
	var parseMode models.ParseMode
	if msg.HTML {
		parseMode = models.ParseModeHTML
	}

	if msg.EditMessageID != 0 && editable(msg.Markup) {
		params := &bot.EditMessageTextParams{
			ChatID:    msg.ChatID,
			MessageID: msg.EditMessageID,
			Text:      msg.Text,
			ParseMode: parseMode,
		}
		if msg.Markup != nil {
			params.ReplyMarkup = msg.Markup
		}

		_, err := t.bot.EditMessageText(ctx, params)
		// "message is not modified" - не ошибка
		if err == nil || isMessageNotModified(err) {
			return nil
		}
		t.logger.Debug("Failed to edit message, sending a new one",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int("message_id", msg.EditMessageID),
			zap.Error(err))
	}

	params := &bot.SendMessageParams{
		ChatID:    msg.ChatID,
		Text:      msg.Text,
		ParseMode: parseMode,
	}
	if msg.Markup != nil {
		params.ReplyMarkup = msg.Markup
	}

	_, err := t.bot.SendMessage(ctx, params)
	return err
}

// editable: редактировать можно только сообщения без клавиатуры или с inline-клавиатурой
func editable(markup models.ReplyMarkup) bool {
	if markup == nil {
		return true
	}
	_, ok := markup.(*models.InlineKeyboardMarkup)
	return ok
}

func isMessageNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
