// Package messaging отправляет исходящие сообщения в чат.
package messaging

import (
	"context"

	"github.com/go-telegram/bot/models"
)

// Message - исходящее сообщение
type Message struct {
	ChatID int64
	// EditMessageID - сообщение с кнопками, которое нужно заменить; 0 - отправить новое
	EditMessageID int
	Text          string
	HTML          bool
	Markup        models.ReplyMarkup
}

// Messenger доставляет сообщения пользователю или оператору
type Messenger interface {
	Send(ctx context.Context, msg Message) error
}
