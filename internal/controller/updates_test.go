package controller

import (
	"context"
	"sync"
	"testing"

	"github.com/Freeeeeet/consultation_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/consultation_bot/internal/controller/handlers"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	events []handlers.Event
}

func (d *fakeDispatcher) Dispatch(_ context.Context, ev handlers.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func textUpdate(text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			From: &models.User{ID: 42, Username: "olena"},
			Chat: models.Chat{ID: 42},
			Text: text,
		},
	}
}

func TestEventFromUpdate_Messages(t *testing.T) {
	r := NewUpdateRouter(&fakeDispatcher{}, zap.NewNop())

	tests := []struct {
		text string
		kind handlers.EventKind
	}{
		{"/start", handlers.EventStart},
		{"/start@consult_bot ref42", handlers.EventStart},
		{"/RENAME", handlers.EventRename},
		{"/cancel", handlers.EventCancel},
		{"/help", handlers.EventHelp},
		{"/unknown", handlers.EventText},
		{"Олена", handlers.EventText},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ev, ok := r.EventFromUpdate(textUpdate(tt.text))
			require.True(t, ok)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, int64(42), ev.UserID)
			assert.Equal(t, int64(42), ev.ChatID)
			assert.Equal(t, "olena", ev.Username)
			assert.Equal(t, tt.text, ev.Text)
			assert.NotEmpty(t, ev.ID)
		})
	}
}

func TestEventFromUpdate_Contact(t *testing.T) {
	r := NewUpdateRouter(&fakeDispatcher{}, zap.NewNop())

	update := textUpdate("")
	update.Message.Contact = &models.Contact{PhoneNumber: "+380501234567", UserID: 42}

	ev, ok := r.EventFromUpdate(update)
	require.True(t, ok)
	assert.Equal(t, handlers.EventContact, ev.Kind)
	assert.Equal(t, "+380501234567", ev.Phone)
}

func TestEventFromUpdate_Ignored(t *testing.T) {
	r := NewUpdateRouter(&fakeDispatcher{}, zap.NewNop())

	fromBot := textUpdate("/start")
	fromBot.Message.From.IsBot = true

	noSender := textUpdate("/start")
	noSender.Message.From = nil

	for name, update := range map[string]*models.Update{
		"bot sender": fromBot,
		"no sender":  noSender,
		"empty":      {ID: 5},
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := r.EventFromUpdate(update)
			assert.False(t, ok)
		})
	}
}

func TestEventFromUpdate_Callback(t *testing.T) {
	r := NewUpdateRouter(&fakeDispatcher{}, zap.NewNop())

	t.Run("decoded", func(t *testing.T) {
		ev, ok := r.EventFromUpdate(&models.Update{
			CallbackQuery: &models.CallbackQuery{
				ID:   "cb",
				From: models.User{ID: 42, Username: "olena"},
				Message: models.MaybeInaccessibleMessage{
					Message: &models.Message{ID: 77, Chat: models.Chat{ID: 4242}},
				},
				Data: "cancel_selected_booking_3_11.05.2025_09:00",
			},
		})
		require.True(t, ok)

		assert.Equal(t, handlers.EventButton, ev.Kind)
		assert.Equal(t, int64(4242), ev.ChatID)
		assert.Equal(t, 77, ev.MessageID)
		assert.Equal(t, callbacks.SelectBooking{Ref: model.BookingRef{Row: 3, Date: "11.05.2025", Time: "09:00"}}, ev.Action)
	})

	t.Run("inaccessible message and unknown data", func(t *testing.T) {
		ev, ok := r.EventFromUpdate(&models.Update{
			CallbackQuery: &models.CallbackQuery{
				ID:   "cb",
				From: models.User{ID: 42},
				Data: "subject_7",
			},
		})
		require.True(t, ok)

		assert.Equal(t, int64(42), ev.ChatID)
		assert.Zero(t, ev.MessageID)
		assert.Nil(t, ev.Action)
	})
}

func TestHandleUpdate_Dispatches(t *testing.T) {
	d := &fakeDispatcher{}
	r := NewUpdateRouter(d, zap.NewNop())

	r.HandleUpdate(context.Background(), nil, textUpdate("/start"))
	r.HandleUpdate(context.Background(), nil, &models.Update{ID: 2})

	require.Len(t, d.events, 1)
	assert.Equal(t, handlers.EventStart, d.events[0].Kind)
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "/start", commandName("/start"))
	assert.Equal(t, "/start", commandName("/Start@Consult_Bot payload"))
	assert.Equal(t, "", commandName("start"))
	assert.Equal(t, "", commandName(""))
}
