package messaging

import (
	"context"
	"sync"
)

// Recorder запоминает отправленные сообщения вместо доставки
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	// Err возвращается из Send, если задана
	Err error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, msg)
	return r.Err
}

// Messages возвращает копию всех сообщений
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Message(nil), r.messages...)
}

// ForChat возвращает сообщения одного чата
func (r *Recorder) ForChat(chatID int64) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Message
	for _, m := range r.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// Last возвращает последнее сообщение чата
func (r *Recorder) Last(chatID int64) (Message, bool) {
	msgs := r.ForChat(chatID)
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = nil
}
