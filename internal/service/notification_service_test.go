package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/messaging"
	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) Send(ctx context.Context, msg messaging.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func TestNotificationService(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 5, 10, 7, 0, 0, 0, time.UTC)

	t.Run("booking", func(t *testing.T) {
		m := new(MockMessenger)
		m.On("Send", mock.Anything, mock.MatchedBy(func(msg messaging.Message) bool {
			return msg.ChatID == -100 && msg.HTML &&
				assert.Contains(t, msg.Text, "Олена &lt;адмін&gt;") &&
				assert.Contains(t, msg.Text, "11.05.2025") &&
				assert.Contains(t, msg.Text, "10.05.2025 07:00:00")
		})).Return(nil).Once()

		s := NewNotificationService(m, -100, time.UTC, zap.NewNop())
		s.NotifyBooking(ctx, &model.BookingRequest{
			Name: "Олена <адмін>", Date: "11.05.2025", Time: "09:00", CreatedAt: created,
		}, 42)
		s.Wait()

		m.AssertExpectations(t)
	})

	t.Run("contact request kind", func(t *testing.T) {
		m := new(MockMessenger)
		m.On("Send", mock.Anything, mock.MatchedBy(func(msg messaging.Message) bool {
			return assert.Contains(t, msg.Text, "контакт пошарено")
		})).Return(nil).Once()

		s := NewNotificationService(m, -100, time.UTC, zap.NewNop())
		s.NotifyContactRequest(ctx, &model.BookingRequest{Name: "Олена", Question: model.RecordContactShared}, 42)
		s.Wait()

		m.AssertExpectations(t)
	})

	t.Run("send error is swallowed", func(t *testing.T) {
		m := new(MockMessenger)
		m.On("Send", mock.Anything, mock.Anything).Return(errors.New("chat not found")).Once()

		s := NewNotificationService(m, -100, time.UTC, zap.NewNop())
		s.NotifyCancellation(ctx, "Олена", "@olena", 42, model.BookingRef{Row: 2, Date: "11.05.2025", Time: "09:00"})
		s.Wait()

		m.AssertExpectations(t)
	})

	t.Run("disabled without chat", func(t *testing.T) {
		m := new(MockMessenger)

		s := NewNotificationService(m, 0, nil, zap.NewNop())
		assert.False(t, s.Enabled())
		s.NotifyBooking(ctx, &model.BookingRequest{Name: "Олена"}, 42)
		s.Wait()

		m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("cancelled caller context does not abort sending", func(t *testing.T) {
		m := new(MockMessenger)
		m.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
			assert.NoError(t, args.Get(0).(context.Context).Err())
		}).Once()

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		s := NewNotificationService(m, -100, time.UTC, zap.NewNop())
		s.NotifyBooking(cctx, &model.BookingRequest{Name: "Олена"}, 42)
		s.Wait()

		m.AssertExpectations(t)
	})
}
