package state

import (
	"testing"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetReturnsCopy(t *testing.T) {
	m := NewManager(nil)
	m.Save(Session{UserID: 1, State: StateDate, SelectedDate: "10.05.2025"})

	s, ok := m.Get(1)
	require.True(t, ok)
	s.SelectedDate = "11.05.2025"

	stored, _ := m.Get(1)
	assert.Equal(t, "10.05.2025", stored.SelectedDate)
}

func TestManager_SaveNoneDeletes(t *testing.T) {
	m := NewManager(nil)
	m.Save(Session{UserID: 1, State: StateQuestion})
	require.Equal(t, 1, m.Len())

	m.Save(Session{UserID: 1})
	_, ok := m.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestManager_IdleSince(t *testing.T) {
	now := time.Date(2025, 5, 10, 10, 0, 0, 0, time.UTC)
	m := NewManager(func() time.Time { return now })

	m.Save(Session{UserID: 1, State: StateDate})
	now = now.Add(20 * time.Minute)
	m.Save(Session{UserID: 2, State: StateTime})

	idle := m.IdleSince(now.Add(-10 * time.Minute))
	assert.Equal(t, []int64{1}, idle)

	m.Clear(1)
	assert.Empty(t, m.IdleSince(now.Add(-10*time.Minute)))
}

func TestSession_Reset(t *testing.T) {
	s := Session{
		UserID:       1,
		ChatID:       2,
		Name:         "Олена",
		State:        StateConfirmCancellation,
		Flow:         FlowCancellation,
		SelectedDate: "10.05.2025",
		HoldsSlot:    true,
		Cancellation: model.BookingRef{Row: 3, Date: "10.05.2025", Time: "14:00"},
	}

	s.Reset(StateServiceChoice)

	assert.Equal(t, Session{UserID: 1, ChatID: 2, Name: "Олена", State: StateServiceChoice}, s)
}
