package state

import (
	"sync"
	"time"

	"github.com/Freeeeeet/consultation_bot/internal/metrics"
)

// Manager хранит сессии пользователей
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]Session // telegramID -> Session
	now      func() time.Time
}

// NewManager создаёт менеджер; now == nil означает time.Now
func NewManager(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		sessions: make(map[int64]Session),
		now:      now,
	}
}

// Get возвращает копию сессии пользователя
func (sm *Manager) Get(telegramID int64) (Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	s, ok := sm.sessions[telegramID]
	return s, ok
}

// Save сохраняет сессию; сессия в StateNone удаляется
func (sm *Manager) Save(s Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if s.State == StateNone {
		delete(sm.sessions, s.UserID)
	} else {
		s.UpdatedAt = sm.now()
		sm.sessions[s.UserID] = s
	}
	metrics.ActiveSessions.Set(float64(len(sm.sessions)))
}

// Clear удаляет сессию пользователя
func (sm *Manager) Clear(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.sessions, telegramID)
	metrics.ActiveSessions.Set(float64(len(sm.sessions)))
}

// IdleSince возвращает пользователей, чьи сессии не менялись с cutoff
func (sm *Manager) IdleSince(cutoff time.Time) []int64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var ids []int64
	for id, s := range sm.sessions {
		if !s.UpdatedAt.After(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (sm *Manager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return len(sm.sessions)
}
