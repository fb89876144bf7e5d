package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore хранит состояния в памяти процесса с тем же TTL-контрактом,
// что и RedisStore. Используется в тестах и при запуске без Redis.
type MemoryStore struct {
	mu    sync.Mutex
	items map[int64]memoryItem
}

type memoryItem struct {
	state     State
	expiresAt time.Time
}

// NewMemoryStore создает пустое in-memory хранилище состояний.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[int64]memoryItem)}
}

// Get возвращает состояние, если оно есть и не истекло.
func (s *MemoryStore) Get(_ context.Context, userID int64) (*State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[userID]
	if !ok || time.Now().After(item.expiresAt) {
		delete(s.items, userID)
		return nil, false, nil
	}
	state := item.state
	return &state, true, nil
}

// Put сохраняет копию состояния, продлевая TTL.
func (s *MemoryStore) Put(_ context.Context, userID int64, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[userID] = memoryItem{state: *state, expiresAt: time.Now().Add(TTL)}
	return nil
}

// Clear удаляет состояние диалога.
func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, userID)
	return nil
}
