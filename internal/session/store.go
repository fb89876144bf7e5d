package session

import (
	"context"
	"fmt"
	"time"

	"github.com/DoRRet/TarotBot/internal/cache"
)

// TTL время жизни брошенного на середине диалога. Каждый переход
// продлевает срок; по истечении следующий апдейт пользователя проваливается
// в главное меню.
const TTL = 30 * time.Minute

// Store хранилище состояний диалогов, ключ — идентификатор пользователя.
type Store interface {
	Get(ctx context.Context, userID int64) (*State, bool, error)
	Put(ctx context.Context, userID int64, state *State) error
	Clear(ctx context.Context, userID int64) error
}

// RedisStore хранит состояния в Redis с TTL.
type RedisStore struct {
	cache *cache.Cache
}

// NewRedisStore создает хранилище состояний поверх Redis.
func NewRedisStore(c *cache.Cache) *RedisStore {
	return &RedisStore{cache: c}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

// Get возвращает состояние диалога пользователя, если оно есть и не истекло.
func (s *RedisStore) Get(ctx context.Context, userID int64) (*State, bool, error) {
	const op = "session.Get"
	var state State
	found, err := s.cache.Get(ctx, sessionKey(userID), &state)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, false, nil
	}
	return &state, true, nil
}

// Put сохраняет состояние, продлевая TTL.
func (s *RedisStore) Put(ctx context.Context, userID int64, state *State) error {
	const op = "session.Put"
	if err := s.cache.Set(ctx, sessionKey(userID), state, TTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear удаляет состояние диалога.
func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	const op = "session.Clear"
	if err := s.cache.Invalidate(ctx, sessionKey(userID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
