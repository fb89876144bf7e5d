package session

import "sync"

// Locks сериализует обработку апдейтов одного пользователя: диалог теряет
// смысл при переупорядочивании, поэтому переходы одного пользователя
// выполняются строго по одному, а разные пользователи — параллельно.
type Locks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocks создает пустой набор пользовательских замков.
func NewLocks() *Locks {
	return &Locks{locks: make(map[int64]*userLock)}
}

// Lock захватывает замок пользователя и возвращает функцию освобождения.
// Замки создаются по требованию и удаляются, когда никому не нужны.
func (l *Locks) Lock(userID int64) func() {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &userLock{}
		l.locks[userID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
