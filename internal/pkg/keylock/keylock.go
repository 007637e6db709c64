package keylock

import (
	"context"
	"sync"
)

// KeyedLocker сериализует операции по строковому ключу внутри процесса.
// Записи для ключа удаляются, когда их больше никто не держит и не ждёт.
type KeyedLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func New() *KeyedLocker {
	return &KeyedLocker{slots: make(map[string]*slot)}
}

// Lock ждёт освобождения ключа или отмены контекста.
// Возвращённую функцию нужно вызвать ровно один раз.
func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}, nil
}

func (l *KeyedLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Len возвращает количество ключей, по которым сейчас есть владельцы или ожидающие.
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
