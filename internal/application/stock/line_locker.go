package stock

import (
	"context"
	"sync"
)

// LineLocker serializes work on one voucher line across callers.
// Acquire blocks until the key is free or ctx is done; the returned release
// function must be called exactly once and is safe to call more than once.
type LineLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// KeyedMutexLocker is a LineLocker for a single process
type KeyedMutexLocker struct {
	mu    sync.Mutex
	slots map[string]*lineSlot
}

type lineSlot struct {
	token chan struct{}
	refs  int
}

// NewKeyedMutexLocker creates a new KeyedMutexLocker
func NewKeyedMutexLocker() *KeyedMutexLocker {
	return &KeyedMutexLocker{slots: make(map[string]*lineSlot)}
}

// Acquire waits for exclusive ownership of key
func (l *KeyedMutexLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lineSlot{token: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.token <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.token
			l.drop(key, slot)
		})
	}, nil
}

func (l *KeyedMutexLocker) drop(key string, slot *lineSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

// Len returns the number of keys currently held or awaited
func (l *KeyedMutexLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

var _ LineLocker = (*KeyedMutexLocker)(nil)
