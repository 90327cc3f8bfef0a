package retriever

import (
	"context"
	"sync"
)

// keyedLock is a set of mutexes addressed by string key.
// Waiting for a key honors context cancellation.
type keyedLock struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int // holders plus waiters
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[string]*lockSlot)}
}

// Lock blocks until key is free or ctx is done. The returned func unlocks and is idempotent.
func (k *keyedLock) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				k.drop(key, s)
			})
		}, nil
	case <-ctx.Done():
		k.drop(key, s)
		return nil, ctx.Err()
	}
}

func (k *keyedLock) drop(key string, s *lockSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}
