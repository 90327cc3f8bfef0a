package retriever

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLock_MutualExclusion(t *testing.T) {
	locks := newKeyedLock()
	var active, peak int32
	var wg sync.WaitGroup

	for range 8 {
		wg.Go(func() {
			unlock, err := locks.Lock(context.Background(), "repo")
			require.NoError(t, err)
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak)
	assert.Empty(t, locks.slots, "slots are dropped once nobody holds or waits")
}

func TestKeyedLock_DifferentKeysDoNotBlock(t *testing.T) {
	locks := newKeyedLock()
	unlockA, err := locks.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locks.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedLock_ContextCancel(t *testing.T) {
	locks := newKeyedLock()
	unlock, err := locks.Lock(context.Background(), "repo")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.Lock(ctx, "repo")
	assert.ErrorIs(t, err, context.Canceled)

	unlock()
	unlock() // idempotent
	assert.Empty(t, locks.slots)

	again, err := locks.Lock(context.Background(), "repo")
	require.NoError(t, err)
	again()
}
