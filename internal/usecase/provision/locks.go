package provision

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/sitehost/internal/domain"
)

// keyedLock hands out one mutex per key. Slots are dropped once nobody holds
// or waits for them.
type keyedLock struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[string]*lockSlot)}
}

// Lock blocks until key is free or ctx is done. The returned func releases
// the lock and is safe to call more than once.
func (k *keyedLock) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrLockContention, key, err)
	}

	k.mu.Lock()
	slot, ok := k.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		k.slots[key] = slot
	}
	slot.refs++
	k.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				k.release(key, slot)
			})
		}, nil
	case <-ctx.Done():
		k.release(key, slot)
		return nil, fmt.Errorf("%w: gave up waiting for %s: %v", domain.ErrLockContention, key, ctx.Err())
	}
}

func (k *keyedLock) release(key string, slot *lockSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(k.slots, key)
	}
}

// size returns the number of live slots.
func (k *keyedLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
