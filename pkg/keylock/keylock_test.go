package keylock_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gridlinecompany/LetsEcrypt/pkg/keylock"
)

func TestLockSerializesSameKey(t *testing.T) {
	t.Parallel()
	var m keylock.Map
	var active, peak int32
	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("example.com")
			defer unlock()
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak)
	assert.Equal(t, 0, m.Len())
}

func TestLockDifferentKeysIndependent(t *testing.T) {
	t.Parallel()
	var m keylock.Map
	unlockA := m.Lock("a.example")

	done := make(chan struct{})
	go func() {
		unlock := m.Lock("b.example")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
	unlockA()
}

func TestUnlockIsIdempotent(t *testing.T) {
	t.Parallel()
	var m keylock.Map
	unlock := m.Lock("k")
	unlock()
	unlock()
	assert.Equal(t, 0, m.Len())
}
