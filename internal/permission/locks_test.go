package permission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireUncontended(t *testing.T) {
	l := newSessionLocks()

	release, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, l.Held())

	release()
	assert.Zero(t, l.Held())
}

func TestAcquireFIFO(t *testing.T) {
	l := newSessionLocks()

	release, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)

	var mu sync.Mutex
	var order []int
	started := make(chan struct{})
	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			started <- struct{}{}
			rel, err := l.Acquire(context.Background(), "s1")
			require.NoError(t, err)
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			rel()
		}(i)
		// Admit waiters one at a time so queue order is deterministic.
		<-started
		time.Sleep(10 * time.Millisecond)
	}

	release()
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Zero(t, l.Held())
}

func TestAcquireIndependentSessions(t *testing.T) {
	l := newSessionLocks()

	rel1, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)

	// A different session is never blocked.
	done := make(chan struct{})
	go func() {
		rel2, err := l.Acquire(context.Background(), "s2")
		require.NoError(t, err)
		rel2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second session blocked on first session's lock")
	}
	rel1()
}

func TestAcquireCancelledWhileQueued(t *testing.T) {
	l := newSessionLocks()

	release, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := l.Acquire(ctx, "s1")
		errCh <- err
	}()

	require.Eventually(t, func() bool { return l.Held() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	// The holder's release still drains the table.
	release()
	assert.Zero(t, l.Held())
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := newSessionLocks()

	release, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)

	acquired := make(chan func(), 1)
	go func() {
		rel, err := l.Acquire(context.Background(), "s1")
		require.NoError(t, err)
		acquired <- rel
	}()

	time.Sleep(10 * time.Millisecond)
	release()
	release() // second call must not hand the lock off twice

	rel2 := <-acquired
	rel2()
	assert.Zero(t, l.Held())
}
