package permission

import (
	"context"
	"sync"
)

// sessionLocks serializes permission evaluations per session. Waiters are
// queued first-in-first-out and the lock is handed off directly to the
// head of the queue on release, so a session's evaluations run in arrival
// order. The table drains as sessions go quiet; Held is the leak signal.
type sessionLocks struct {
	mu     sync.Mutex
	states map[string]*lockState
}

type lockState struct {
	held  bool
	queue []chan struct{}
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{states: make(map[string]*lockState)}
}

// Acquire blocks until the session lock is available or ctx is done.
// The returned release function is safe to call more than once and must
// run on every exit path, including panics, so a crash upstream can
// never permanently deadlock the session.
func (l *sessionLocks) Acquire(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	st := l.states[sessionID]
	if st == nil {
		st = &lockState{}
		l.states[sessionID] = st
	}
	if !st.held {
		st.held = true
		l.mu.Unlock()
		return l.releaseFunc(sessionID), nil
	}

	granted := make(chan struct{})
	st.queue = append(st.queue, granted)
	l.mu.Unlock()

	select {
	case <-granted:
		return l.releaseFunc(sessionID), nil
	case <-ctx.Done():
		l.mu.Lock()
		select {
		case <-granted:
			// The lock was handed to us in the same instant we were
			// cancelled; pass it straight on.
			l.handOffLocked(sessionID)
		default:
			l.dropWaiterLocked(sessionID, granted)
		}
		l.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (l *sessionLocks) releaseFunc(sessionID string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.handOffLocked(sessionID)
			l.mu.Unlock()
		})
	}
}

// handOffLocked passes the lock to the next queued waiter, or clears the
// session's entry entirely when the queue is empty.
func (l *sessionLocks) handOffLocked(sessionID string) {
	st := l.states[sessionID]
	if st == nil {
		return
	}
	if len(st.queue) > 0 {
		next := st.queue[0]
		st.queue = st.queue[1:]
		close(next)
		return
	}
	delete(l.states, sessionID)
}

func (l *sessionLocks) dropWaiterLocked(sessionID string, granted chan struct{}) {
	st := l.states[sessionID]
	if st == nil {
		return
	}
	for i, ch := range st.queue {
		if ch == granted {
			st.queue = append(st.queue[:i], st.queue[i+1:]...)
			return
		}
	}
}

// Held returns the number of sessions with a held or contended lock.
func (l *sessionLocks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.states)
}
