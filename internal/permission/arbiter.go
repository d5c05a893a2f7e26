package permission

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatehouse-ai/gatehouse/internal/event"
	"github.com/gatehouse-ai/gatehouse/internal/logging"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// DefaultTimeout is how long a request waits for a decision before it is
// denied with ReasonTimeout.
const DefaultTimeout = 60 * time.Second

// Arbiter brokers the asynchronous handshake between "a decision is
// needed" and "a decision arrived". It owns the pending-waiter table;
// each request resolves exactly once.
type Arbiter struct {
	publisher Publisher
	timeout   time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	waiters map[string]*waiter
}

type waiter struct {
	req   *types.PermissionRequest
	ch    chan types.PermissionDecision
	timer *time.Timer
}

// NewArbiter creates an arbiter publishing on publisher. A zero timeout
// means DefaultTimeout.
func NewArbiter(publisher Publisher, timeout time.Duration) *Arbiter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	a := &Arbiter{
		publisher: publisher,
		timeout:   timeout,
		log:       logging.Component("arbiter"),
		waiters:   make(map[string]*waiter),
	}
	return a
}

// Notify publishes a request to external subscribers. Pure notification;
// nothing gates on it and there is no return value to await.
func (a *Arbiter) Notify(req *types.PermissionRequest) {
	a.publisher.Publish(event.Event{
		Type: event.PermissionRequested,
		Data: event.PermissionRequestedData{
			RequestID: req.ID,
			SessionID: req.SessionID,
			TaskID:    req.TaskID,
			ToolName:  req.ToolName,
			ToolInput: req.ToolInput,
			ToolUseID: req.ToolUseID,
			Timestamp: req.Timestamp,
			Patterns:  req.Patterns,
			Preview:   req.Preview,
		},
	})
}

// Register inserts a waiter for the request, starts its timeout clock,
// and notifies subscribers. After Register returns, a decision for the
// request ID can land at any moment; the caller collects it with Wait.
// Registration happens before any status or audit write so an answer
// to a freshly visible request is never dropped as unknown.
func (a *Arbiter) Register(req *types.PermissionRequest) *waiter {
	w := &waiter{
		req: req,
		// Buffered so Resolve never blocks on a caller that is still
		// between select cases.
		ch: make(chan types.PermissionDecision, 1),
	}
	w.timer = time.AfterFunc(a.timeout, func() {
		a.Resolve(types.PermissionDecision{
			RequestID: req.ID,
			TaskID:    req.TaskID,
			Allow:     false,
			Reason:    ReasonTimeout,
			Scope:     types.ScopeOnce,
			DecidedBy: types.DecidedBySystem,
		})
	})

	a.mu.Lock()
	a.waiters[req.ID] = w
	a.mu.Unlock()

	a.Notify(req)
	return w
}

// Unregister silently withdraws a registered waiter, for callers that
// registered but then could not proceed to Wait. A waiter that was
// already resolved stays resolved; the buffered decision is discarded.
func (a *Arbiter) Unregister(requestID string) {
	a.mu.Lock()
	w, ok := a.waiters[requestID]
	if ok {
		delete(a.waiters, requestID)
	}
	a.mu.Unlock()

	if ok {
		w.timer.Stop()
	}
}

// Wait suspends until exactly one of {explicit decision, timeout, ctx
// cancellation} resolves the waiter. The losing paths become no-ops; on
// every path the timer is stopped and the waiter removed.
func (a *Arbiter) Wait(ctx context.Context, w *waiter) types.PermissionDecision {
	req := w.req
	select {
	case d := <-w.ch:
		return d
	case <-ctx.Done():
		a.Resolve(types.PermissionDecision{
			RequestID: req.ID,
			TaskID:    req.TaskID,
			Allow:     false,
			Reason:    ReasonCancelled,
			Scope:     types.ScopeOnce,
			DecidedBy: types.DecidedBySystem,
		})
		// Exactly one decision is ever sent: either ours just above or
		// a concurrent one that won the race. Either way it arrives.
		return <-w.ch
	}
}

// AwaitDecision is Register followed by Wait, for callers with nothing
// to do in between.
func (a *Arbiter) AwaitDecision(ctx context.Context, req *types.PermissionRequest) types.PermissionDecision {
	return a.Wait(ctx, a.Register(req))
}

// Resolve delivers a decision to the waiter for its request ID and
// returns the request it settled. A false return means the request is
// unknown or already resolved; that is not an error, just a logged
// no-op, so intake stays idempotent.
func (a *Arbiter) Resolve(d types.PermissionDecision) (*types.PermissionRequest, bool) {
	a.mu.Lock()
	w, ok := a.waiters[d.RequestID]
	if ok {
		delete(a.waiters, d.RequestID)
	}
	a.mu.Unlock()

	if !ok {
		a.log.Warn().
			Str("requestID", d.RequestID).
			Msg("decision for unknown or already resolved request ignored")
		return nil, false
	}

	w.timer.Stop()
	if d.TaskID == "" {
		d.TaskID = w.req.TaskID
	}
	w.ch <- d
	return w.req, true
}

// CancelAll force-denies every remaining waiter for the session with the
// given reason. Used to fail-fast sibling tool calls once one has been
// denied, and when a session is stopped.
func (a *Arbiter) CancelAll(sessionID, reason string) {
	a.mu.Lock()
	var cancelled []*waiter
	for id, w := range a.waiters {
		if w.req.SessionID == sessionID {
			delete(a.waiters, id)
			cancelled = append(cancelled, w)
		}
	}
	a.mu.Unlock()

	for _, w := range cancelled {
		w.timer.Stop()
		w.ch <- types.PermissionDecision{
			RequestID: w.req.ID,
			TaskID:    w.req.TaskID,
			Allow:     false,
			Reason:    reason,
			Scope:     types.ScopeOnce,
			DecidedBy: types.DecidedBySystem,
		}
	}

	if len(cancelled) > 0 {
		a.log.Info().
			Str("sessionID", sessionID).
			Int("cancelled", len(cancelled)).
			Str("reason", reason).
			Msg("cancelled pending permission requests")
	}
}

// Request returns the in-flight request for an ID, if still pending.
func (a *Arbiter) Request(requestID string) (*types.PermissionRequest, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w, ok := a.waiters[requestID]
	if !ok {
		return nil, false
	}
	return w.req, true
}

// Pending returns the live waiter count. It must drain to zero after a
// session ends; a residual count is a leak and is surfaced as a health
// signal.
func (a *Arbiter) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.waiters)
}

// PendingRequests returns a snapshot of the requests still awaiting a
// decision, for UIs that attach after the broadcast.
func (a *Arbiter) PendingRequests(sessionID string) []*types.PermissionRequest {
	a.mu.Lock()
	defer a.mu.Unlock()

	var reqs []*types.PermissionRequest
	for _, w := range a.waiters {
		if sessionID == "" || w.req.SessionID == sessionID {
			reqs = append(reqs, w.req)
		}
	}
	return reqs
}
