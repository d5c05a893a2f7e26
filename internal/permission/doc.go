// Package permission implements permission arbitration for agent tool calls.
//
// An agent's tool-execution loop calls the hook returned by
// Service.Hook before any side-effecting action. The hook either allows
// immediately from a cached allow-list or suspends the calling goroutine
// until a decision arrives through the intake endpoint, a timeout fires,
// or the evaluation is cancelled.
//
// # Components
//
// The Service is assembled from five parts, each owned by the Service
// instance (there is no package-level state, so independent instances
// never share waiters or locks):
//
//   - Arbiter: the wait/resolve broker. It owns the pending-waiter table,
//     publishes permission.requested events, and guarantees each request
//     resolves exactly once to one of {decision, timeout, cancellation}.
//   - sessionLocks: a FIFO keyed lock serializing evaluations per session
//     so concurrent tool calls never produce two simultaneous prompts.
//   - Resolver: consults the session allow-list, then the repository
//     allow-list reached through the session's workspace, before any
//     prompt is raised.
//   - Coordinator: drives task and session status in step with
//     arbitration outcomes and writes the audit record onto the task
//     timeline. It tolerates the session being deleted mid-flight.
//   - Router: persists remembered grants at the chosen scope, re-fetching
//     records immediately before mutating so concurrent grants survive.
//
// # Failure model
//
// Every denied request carries a human-readable reason ("Timeout",
// "Cancelled", "Session no longer exists", or the decider's reason), and
// a task is never left in AWAITING_PERMISSION: every path out of an
// evaluation moves it to a running or terminal state.
//
// All bookkeeping is process-local. A live session must be owned by a
// single daemon process; sharing one session across processes is a
// scaling limit of this design, not a supported mode.
package permission
