package permission

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/gatehouse-ai/gatehouse/internal/event"
	"github.com/gatehouse-ai/gatehouse/internal/logging"
	"github.com/gatehouse-ai/gatehouse/internal/repo"
	"github.com/gatehouse-ai/gatehouse/internal/session"
	"github.com/gatehouse-ai/gatehouse/internal/task"
	"github.com/gatehouse-ai/gatehouse/internal/workspace"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// Options configures a permission Service.
type Options struct {
	// Timeout bounds how long a single request may wait for a decision.
	// Zero means DefaultTimeout.
	Timeout time.Duration
}

// Service is the arbitration front door. One Evaluate call per tool
// invocation; it either returns nil (the tool may run) or an error, a
// *DeniedError for any denial outcome.
type Service struct {
	arbiter     *Arbiter
	locks       *sessionLocks
	resolver    *Resolver
	coordinator *Coordinator
	router      *Router
	sessions    *session.Service
	bus         *event.Bus
	log         zerolog.Logger
}

func NewService(
	sessions *session.Service,
	tasks *task.Service,
	workspaces *workspace.Service,
	repos *repo.Service,
	bus *event.Bus,
	opts Options,
) *Service {
	return &Service{
		arbiter:     NewArbiter(bus, opts.Timeout),
		locks:       newSessionLocks(),
		resolver:    NewResolver(sessions, workspaces, repos),
		coordinator: NewCoordinator(tasks, sessions),
		router:      NewRouter(sessions, workspaces, repos),
		sessions:    sessions,
		bus:         bus,
		log:         logging.Component("permission"),
	}
}

// Evaluate decides whether a tool call may proceed. At most one
// evaluation per session runs at a time; queued calls re-check the
// remembered grants once they acquire the lock, so an approval with
// remember lets the calls queued behind it pass without a prompt.
func (s *Service) Evaluate(ctx context.Context, sessionID, taskID, toolName string, toolInput map[string]any, toolUseID string) error {
	release, err := s.locks.Acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	allowed, err := s.resolver.Allowed(ctx, sessionID, toolName, toolInput)
	if err != nil {
		if errors.Is(err, ErrSessionGone) {
			return s.deny(sessionID, taskID, toolName, ReasonSessionGone)
		}
		return err
	}
	if allowed {
		return nil
	}

	req := &types.PermissionRequest{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		TaskID:    taskID,
		ToolName:  toolName,
		ToolInput: toolInput,
		ToolUseID: toolUseID,
		Timestamp: time.Now().UnixMilli(),
		Preview:   Preview(toolName, toolInput),
	}
	if toolName == "Bash" {
		if command, ok := toolInput["command"].(string); ok {
			req.Patterns = Patterns(command)
		}
	}

	// The waiter goes live before the status and audit writes, so a
	// decision for a request that is visible anywhere is never dropped
	// as unknown.
	w := s.arbiter.Register(req)

	if err := s.coordinator.BeginAwait(ctx, req); err != nil {
		s.arbiter.Unregister(req.ID)
		return err
	}

	// From here the task sits in AWAITING_PERMISSION. Every path below
	// must go through Complete or ForceFail so it never sticks there.
	d := s.arbiter.Wait(ctx, w)

	// Settlement writes still run when the caller's ctx was the thing
	// that resolved the wait.
	ctx = context.WithoutCancel(ctx)

	if d.Allow && d.Remember {
		if err := s.router.Remember(ctx, req, d.Scope); err != nil {
			if errors.Is(err, ErrSessionGone) {
				// The session vanished while the decider was thinking.
				// The grant has nowhere to live and the tool call dies
				// with it.
				d = types.PermissionDecision{
					RequestID: req.ID,
					TaskID:    req.TaskID,
					Allow:     false,
					Reason:    ReasonSessionGone,
					Scope:     types.ScopeOnce,
					DecidedBy: types.DecidedBySystem,
				}
			} else {
				s.log.Warn().Err(err).
					Str("requestID", req.ID).
					Str("scope", string(d.Scope)).
					Msg("could not persist remembered grant")
			}
		}
	}

	if err := s.coordinator.Complete(ctx, req, d); err != nil {
		s.coordinator.ForceFail(ctx, req, err.Error())
		return err
	}

	if d.Allow {
		return nil
	}

	if d.DecidedBy == types.DecidedBySystem {
		s.publishReplied(req.SessionID, d)
	}

	// One denial fails the whole task; siblings still waiting on the
	// same session are swept rather than left to time out one by one.
	s.arbiter.CancelAll(sessionID, ReasonCascade)

	return &DeniedError{
		SessionID: sessionID,
		TaskID:    taskID,
		ToolName:  toolName,
		Reason:    d.Reason,
	}
}

// SubmitDecision is the intake for externally made decisions. It is
// idempotent: late or duplicate submissions are acknowledged without
// effect, and the replied event fires only for the submission that
// actually resolved the request.
func (s *Service) SubmitDecision(ctx context.Context, d types.PermissionDecision) error {
	if d.Scope == "" {
		d.Scope = types.ScopeOnce
	}
	if !d.Scope.Valid() {
		return &InvalidScopeError{Scope: d.Scope}
	}
	if d.DecidedBy == "" {
		d.DecidedBy = "user"
	}
	if !d.Allow && d.Reason == "" {
		d.Reason = ReasonDeniedByUser
	}

	req, resolved := s.arbiter.Resolve(d)
	if !resolved {
		return nil
	}
	s.publishReplied(req.SessionID, d)
	return nil
}

// CancelSession force-denies every pending request for the session.
// Used when a session is stopped or deleted mid-flight.
func (s *Service) CancelSession(sessionID, reason string) {
	if reason == "" {
		reason = ReasonCancelled
	}
	s.arbiter.CancelAll(sessionID, reason)
}

// Pending returns the requests still awaiting a decision. An empty
// sessionID means all sessions.
func (s *Service) Pending(sessionID string) []*types.PermissionRequest {
	return s.arbiter.PendingRequests(sessionID)
}

// Stats reports the live waiter and lock table sizes. Both must drain
// to zero on an idle daemon.
func (s *Service) Stats() (pending, held int) {
	return s.arbiter.Pending(), s.locks.Held()
}

// Hook binds a session and task into a per-tool-call check function,
// the shape agent integrations expect.
func (s *Service) Hook(sessionID, taskID string) func(ctx context.Context, toolName string, toolInput map[string]any, toolUseID string) error {
	return func(ctx context.Context, toolName string, toolInput map[string]any, toolUseID string) error {
		return s.Evaluate(ctx, sessionID, taskID, toolName, toolInput, toolUseID)
	}
}

// deny synthesizes a denial outcome for requests that never reached the
// waiter table, such as checks against an already deleted session.
func (s *Service) deny(sessionID, taskID, toolName, reason string) error {
	s.publishReplied(sessionID, types.PermissionDecision{
		TaskID:    taskID,
		Allow:     false,
		Reason:    reason,
		Scope:     types.ScopeOnce,
		DecidedBy: types.DecidedBySystem,
	})
	return &DeniedError{
		SessionID: sessionID,
		TaskID:    taskID,
		ToolName:  toolName,
		Reason:    reason,
	}
}

func (s *Service) publishReplied(sessionID string, d types.PermissionDecision) {
	s.bus.Publish(event.Event{
		Type: event.PermissionReplied,
		Data: event.PermissionRepliedData{
			RequestID: d.RequestID,
			SessionID: sessionID,
			Allow:     d.Allow,
			Reason:    d.Reason,
			DecidedBy: d.DecidedBy,
		},
	})
}
