package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatehouse-ai/gatehouse/internal/logging"
	"github.com/gatehouse-ai/gatehouse/internal/session"
	"github.com/gatehouse-ai/gatehouse/internal/task"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// Coordinator keeps task and session status in step with the
// arbitration lifecycle and maintains the audit timeline. Task writes
// are load-bearing and their errors escalate; session status is a
// presentation signal and failures there are only logged.
type Coordinator struct {
	tasks    *task.Service
	sessions *session.Service
	log      zerolog.Logger
}

func NewCoordinator(tasks *task.Service, sessions *session.Service) *Coordinator {
	return &Coordinator{
		tasks:    tasks,
		sessions: sessions,
		log:      logging.Component("permission.coordinator"),
	}
}

// BeginAwait flips the task to AWAITING_PERMISSION, marks the session,
// and appends a pending record to the task's timeline. The task must be
// running; a terminal or stopping task refuses the transition.
func (c *Coordinator) BeginAwait(ctx context.Context, req *types.PermissionRequest) error {
	t, err := c.tasks.Get(ctx, req.TaskID)
	if err != nil {
		return fmt.Errorf("load task %s: %w", req.TaskID, err)
	}
	if t.Status != types.TaskRunning {
		return fmt.Errorf("task %s is %s, not running", t.ID, t.Status)
	}

	if _, err := c.tasks.UpdateStatus(ctx, req.TaskID, types.TaskAwaitingPermission); err != nil {
		return fmt.Errorf("mark task awaiting: %w", err)
	}

	if _, err := c.sessions.UpdateStatus(ctx, req.SessionID, types.SessionAwaitingPermission); err != nil {
		c.log.Warn().Err(err).Str("session", req.SessionID).Msg("could not mark session awaiting")
	}

	rec := &types.PermissionRecord{
		RequestID: req.ID,
		ToolName:  req.ToolName,
		ToolInput: req.ToolInput,
		ToolUseID: req.ToolUseID,
		Status:    types.RecordPending,
	}
	if err := c.tasks.AppendRecord(ctx, req.TaskID, rec); err != nil {
		// The task is already marked awaiting; it must not stay there
		// on an error path.
		err = fmt.Errorf("append timeline record: %w", err)
		c.ForceFail(ctx, req, err.Error())
		return err
	}
	return nil
}

// ForceFail drives the task to FAILED with the given error text. Called
// on unexpected failures once the task has been marked awaiting, so a
// broken flow never leaves it parked in AWAITING_PERMISSION.
func (c *Coordinator) ForceFail(ctx context.Context, req *types.PermissionRequest, errText string) {
	if _, err := c.tasks.Fail(ctx, req.TaskID, errText); err != nil {
		c.log.Error().Err(err).Str("task", req.TaskID).Msg("could not force task to failed")
	}
	if _, err := c.sessions.UpdateStatus(ctx, req.SessionID, types.SessionIdle); err != nil {
		c.log.Warn().Err(err).Str("session", req.SessionID).Msg("could not mark session idle")
	}
}

// Complete settles the timeline record and restores task and session
// status according to the decision. Approval returns the task to
// RUNNING; denial fails it with the denial reason.
func (c *Coordinator) Complete(ctx context.Context, req *types.PermissionRequest, d types.PermissionDecision) error {
	status := types.RecordDenied
	if d.Allow {
		status = types.RecordApproved
	}
	err := c.tasks.ResolveRecord(ctx, req.TaskID, req.ID, func(rec *types.PermissionRecord) {
		rec.Status = status
		rec.Scope = d.Scope
		rec.ApprovedBy = d.DecidedBy
		rec.ApprovedAt = time.Now().UnixMilli()
		rec.Reason = d.Reason
	})
	if err != nil {
		c.log.Warn().Err(err).Str("task", req.TaskID).Str("request", req.ID).Msg("could not settle timeline record")
	}

	if d.Allow {
		if _, err := c.tasks.UpdateStatus(ctx, req.TaskID, types.TaskRunning); err != nil {
			return fmt.Errorf("resume task: %w", err)
		}
		if _, err := c.sessions.UpdateStatus(ctx, req.SessionID, types.SessionRunning); err != nil {
			c.log.Warn().Err(err).Str("session", req.SessionID).Msg("could not mark session running")
		}
		return nil
	}

	if _, err := c.tasks.Fail(ctx, req.TaskID, d.Reason); err != nil {
		return fmt.Errorf("fail task: %w", err)
	}
	if _, err := c.sessions.UpdateStatus(ctx, req.SessionID, types.SessionIdle); err != nil {
		c.log.Warn().Err(err).Str("session", req.SessionID).Msg("could not mark session idle")
	}
	return nil
}
