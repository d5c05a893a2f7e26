package permission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

func pendingRequest(sessionID, taskID string) *types.PermissionRequest {
	return &types.PermissionRequest{
		ID:        "req-1",
		SessionID: sessionID,
		TaskID:    taskID,
		ToolName:  "Write",
		ToolInput: map[string]any{"file_path": "/tmp/x"},
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestBeginAwaitTransitions(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)
	ctx := context.Background()

	req := pendingRequest(sessionID, taskID)
	require.NoError(t, e.svc.coordinator.BeginAwait(ctx, req))

	tk, err := e.tasks.Get(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskAwaitingPermission, tk.Status)

	sess, err := e.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionAwaitingPermission, sess.Status)

	timeline, err := e.tasks.Timeline(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, types.RecordPending, timeline[0].Status)
	assert.Equal(t, "Write", timeline[0].ToolName)
}

func TestBeginAwaitRefusesNonRunningTask(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)
	ctx := context.Background()

	_, err := e.tasks.UpdateStatus(ctx, taskID, types.TaskCompleted)
	require.NoError(t, err)

	err = e.svc.coordinator.BeginAwait(ctx, pendingRequest(sessionID, taskID))
	assert.ErrorContains(t, err, "not running")
}

func TestBeginAwaitSurvivesMissingSession(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)
	ctx := context.Background()

	require.NoError(t, e.sessions.Delete(ctx, sessionID))

	// The task transition and the timeline record are load-bearing;
	// the session status update is not.
	require.NoError(t, e.svc.coordinator.BeginAwait(ctx, pendingRequest(sessionID, taskID)))

	tk, err := e.tasks.Get(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskAwaitingPermission, tk.Status)
}

func TestCompleteApproval(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)
	ctx := context.Background()

	req := pendingRequest(sessionID, taskID)
	require.NoError(t, e.svc.coordinator.BeginAwait(ctx, req))

	err := e.svc.coordinator.Complete(ctx, req, types.PermissionDecision{
		RequestID: req.ID,
		Allow:     true,
		Scope:     types.ScopeSession,
		DecidedBy: "user",
	})
	require.NoError(t, err)

	tk, err := e.tasks.Get(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskRunning, tk.Status)

	sess, err := e.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionRunning, sess.Status)

	timeline, err := e.tasks.Timeline(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, types.RecordApproved, timeline[0].Status)
	assert.Equal(t, "user", timeline[0].ApprovedBy)
	assert.Equal(t, types.ScopeSession, timeline[0].Scope)
	assert.NotZero(t, timeline[0].ApprovedAt)
}

func TestCompleteDenial(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)
	ctx := context.Background()

	req := pendingRequest(sessionID, taskID)
	require.NoError(t, e.svc.coordinator.BeginAwait(ctx, req))

	err := e.svc.coordinator.Complete(ctx, req, types.PermissionDecision{
		RequestID: req.ID,
		Allow:     false,
		Reason:    ReasonDeniedByUser,
		DecidedBy: "user",
	})
	require.NoError(t, err)

	tk, err := e.tasks.Get(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskFailed, tk.Status)
	assert.Equal(t, ReasonDeniedByUser, tk.Error)

	sess, err := e.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionIdle, sess.Status)

	timeline, err := e.tasks.Timeline(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, types.RecordDenied, timeline[0].Status)
	assert.Equal(t, ReasonDeniedByUser, timeline[0].Reason)
}
