package agent

import (
	"context"
	"testing"
	"time"

	claudeagent "github.com/kazz187/claude-agent-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-ai/gatehouse/internal/event"
	"github.com/gatehouse-ai/gatehouse/internal/permission"
	"github.com/gatehouse-ai/gatehouse/internal/repo"
	"github.com/gatehouse-ai/gatehouse/internal/session"
	"github.com/gatehouse-ai/gatehouse/internal/storage"
	"github.com/gatehouse-ai/gatehouse/internal/task"
	"github.com/gatehouse-ai/gatehouse/internal/workspace"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

func newPermissionService(t *testing.T, timeout time.Duration) (*permission.Service, string, string, *session.Service) {
	t.Helper()
	store := storage.New(t.TempDir())
	bus := event.NewBus()
	t.Cleanup(func() { bus.Close() })

	sessions := session.NewService(store, bus)
	tasks := task.NewService(store, bus)
	workspaces := workspace.NewService(store)
	repos := repo.NewService(store)
	svc := permission.NewService(sessions, tasks, workspaces, repos, bus, permission.Options{Timeout: timeout})

	ctx := context.Background()
	sess, err := sessions.Create(ctx, "", "agent test")
	require.NoError(t, err)
	tk, err := tasks.Create(ctx, sess.ID, "t")
	require.NoError(t, err)
	_, err = tasks.UpdateStatus(ctx, tk.ID, types.TaskRunning)
	require.NoError(t, err)
	return svc, sess.ID, tk.ID, sessions
}

func TestCanUseToolAllows(t *testing.T) {
	svc, sessionID, taskID, sessions := newPermissionService(t, time.Minute)
	ctx := context.Background()

	_, err := sessions.Grant(ctx, sessionID, "Read")
	require.NoError(t, err)

	check := CanUseTool(ctx, svc, sessionID, taskID)
	result, err := check("Read", map[string]any{"file_path": "/tmp/x"}, claudeagent.ToolPermissionContext{})
	require.NoError(t, err)
	assert.IsType(t, claudeagent.PermissionResultAllow{}, result)
}

func TestCanUseToolDeniesOnTimeout(t *testing.T) {
	svc, sessionID, taskID, _ := newPermissionService(t, 30*time.Millisecond)
	ctx := context.Background()

	check := CanUseTool(ctx, svc, sessionID, taskID)
	result, err := check("Write", map[string]any{"file_path": "/tmp/x"}, claudeagent.ToolPermissionContext{})
	require.NoError(t, err)

	deny, ok := result.(claudeagent.PermissionResultDeny)
	require.True(t, ok)
	assert.Equal(t, "Timeout", deny.Message)
}

func TestCanUseToolDeniesWhenRefused(t *testing.T) {
	svc, sessionID, taskID, _ := newPermissionService(t, time.Minute)
	ctx := context.Background()

	resultCh := make(chan claudeagent.PermissionResult, 1)
	check := CanUseTool(ctx, svc, sessionID, taskID)
	go func() {
		result, err := check("Write", map[string]any{"file_path": "/tmp/x"}, claudeagent.ToolPermissionContext{})
		require.NoError(t, err)
		resultCh <- result
	}()

	require.Eventually(t, func() bool { return len(svc.Pending(sessionID)) == 1 }, 2*time.Second, time.Millisecond)
	req := svc.Pending(sessionID)[0]
	require.NoError(t, svc.SubmitDecision(ctx, types.PermissionDecision{
		RequestID: req.ID,
		Allow:     false,
		DecidedBy: "user",
	}))

	deny, ok := (<-resultCh).(claudeagent.PermissionResultDeny)
	require.True(t, ok)
	assert.Equal(t, "Permission denied by user", deny.Message)
}
