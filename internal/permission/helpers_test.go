package permission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatehouse-ai/gatehouse/internal/event"
	"github.com/gatehouse-ai/gatehouse/internal/repo"
	"github.com/gatehouse-ai/gatehouse/internal/session"
	"github.com/gatehouse-ai/gatehouse/internal/storage"
	"github.com/gatehouse-ai/gatehouse/internal/task"
	"github.com/gatehouse-ai/gatehouse/internal/workspace"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// env wires the full service graph against a throwaway store, the way
// the daemon assembles it at startup.
type env struct {
	store      *storage.Store
	bus        *event.Bus
	sessions   *session.Service
	tasks      *task.Service
	workspaces *workspace.Service
	repos      *repo.Service
	svc        *Service

	repoPath string
}

func newEnv(t *testing.T, timeout time.Duration) *env {
	t.Helper()
	store := storage.New(t.TempDir())
	bus := event.NewBus()
	t.Cleanup(func() { bus.Close() })

	e := &env{
		store:      store,
		bus:        bus,
		sessions:   session.NewService(store, bus),
		tasks:      task.NewService(store, bus),
		workspaces: workspace.NewService(store),
		repos:      repo.NewService(store),
		repoPath:   t.TempDir(),
	}
	e.svc = NewService(e.sessions, e.tasks, e.workspaces, e.repos, bus, Options{Timeout: timeout})
	return e
}

// seed creates a repository, workspace, session and running task and
// returns the session and task IDs.
func (e *env) seed(t *testing.T) (sessionID, taskID string) {
	t.Helper()
	ctx := context.Background()

	rep, err := e.repos.Create(ctx, "proj", e.repoPath)
	require.NoError(t, err)
	ws, err := e.workspaces.Create(ctx, rep.ID, e.repoPath)
	require.NoError(t, err)
	sess, err := e.sessions.Create(ctx, ws.ID, "test session")
	require.NoError(t, err)
	tk, err := e.tasks.Create(ctx, sess.ID, "test task")
	require.NoError(t, err)
	_, err = e.tasks.UpdateStatus(ctx, tk.ID, types.TaskRunning)
	require.NoError(t, err)
	return sess.ID, tk.ID
}

// answer waits for the next prompt on the session and submits a
// decision for it.
func (e *env) answer(t *testing.T, sessionID string, decide func(req *types.PermissionRequest) types.PermissionDecision) {
	t.Helper()
	var req *types.PermissionRequest
	require.Eventually(t, func() bool {
		pending := e.svc.Pending(sessionID)
		if len(pending) == 0 {
			return false
		}
		req = pending[0]
		return true
	}, 2*time.Second, time.Millisecond)

	d := decide(req)
	d.RequestID = req.ID
	require.NoError(t, e.svc.SubmitDecision(context.Background(), d))
}
