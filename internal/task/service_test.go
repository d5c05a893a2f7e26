package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-ai/gatehouse/internal/event"
	"github.com/gatehouse-ai/gatehouse/internal/storage"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	bus := event.NewBus()
	t.Cleanup(func() { bus.Close() })
	return NewService(storage.New(t.TempDir()), bus)
}

func TestCreateAndStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "s1", "build")
	require.NoError(t, err)
	assert.Equal(t, types.TaskCreated, task.Status)

	task, err = svc.UpdateStatus(ctx, task.ID, types.TaskRunning)
	require.NoError(t, err)
	assert.Equal(t, types.TaskRunning, task.Status)
}

func TestFailCapturesError(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "s1", "build")
	require.NoError(t, err)

	task, err = svc.Fail(ctx, task.ID, "permission denied by user")
	require.NoError(t, err)
	assert.Equal(t, types.TaskFailed, task.Status)
	assert.Equal(t, "permission denied by user", task.Error)
	assert.True(t, task.Status.Terminal())
}

func TestListFilterBySession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "s1", "a")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "s2", "b")
	require.NoError(t, err)

	tasks, err := svc.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].Title)
}

func TestTimelineRecords(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "s1", "a")
	require.NoError(t, err)

	rec := &types.PermissionRecord{
		RequestID: "req1",
		ToolName:  "Bash",
		ToolInput: map[string]any{"command": "ls"},
		Status:    types.RecordPending,
	}
	require.NoError(t, svc.AppendRecord(ctx, task.ID, rec))

	require.NoError(t, svc.ResolveRecord(ctx, task.ID, "req1", func(r *types.PermissionRecord) {
		r.Status = types.RecordApproved
		r.ApprovedBy = "alice"
	}))

	records, err := svc.Timeline(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.RecordApproved, records[0].Status)
	assert.Equal(t, "alice", records[0].ApprovedBy)
}

func TestResolveRecordMissingTask(t *testing.T) {
	svc := newTestService(t)

	err := svc.ResolveRecord(context.Background(), "missing", "req1", func(r *types.PermissionRecord) {})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
