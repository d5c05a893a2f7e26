package permission

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-ai/gatehouse/internal/repo"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

func TestRememberOnceIsNoop(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)
	ctx := context.Background()

	req := pendingRequest(sessionID, taskID)
	require.NoError(t, e.svc.router.Remember(ctx, req, types.ScopeOnce))

	sess, err := e.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, sess.Permissions.AllowedTools)
}

func TestRememberSessionScope(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)
	ctx := context.Background()

	req := pendingRequest(sessionID, taskID)
	require.NoError(t, e.svc.router.Remember(ctx, req, types.ScopeSession))

	sess, err := e.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Write"}, sess.Permissions.AllowedTools)

	// Repeat grants stay deduplicated.
	require.NoError(t, e.svc.router.Remember(ctx, req, types.ScopeSession))
	sess, err = e.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Write"}, sess.Permissions.AllowedTools)
}

func TestRememberSessionScopeGoneSession(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)
	ctx := context.Background()

	require.NoError(t, e.sessions.Delete(ctx, sessionID))

	err := e.svc.router.Remember(ctx, pendingRequest(sessionID, taskID), types.ScopeSession)
	assert.ErrorIs(t, err, ErrSessionGone)
}

func TestRememberProjectScope(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)
	ctx := context.Background()

	req := pendingRequest(sessionID, taskID)
	require.NoError(t, e.svc.router.Remember(ctx, req, types.ScopeProject))

	sess, err := e.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	ws, err := e.workspaces.Get(ctx, sess.WorkspaceID)
	require.NoError(t, err)
	rep, err := e.repos.Get(ctx, ws.RepositoryID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Write"}, rep.Permissions.AllowedTools)

	// The session allow-list is untouched; the grant lives one level up.
	assert.Empty(t, sess.Permissions.AllowedTools)

	data, err := os.ReadFile(repo.SettingsPath(e.repoPath))
	require.NoError(t, err)
	var settings repo.Settings
	require.NoError(t, json.Unmarshal(data, &settings))
	assert.Equal(t, []string{"Write"}, settings.Permissions.Allow)
}

func TestRememberProjectScopeBashPatterns(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)
	ctx := context.Background()

	req := &types.PermissionRequest{
		ID:        "req-bash",
		SessionID: sessionID,
		TaskID:    taskID,
		ToolName:  "Bash",
		ToolInput: map[string]any{"command": "git add . && git commit -m msg"},
		Patterns:  []string{"git add *", "git commit *"},
	}
	require.NoError(t, e.svc.router.Remember(ctx, req, types.ScopeProject))

	data, err := os.ReadFile(repo.SettingsPath(e.repoPath))
	require.NoError(t, err)
	var settings repo.Settings
	require.NoError(t, json.Unmarshal(data, &settings))
	assert.Equal(t, []string{"Bash(git add *)", "Bash(git commit *)"}, settings.Permissions.Allow)
}

func TestRememberUnknownScope(t *testing.T) {
	e := newEnv(t, time.Minute)
	sessionID, taskID := e.seed(t)

	err := e.svc.router.Remember(context.Background(), pendingRequest(sessionID, taskID), types.Scope("forever"))
	assert.ErrorContains(t, err, "unknown permission scope")
}

func TestRememberProjectScopeDetachedSession(t *testing.T) {
	e := newEnv(t, time.Minute)
	ctx := context.Background()

	sess, err := e.sessions.Create(ctx, "", "detached")
	require.NoError(t, err)
	tk, err := e.tasks.Create(ctx, sess.ID, "t")
	require.NoError(t, err)

	err = e.svc.router.Remember(ctx, pendingRequest(sess.ID, tk.ID), types.ScopeProject)
	assert.ErrorContains(t, err, "no workspace")
}
