// Package agent bridges the permission service into the Claude agent
// SDK's tool-permission callback.
package agent

import (
	"context"
	"errors"

	claudeagent "github.com/kazz187/claude-agent-sdk-go"

	"github.com/gatehouse-ai/gatehouse/internal/logging"
	"github.com/gatehouse-ai/gatehouse/internal/permission"
)

// PermissionFunc is the callback shape the SDK invokes before every
// tool use.
type PermissionFunc func(toolName string, input map[string]any, toolCtx claudeagent.ToolPermissionContext) (claudeagent.PermissionResult, error)

// CanUseTool binds a session and task to a permission callback. The
// callback blocks inside the SDK's tool loop until arbitration settles,
// so a pending prompt suspends the agent exactly at the tool boundary.
func CanUseTool(ctx context.Context, perms *permission.Service, sessionID, taskID string) PermissionFunc {
	check := perms.Hook(sessionID, taskID)
	log := logging.Component("agent")

	return func(toolName string, input map[string]any, _ claudeagent.ToolPermissionContext) (claudeagent.PermissionResult, error) {
		err := check(ctx, toolName, input, "")
		if err == nil {
			return claudeagent.PermissionResultAllow{}, nil
		}

		var denied *permission.DeniedError
		if errors.As(err, &denied) {
			return claudeagent.PermissionResultDeny{Message: denied.Reason}, nil
		}

		log.Error().Err(err).
			Str("sessionID", sessionID).
			Str("tool", toolName).
			Msg("permission evaluation failed")
		return nil, err
	}
}

// WithPermissions attaches the permission callback to agent options.
func WithPermissions(ctx context.Context, opts *claudeagent.ClaudeAgentOptions, perms *permission.Service, sessionID, taskID string) *claudeagent.ClaudeAgentOptions {
	opts.CanUseTool = claudeagent.CanUseToolFunc(CanUseTool(ctx, perms, sessionID, taskID))
	return opts
}
