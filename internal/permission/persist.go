package permission

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gatehouse-ai/gatehouse/internal/logging"
	"github.com/gatehouse-ai/gatehouse/internal/repo"
	"github.com/gatehouse-ai/gatehouse/internal/session"
	"github.com/gatehouse-ai/gatehouse/internal/workspace"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// Router persists remembered approvals at the scope the decider chose.
// Session scope lands on the session's allow-list; project scope lands
// on the repository reached through the session's workspace, plus a
// best-effort mirror into the repository's settings file.
type Router struct {
	sessions   *session.Service
	workspaces *workspace.Service
	repos      *repo.Service
	log        zerolog.Logger
}

func NewRouter(sessions *session.Service, workspaces *workspace.Service, repos *repo.Service) *Router {
	return &Router{
		sessions:   sessions,
		workspaces: workspaces,
		repos:      repos,
		log:        logging.Component("permission.persist"),
	}
}

// Remember persists an approved decision. Scope once is a no-op; an
// unknown scope is an error rather than a silent skip.
func (r *Router) Remember(ctx context.Context, req *types.PermissionRequest, scope types.Scope) error {
	switch scope {
	case types.ScopeOnce:
		return nil
	case types.ScopeSession:
		_, err := r.sessions.Grant(ctx, req.SessionID, req.ToolName)
		if err != nil {
			return asGone(err)
		}
		return nil
	case types.ScopeProject:
		return r.rememberProject(ctx, req)
	}
	return fmt.Errorf("unknown permission scope %q", scope)
}

func (r *Router) rememberProject(ctx context.Context, req *types.PermissionRequest) error {
	sess, err := r.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return asGone(err)
	}
	if sess.WorkspaceID == "" {
		return fmt.Errorf("session %s has no workspace for project grant", sess.ID)
	}
	ws, err := r.workspaces.Get(ctx, sess.WorkspaceID)
	if err != nil {
		return fmt.Errorf("load workspace %s: %w", sess.WorkspaceID, err)
	}
	if ws.RepositoryID == "" {
		return fmt.Errorf("workspace %s has no repository for project grant", ws.ID)
	}

	if _, err := r.repos.Grant(ctx, ws.RepositoryID, req.ToolName); err != nil {
		return fmt.Errorf("grant on repository %s: %w", ws.RepositoryID, err)
	}

	for _, rule := range settingsRules(req) {
		r.repos.MirrorGrant(ctx, ws.RepositoryID, rule)
	}
	return nil
}

// settingsRules derives the settings-file rules for a request. Bash
// calls mirror the per-command patterns; everything else mirrors the
// bare tool name.
func settingsRules(req *types.PermissionRequest) []string {
	if req.ToolName == "Bash" && len(req.Patterns) > 0 {
		rules := make([]string, 0, len(req.Patterns))
		for _, p := range req.Patterns {
			rules = append(rules, fmt.Sprintf("Bash(%s)", p))
		}
		return rules
	}
	return []string{req.ToolName}
}
