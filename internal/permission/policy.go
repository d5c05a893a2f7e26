package permission

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gatehouse-ai/gatehouse/internal/logging"
	"github.com/gatehouse-ai/gatehouse/internal/repo"
	"github.com/gatehouse-ai/gatehouse/internal/session"
	"github.com/gatehouse-ai/gatehouse/internal/workspace"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// Resolver answers whether a tool call is already covered by a
// remembered grant before anything is broadcast to deciders. It checks
// the session allow-list, then the repository allow-list reached
// through the session's workspace, then the repository's settings
// rules. Lookup failures past the session itself count as no match;
// the call falls through to an interactive prompt instead of failing.
type Resolver struct {
	sessions   *session.Service
	workspaces *workspace.Service
	repos      *repo.Service
	log        zerolog.Logger
}

func NewResolver(sessions *session.Service, workspaces *workspace.Service, repos *repo.Service) *Resolver {
	return &Resolver{
		sessions:   sessions,
		workspaces: workspaces,
		repos:      repos,
		log:        logging.Component("permission.policy"),
	}
}

// Allowed reports whether the tool call is pre-approved. It returns
// ErrSessionGone when the session no longer exists.
func (r *Resolver) Allowed(ctx context.Context, sessionID, toolName string, toolInput map[string]any) (bool, error) {
	sess, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, asGone(err)
	}

	if sess.Permissions.Allows(toolName) {
		return true, nil
	}

	repositoryID := r.repositoryFor(ctx, sess)
	if repositoryID == "" {
		return false, nil
	}

	rep, err := r.repos.Get(ctx, repositoryID)
	if err == nil && rep.Permissions.Allows(toolName) {
		return true, nil
	}

	for _, rule := range r.repos.Rules(repositoryID) {
		if MatchRule(rule, toolName, toolInput) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) repositoryFor(ctx context.Context, sess *types.Session) string {
	if sess.WorkspaceID == "" {
		return ""
	}
	ws, err := r.workspaces.Get(ctx, sess.WorkspaceID)
	if err != nil {
		r.log.Debug().Err(err).Str("workspace", sess.WorkspaceID).Msg("workspace lookup failed during policy check")
		return ""
	}
	return ws.RepositoryID
}
