// Package workspace manages the workspace records linking sessions to
// repositories.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatehouse-ai/gatehouse/internal/storage"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// Service manages workspace records.
type Service struct {
	store *storage.Store
}

// NewService creates a workspace service.
func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// Create registers a workspace checked out from a repository.
func (s *Service) Create(ctx context.Context, repositoryID, path string) (*types.Workspace, error) {
	ws := &types.Workspace{
		ID:           ulid.Make().String(),
		RepositoryID: repositoryID,
		Path:         path,
		Created:      time.Now().UnixMilli(),
	}
	if err := s.store.Put(ctx, []string{"workspace", ws.ID}, ws); err != nil {
		return nil, fmt.Errorf("save workspace: %w", err)
	}
	return ws, nil
}

// Get retrieves a workspace by ID.
func (s *Service) Get(ctx context.Context, workspaceID string) (*types.Workspace, error) {
	var ws types.Workspace
	if err := s.store.Get(ctx, []string{"workspace", workspaceID}, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// List returns all workspaces.
func (s *Service) List(ctx context.Context) ([]*types.Workspace, error) {
	var workspaces []*types.Workspace
	err := s.store.Scan(ctx, []string{"workspace"}, func(key string, data json.RawMessage) error {
		var ws types.Workspace
		if err := json.Unmarshal(data, &ws); err != nil {
			return err
		}
		workspaces = append(workspaces, &ws)
		return nil
	})
	return workspaces, err
}
