// Package repo manages repository records and the project-local settings
// artifact mirrored from project-scoped permission grants.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatehouse-ai/gatehouse/internal/storage"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// Service manages repository records.
type Service struct {
	store *storage.Store

	// Cached settings-artifact rules per repository, refreshed by the
	// watcher and on mirror writes.
	mu    sync.RWMutex
	rules map[string][]string
}

// NewService creates a repository service.
func NewService(store *storage.Store) *Service {
	return &Service{
		store: store,
		rules: make(map[string][]string),
	}
}

// Create registers a repository.
func (s *Service) Create(ctx context.Context, name, path string) (*types.Repository, error) {
	now := time.Now().UnixMilli()
	repo := &types.Repository{
		ID:      ulid.Make().String(),
		Name:    name,
		Path:    path,
		Created: now,
		Updated: now,
	}
	if err := s.store.Put(ctx, []string{"repository", repo.ID}, repo); err != nil {
		return nil, fmt.Errorf("save repository: %w", err)
	}
	return repo, nil
}

// Get retrieves a repository by ID.
func (s *Service) Get(ctx context.Context, repositoryID string) (*types.Repository, error) {
	var repo types.Repository
	if err := s.store.Get(ctx, []string{"repository", repositoryID}, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// List returns all repositories.
func (s *Service) List(ctx context.Context) ([]*types.Repository, error) {
	var repos []*types.Repository
	err := s.store.Scan(ctx, []string{"repository"}, func(key string, data json.RawMessage) error {
		var repo types.Repository
		if err := json.Unmarshal(data, &repo); err != nil {
			return err
		}
		repos = append(repos, &repo)
		return nil
	})
	return repos, err
}

// Grant unions a tool name into the repository allow-list. The record is
// re-fetched first so concurrent grants from other evaluations survive.
func (s *Service) Grant(ctx context.Context, repositoryID, toolName string) (*types.Repository, error) {
	repo, err := s.Get(ctx, repositoryID)
	if err != nil {
		return nil, err
	}

	if !repo.Permissions.Grant(toolName) {
		return repo, nil
	}
	repo.Updated = time.Now().UnixMilli()
	if err := s.store.Put(ctx, []string{"repository", repositoryID}, repo); err != nil {
		return nil, err
	}
	return repo, nil
}

// Rules returns the cached settings-artifact rules for a repository.
func (s *Service) Rules(repositoryID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules[repositoryID]
}

func (s *Service) setRules(repositoryID string, rules []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[repositoryID] = rules
}
