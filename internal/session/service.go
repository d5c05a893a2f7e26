// Package session provides session management.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatehouse-ai/gatehouse/internal/event"
	"github.com/gatehouse-ai/gatehouse/internal/storage"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// Service manages session records.
type Service struct {
	store *storage.Store
	bus   *event.Bus
}

// NewService creates a session service.
func NewService(store *storage.Store, bus *event.Bus) *Service {
	return &Service{store: store, bus: bus}
}

// Create creates a new session bound to a workspace.
func (s *Service) Create(ctx context.Context, workspaceID, title string) (*types.Session, error) {
	if title == "" {
		title = "New Session"
	}
	now := time.Now().UnixMilli()

	sess := &types.Session{
		ID:          ulid.Make().String(),
		WorkspaceID: workspaceID,
		Title:       title,
		Status:      types.SessionIdle,
		Time:        types.SessionTime{Created: now, Updated: now},
	}

	if err := s.store.Put(ctx, []string{"session", sess.ID}, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.bus.Publish(event.Event{Type: event.SessionCreated, Data: event.SessionCreatedData{Info: sess}})
	return sess, nil
}

// Get retrieves a session by ID.
func (s *Service) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	var sess types.Session
	if err := s.store.Get(ctx, []string{"session", sessionID}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Exists reports whether the session record is present.
func (s *Service) Exists(ctx context.Context, sessionID string) bool {
	return s.store.Exists(ctx, []string{"session", sessionID})
}

// List returns all sessions in creation order.
func (s *Service) List(ctx context.Context) ([]*types.Session, error) {
	var sessions []*types.Session
	err := s.store.Scan(ctx, []string{"session"}, func(key string, data json.RawMessage) error {
		var sess types.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return err
		}
		sessions = append(sessions, &sess)
		return nil
	})
	return sessions, err
}

// UpdateStatus re-fetches the session, sets its status, and writes it back.
// Returns storage.ErrNotFound if the session was deleted.
func (s *Service) UpdateStatus(ctx context.Context, sessionID string, status types.SessionStatus) (*types.Session, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Status = status
	sess.Time.Updated = time.Now().UnixMilli()
	if err := s.store.Put(ctx, []string{"session", sessionID}, sess); err != nil {
		return nil, err
	}

	s.bus.Publish(event.Event{Type: event.SessionUpdated, Data: event.SessionUpdatedData{Info: sess}})
	if status == types.SessionIdle {
		s.bus.Publish(event.Event{Type: event.SessionIdle, Data: event.SessionIdleData{SessionID: sessionID}})
	}
	return sess, nil
}

// Grant unions a tool name into the session allow-list. The session is
// re-fetched first so a grant remembered by a sibling evaluation is never
// clobbered.
func (s *Service) Grant(ctx context.Context, sessionID, toolName string) (*types.Session, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.Permissions.Grant(toolName) {
		return sess, nil
	}
	sess.Time.Updated = time.Now().UnixMilli()
	if err := s.store.Put(ctx, []string{"session", sessionID}, sess); err != nil {
		return nil, err
	}

	s.bus.Publish(event.Event{Type: event.SessionUpdated, Data: event.SessionUpdatedData{Info: sess}})
	return sess, nil
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, []string{"session", sessionID}); err != nil {
		return err
	}

	s.bus.Publish(event.Event{Type: event.SessionDeleted, Data: event.SessionDeletedData{Info: sess}})
	return nil
}
