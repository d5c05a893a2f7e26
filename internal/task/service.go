// Package task provides task management and the task timeline.
package task

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

// Service manages task records and their timelines.
type Service struct {
	store *storage.Store
	bus   *event.Bus
}

// NewService creates a task service.
func NewService(store *storage.Store, bus *event.Bus) *Service {
	return &Service{store: store, bus: bus}
}

// Create creates a new task in CREATED state.
func (s *Service) Create(ctx context.Context, sessionID, title string) (*types.Task, error) {
	now := time.Now().UnixMilli()
	task := &types.Task{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Title:     title,
		Status:    types.TaskCreated,
		Time:      types.TaskTime{Created: now, Updated: now},
	}

	if err := s.store.Put(ctx, []string{"task", task.ID}, task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}

	s.bus.Publish(event.Event{Type: event.TaskCreated, Data: event.TaskCreatedData{Info: task}})
	return task, nil
}

// Get retrieves a task by ID.
func (s *Service) Get(ctx context.Context, taskID string) (*types.Task, error) {
	var task types.Task
	if err := s.store.Get(ctx, []string{"task", taskID}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns all tasks, optionally filtered by session.
func (s *Service) List(ctx context.Context, sessionID string) ([]*types.Task, error) {
	var tasks []*types.Task
	err := s.store.Scan(ctx, []string{"task"}, func(key string, data json.RawMessage) error {
		var task types.Task
		if err := json.Unmarshal(data, &task); err != nil {
			return err
		}
		if sessionID == "" || task.SessionID == sessionID {
			tasks = append(tasks, &task)
		}
		return nil
	})
	return tasks, err
}

// UpdateStatus re-fetches the task, sets its status, and writes it back.
func (s *Service) UpdateStatus(ctx context.Context, taskID string, status types.TaskStatus) (*types.Task, error) {
	return s.update(ctx, taskID, func(task *types.Task) {
		task.Status = status
	})
}

// Fail marks a task FAILED with the given error text.
func (s *Service) Fail(ctx context.Context, taskID, errText string) (*types.Task, error) {
	return s.update(ctx, taskID, func(task *types.Task) {
		task.Status = types.TaskFailed
		task.Error = errText
	})
}

func (s *Service) update(ctx context.Context, taskID string, mutate func(*types.Task)) (*types.Task, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	mutate(task)
	task.Time.Updated = time.Now().UnixMilli()
	if err := s.store.Put(ctx, []string{"task", taskID}, task); err != nil {
		return nil, err
	}

	s.bus.Publish(event.Event{Type: event.TaskUpdated, Data: event.TaskUpdatedData{Info: task}})
	return task, nil
}

// AppendRecord writes a permission record onto the task timeline, keyed by
// request ID.
func (s *Service) AppendRecord(ctx context.Context, taskID string, rec *types.PermissionRecord) error {
	if rec.RequestID == "" {
		rec.RequestID = ulid.Make().String()
	}
	return s.store.Put(ctx, []string{"timeline", taskID, rec.RequestID}, rec)
}

// ResolveRecord updates the audit record for a request with its outcome.
func (s *Service) ResolveRecord(ctx context.Context, taskID, requestID string, mutate func(*types.PermissionRecord)) error {
	var rec types.PermissionRecord
	if err := s.store.Get(ctx, []string{"timeline", taskID, requestID}, &rec); err != nil {
		return err
	}
	mutate(&rec)
	return s.store.Put(ctx, []string{"timeline", taskID, requestID}, &rec)
}

// Timeline returns the task's permission records in creation order.
func (s *Service) Timeline(ctx context.Context, taskID string) ([]*types.PermissionRecord, error) {
	var records []*types.PermissionRecord
	err := s.store.Scan(ctx, []string{"timeline", taskID}, func(key string, data json.RawMessage) error {
		var rec types.PermissionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		records = append(records, &rec)
		return nil
	})
	return records, err
}
