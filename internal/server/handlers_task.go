package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-ai/gatehouse/internal/permission"
	"github.com/gatehouse-ai/gatehouse/internal/storage"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// CreateTaskRequest is the body for POST /task.
type CreateTaskRequest struct {
	SessionID string `json:"sessionID"`
	Title     string `json:"title"`
}

// UpdateTaskStatusRequest is the body for POST /task/{taskID}/status.
type UpdateTaskStatusRequest struct {
	Status types.TaskStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// listTasks handles GET /task with an optional sessionID filter.
func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionID")

	tasks, err := s.tasks.List(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// createTask handles POST /task
func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "sessionID required")
		return
	}
	if !s.sessions.Exists(r.Context(), req.SessionID) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	}

	tk, err := s.tasks.Create(r.Context(), req.SessionID, req.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, tk)
}

// getTask handles GET /task/{taskID}
func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	tk, err := s.tasks.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "Task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tk)
}

// updateTaskStatus handles POST /task/{taskID}/status
func (s *Server) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var req UpdateTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	var (
		tk  *types.Task
		err error
	)
	if req.Status == types.TaskFailed {
		tk, err = s.tasks.Fail(r.Context(), taskID, req.Error)
	} else {
		tk, err = s.tasks.UpdateStatus(r.Context(), taskID, req.Status)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "Task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	// Stopping a task abandons whatever prompt it was waiting on;
	// without this the prompt would sit until the timeout.
	if req.Status == types.TaskStopping || req.Status == types.TaskStopped {
		s.perms.CancelSession(tk.SessionID, permission.ReasonCancelled)
	}

	writeJSON(w, http.StatusOK, tk)
}

// getTimeline handles GET /task/{taskID}/timeline
func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	timeline, err := s.tasks.Timeline(r.Context(), taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	if timeline == nil {
		timeline = []*types.PermissionRecord{}
	}
	writeJSON(w, http.StatusOK, timeline)
}
