package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-ai/gatehouse/internal/storage"
)

// CreateWorkspaceRequest is the body for POST /workspace.
type CreateWorkspaceRequest struct {
	RepositoryID string `json:"repositoryID"`
	Path         string `json:"path"`
}

// CreateRepositoryRequest is the body for POST /repository.
type CreateRepositoryRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// GrantPermissionRequest is the body for POST /repository/{repositoryID}/permissions.
type GrantPermissionRequest struct {
	ToolName string `json:"toolName"`
}

// listWorkspaces handles GET /workspace
func (s *Server) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := s.workspaces.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, workspaces)
}

// createWorkspace handles POST /workspace
func (s *Server) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	ws, err := s.workspaces.Create(r.Context(), req.RepositoryID, req.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

// getWorkspace handles GET /workspace/{workspaceID}
func (s *Server) getWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")

	ws, err := s.workspaces.Get(r.Context(), workspaceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "Workspace not found")
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// listRepositories handles GET /repository
func (s *Server) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := s.repos.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

// createRepository handles POST /repository
func (s *Server) createRepository(w http.ResponseWriter, r *http.Request) {
	var req CreateRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "path required")
		return
	}

	rep, err := s.repos.Create(r.Context(), req.Name, req.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

// getRepository handles GET /repository/{repositoryID}
func (s *Server) getRepository(w http.ResponseWriter, r *http.Request) {
	repositoryID := chi.URLParam(r, "repositoryID")

	rep, err := s.repos.Get(r.Context(), repositoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "Repository not found")
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// grantRepositoryPermission handles POST /repository/{repositoryID}/permissions
func (s *Server) grantRepositoryPermission(w http.ResponseWriter, r *http.Request) {
	repositoryID := chi.URLParam(r, "repositoryID")

	var req GrantPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.ToolName == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "toolName required")
		return
	}

	rep, err := s.repos.Grant(r.Context(), repositoryID, req.ToolName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "Repository not found")
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	s.repos.MirrorGrant(r.Context(), repositoryID, req.ToolName)
	writeJSON(w, http.StatusOK, rep)
}

// getRepositorySettings handles GET /repository/{repositoryID}/settings.
// Reading refreshes the in-memory rule cache as a side effect.
func (s *Server) getRepositorySettings(w http.ResponseWriter, r *http.Request) {
	repositoryID := chi.URLParam(r, "repositoryID")

	settings, err := s.repos.LoadSettings(r.Context(), repositoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "Repository not found")
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
