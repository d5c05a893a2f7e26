package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-ai/gatehouse/internal/permission"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// PermissionResponse is the body for POST /session/{sessionID}/permissions/{requestID}.
type PermissionResponse struct {
	Allow     bool        `json:"allow"`
	Reason    string      `json:"reason,omitempty"`
	Remember  bool        `json:"remember"`
	Scope     types.Scope `json:"scope,omitempty"`
	DecidedBy string      `json:"decidedBy,omitempty"`
}

// listPendingPermissions handles GET /session/{sessionID}/permissions
func (s *Server) listPendingPermissions(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	pending := s.perms.Pending(sessionID)
	if pending == nil {
		pending = []*types.PermissionRequest{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// respondPermission handles POST /session/{sessionID}/permissions/{requestID}.
// Late and duplicate submissions are acknowledged as success; the
// request they answer has already been settled and nothing changes.
func (s *Server) respondPermission(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	var req PermissionResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	err := s.perms.SubmitDecision(r.Context(), types.PermissionDecision{
		RequestID: requestID,
		Allow:     req.Allow,
		Reason:    req.Reason,
		Remember:  req.Remember,
		Scope:     req.Scope,
		DecidedBy: req.DecidedBy,
	})
	if err != nil {
		var ise *permission.InvalidScopeError
		if errors.As(err, &ise) {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeSuccess(w)
}

// health handles GET /health. The pending and lock counts must both
// drain to zero on an idle daemon; residuals indicate leaked waiters.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	pending, held := s.perms.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"pending":      pending,
		"sessionLocks": held,
	})
}
