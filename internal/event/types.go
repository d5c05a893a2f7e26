package event

import "github.com/gatehouse-ai/gatehouse/pkg/types"

// SessionCreatedData is the payload for session.created events.
type SessionCreatedData struct {
	Info *types.Session `json:"info"`
}

// SessionUpdatedData is the payload for session.updated events.
type SessionUpdatedData struct {
	Info *types.Session `json:"info"`
}

// SessionDeletedData is the payload for session.deleted events.
type SessionDeletedData struct {
	Info *types.Session `json:"info"`
}

// SessionIdleData is the payload for session.idle events.
type SessionIdleData struct {
	SessionID string `json:"sessionID"`
}

// TaskCreatedData is the payload for task.created events.
type TaskCreatedData struct {
	Info *types.Task `json:"info"`
}

// TaskUpdatedData is the payload for task.updated events.
type TaskUpdatedData struct {
	Info *types.Task `json:"info"`
}

// PermissionRequestedData is the payload for permission.requested events.
// Consumers render a prompt and eventually answer through the decision
// intake endpoint.
type PermissionRequestedData struct {
	RequestID string         `json:"requestID"`
	SessionID string         `json:"sessionID"`
	TaskID    string         `json:"taskID"`
	ToolName  string         `json:"toolName"`
	ToolInput map[string]any `json:"toolInput"`
	ToolUseID string         `json:"toolUseID,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Patterns  []string       `json:"patterns,omitempty"`
	Preview   string         `json:"preview,omitempty"`
}

// PermissionRepliedData is the payload for permission.replied events.
type PermissionRepliedData struct {
	RequestID string `json:"requestID"`
	SessionID string `json:"sessionID"`
	Allow     bool   `json:"allow"`
	Reason    string `json:"reason,omitempty"`
	DecidedBy string `json:"decidedBy"`
}
