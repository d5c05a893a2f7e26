package types

// Scope is the breadth at which a remembered permission decision applies.
type Scope string

const (
	ScopeOnce    Scope = "once"
	ScopeSession Scope = "session"
	ScopeProject Scope = "project"
)

// Valid reports whether the scope is one of the known values.
func (s Scope) Valid() bool {
	switch s {
	case ScopeOnce, ScopeSession, ScopeProject:
		return true
	}
	return false
}

// DecidedBySystem marks decisions synthesized by the daemon itself
// (timeouts, cancellations, deletion races) rather than a user.
const DecidedBySystem = "system"

// PermissionConfig holds the allow-list attached to a session or repository.
// The list only ever grows; grants are never revoked by the daemon.
type PermissionConfig struct {
	AllowedTools []string `json:"allowedTools"`
}

// Allows reports whether the tool name is on the allow-list.
func (c *PermissionConfig) Allows(toolName string) bool {
	for _, t := range c.AllowedTools {
		if t == toolName {
			return true
		}
	}
	return false
}

// Grant unions the tool name into the allow-list. Returns false if it
// was already present.
func (c *PermissionConfig) Grant(toolName string) bool {
	if c.Allows(toolName) {
		return false
	}
	c.AllowedTools = append(c.AllowedTools, toolName)
	return true
}

// PermissionRequest is an in-flight request for a decision. It is never
// persisted; the task timeline carries a read-only projection of it.
type PermissionRequest struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionID"`
	TaskID    string         `json:"taskID"`
	ToolName  string         `json:"toolName"`
	ToolInput map[string]any `json:"toolInput"`
	ToolUseID string         `json:"toolUseID,omitempty"`
	Timestamp int64          `json:"timestamp"`

	// Presentation extras attached before broadcasting; they never
	// influence arbitration itself.
	Patterns []string `json:"patterns,omitempty"`
	Preview  string   `json:"preview,omitempty"`
}

// PermissionDecision is the outcome for one request, produced once and
// consumed exactly once.
type PermissionDecision struct {
	RequestID string `json:"requestID"`
	TaskID    string `json:"taskID"`
	Allow     bool   `json:"allow"`
	Reason    string `json:"reason,omitempty"`
	Remember  bool   `json:"remember"`
	Scope     Scope  `json:"scope"`
	DecidedBy string `json:"decidedBy"`
}

// PermissionRecordStatus is the audit status of a timeline record.
type PermissionRecordStatus string

const (
	RecordPending  PermissionRecordStatus = "pending"
	RecordApproved PermissionRecordStatus = "approved"
	RecordDenied   PermissionRecordStatus = "denied"
)

// PermissionRecord is the audit projection of a permission request,
// persisted on the owning task's timeline.
type PermissionRecord struct {
	RequestID  string                 `json:"request_id"`
	ToolName   string                 `json:"tool_name"`
	ToolInput  map[string]any         `json:"tool_input"`
	ToolUseID  string                 `json:"tool_use_id,omitempty"`
	Status     PermissionRecordStatus `json:"status"`
	Scope      Scope                  `json:"scope,omitempty"`
	ApprovedBy string                 `json:"approved_by,omitempty"`
	ApprovedAt int64                  `json:"approved_at,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
}
