// Package types provides the core data types for the gatehouse daemon.
package types

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	SessionRunning            SessionStatus = "running"
	SessionAwaitingPermission SessionStatus = "awaiting_permission"
	SessionIdle               SessionStatus = "idle"
)

// Session represents a long-lived conversation context for an agent.
type Session struct {
	ID          string           `json:"id"`
	WorkspaceID string           `json:"workspaceID"`
	Title       string           `json:"title"`
	Status      SessionStatus    `json:"status"`
	Permissions PermissionConfig `json:"permissions"`
	Time        SessionTime      `json:"time"`
}

// SessionTime contains timestamps for a session.
type SessionTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}
