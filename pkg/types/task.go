package types

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskCreated            TaskStatus = "CREATED"
	TaskRunning            TaskStatus = "RUNNING"
	TaskStopping           TaskStatus = "STOPPING"
	TaskAwaitingPermission TaskStatus = "AWAITING_PERMISSION"
	TaskCompleted          TaskStatus = "COMPLETED"
	TaskFailed             TaskStatus = "FAILED"
	TaskStopped            TaskStatus = "STOPPED"
)

// Terminal reports whether the status is a final state.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskStopped:
		return true
	}
	return false
}

// Task represents one bounded prompt-to-completion unit of work within a session.
type Task struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionID"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	Time      TaskTime   `json:"time"`
}

// TaskTime contains timestamps for a task.
type TaskTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}
