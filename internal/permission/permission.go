package permission

import (
	"errors"
	"fmt"

	"github.com/gatehouse-ai/gatehouse/internal/event"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// Denial reasons produced by the daemon itself.
const (
	ReasonTimeout     = "Timeout"
	ReasonCancelled   = "Cancelled"
	ReasonCascade     = "Cancelled due to previous permission denial"
	ReasonSessionGone = "Session no longer exists"

	// ReasonDeniedByUser is used when a decider denies without giving
	// a reason of their own.
	ReasonDeniedByUser = "Permission denied by user"
)

// Publisher is the narrow interface the arbitration core uses to notify
// external subscribers. The event bus satisfies it; the core stays
// ignorant of how events reach user interfaces.
type Publisher interface {
	Publish(event.Event)
}

// DeniedError is returned by an evaluation when the tool call may not
// proceed. Integrations abort the underlying tool call when they see it.
type DeniedError struct {
	SessionID string
	TaskID    string
	ToolName  string
	Reason    string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied for %s: %s", e.ToolName, e.Reason)
}

// IsDenied reports whether err is a permission denial.
func IsDenied(err error) bool {
	var de *DeniedError
	return errors.As(err, &de)
}

// InvalidScopeError rejects a submitted decision whose scope is not one
// of the known values.
type InvalidScopeError struct {
	Scope types.Scope
}

func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("invalid permission scope %q", e.Scope)
}
