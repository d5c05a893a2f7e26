package permission

import (
	"errors"

	"github.com/gatehouse-ai/gatehouse/internal/storage"
)

// ErrSessionGone marks a storage miss for a session that was deleted
// while one of its permission checks was still in flight. Callers turn
// it into a denial rather than a hard failure.
var ErrSessionGone = errors.New("session no longer exists")

// asGone maps a storage not-found to ErrSessionGone and passes every
// other error through unchanged.
func asGone(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrSessionGone
	}
	return err
}
