package repo

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/gatehouse-ai/gatehouse/internal/logging"
)

// Watcher hot-reloads settings artifacts when they are edited outside the
// daemon, so externally added allow rules take effect without a restart.
type Watcher struct {
	svc     *Service
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	repos map[string]string // settings dir -> repository ID
}

// NewWatcher creates a settings watcher bound to the repository service.
func NewWatcher(svc *Service) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		svc:     svc,
		watcher: fsw,
		repos:   make(map[string]string),
	}, nil
}

// Add starts watching a repository's settings directory. The directory is
// created lazily by mirror writes, so a missing directory is not an error;
// it is picked up on the next Add.
func (w *Watcher) Add(repositoryID, repoPath string) {
	dir := filepath.Join(repoPath, SettingsDir)

	w.mu.Lock()
	w.repos[dir] = repositoryID
	w.mu.Unlock()

	if err := w.watcher.Add(dir); err != nil {
		log := logging.Component("repo")
		log.Debug().
			Err(err).
			Str("dir", dir).
			Msg("settings dir not watchable yet")
	}
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	log := logging.Component("repo")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != SettingsFile {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			w.mu.Lock()
			repoID := w.repos[filepath.Dir(ev.Name)]
			w.mu.Unlock()
			if repoID == "" {
				continue
			}

			if _, err := w.svc.LoadSettings(ctx, repoID); err != nil {
				log.Warn().Err(err).Str("repositoryID", repoID).Msg("settings reload failed")
			} else {
				log.Debug().Str("repositoryID", repoID).Msg("settings reloaded")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
