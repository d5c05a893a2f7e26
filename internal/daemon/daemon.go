// Package daemon assembles the gatehouse services into a running
// process: storage, event bus, arbitration, settings watcher and the
// HTTP server.
package daemon

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/gatehouse-ai/gatehouse/internal/config"
	"github.com/gatehouse-ai/gatehouse/internal/event"
	"github.com/gatehouse-ai/gatehouse/internal/logging"
	"github.com/gatehouse-ai/gatehouse/internal/permission"
	"github.com/gatehouse-ai/gatehouse/internal/repo"
	"github.com/gatehouse-ai/gatehouse/internal/server"
	"github.com/gatehouse-ai/gatehouse/internal/session"
	"github.com/gatehouse-ai/gatehouse/internal/storage"
	"github.com/gatehouse-ai/gatehouse/internal/task"
	"github.com/gatehouse-ai/gatehouse/internal/workspace"
	"github.com/gatehouse-ai/gatehouse/pkg/types"
)

// Daemon owns the full service graph for one gatehouse process.
type Daemon struct {
	cfg *types.Config

	Store      *storage.Store
	Bus        *event.Bus
	Sessions   *session.Service
	Tasks      *task.Service
	Workspaces *workspace.Service
	Repos      *repo.Service
	Perms      *permission.Service

	server  *server.Server
	watcher *repo.Watcher
	wg      conc.WaitGroup
}

// New builds a daemon from configuration. The settings watcher is
// optional; a failure to create it is logged and hot reload is skipped.
func New(cfg *types.Config) *Daemon {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = config.GetPaths().StoragePath()
	}

	store := storage.New(dataDir)
	bus := event.NewBus()

	sessions := session.NewService(store, bus)
	tasks := task.NewService(store, bus)
	workspaces := workspace.NewService(store)
	repos := repo.NewService(store)

	timeout := time.Duration(cfg.Permission.TimeoutSeconds) * time.Second
	perms := permission.NewService(sessions, tasks, workspaces, repos, bus, permission.Options{Timeout: timeout})

	srvCfg := server.DefaultConfig()
	if cfg.Port != 0 {
		srvCfg.Port = cfg.Port
	}
	if cfg.Host != "" {
		srvCfg.Host = cfg.Host
	}

	d := &Daemon{
		cfg:        cfg,
		Store:      store,
		Bus:        bus,
		Sessions:   sessions,
		Tasks:      tasks,
		Workspaces: workspaces,
		Repos:      repos,
		Perms:      perms,
	}
	d.server = server.New(srvCfg, store, bus, sessions, tasks, workspaces, repos, perms)

	watcher, err := repo.NewWatcher(repos)
	if err != nil {
		logging.Warn().Err(err).Msg("settings watcher unavailable; hot reload disabled")
	} else {
		d.watcher = watcher
	}

	return d
}

// Start brings the daemon up: the settings watcher begins following
// known repositories and the HTTP server starts listening. Start does
// not block; use Shutdown to stop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.watcher != nil {
		repos, err := d.Repos.List(ctx)
		if err != nil {
			return err
		}
		for _, r := range repos {
			d.watcher.Add(r.ID, r.Path)
			if _, err := d.Repos.LoadSettings(ctx, r.ID); err != nil {
				logging.Warn().Err(err).Str("repositoryID", r.ID).Msg("initial settings load failed")
			}
		}
		d.wg.Go(func() {
			d.watcher.Run(ctx)
		})
	}

	d.wg.Go(func() {
		logging.Info().
			Str("host", d.serverHost()).
			Int("port", d.serverPort()).
			Msg("gatehouse server listening")
		if err := d.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("server stopped unexpectedly")
		}
	})

	return nil
}

// Shutdown stops the HTTP server, the watcher and the bus, waiting for
// background goroutines to finish.
func (d *Daemon) Shutdown(ctx context.Context) error {
	err := d.server.Shutdown(ctx)
	if d.watcher != nil {
		if cerr := d.watcher.Close(); err == nil {
			err = cerr
		}
	}
	d.wg.Wait()
	d.Bus.Close()
	return err
}

// Server exposes the underlying HTTP server, for tests.
func (d *Daemon) Server() *server.Server {
	return d.server
}

func (d *Daemon) serverHost() string {
	if d.cfg.Host != "" {
		return d.cfg.Host
	}
	return server.DefaultConfig().Host
}

func (d *Daemon) serverPort() int {
	if d.cfg.Port != 0 {
		return d.cfg.Port
	}
	return server.DefaultConfig().Port
}
