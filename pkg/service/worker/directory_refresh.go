package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// DirectoryRefresher refreshes the channel directory of one workspace.
type DirectoryRefresher interface {
	Refresh(ctx context.Context, teamID string) error
}

// DirectoryRefreshWorker periodically refreshes the channel directory of every
// installed workspace, so channels created after installation resolve without
// a cache miss.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Installation already primed the directory, so the first refresh waits one interval
type DirectoryRefreshWorker struct {
	registry  *model.TokenRegistry
	directory DirectoryRefresher
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewDirectoryRefreshWorker creates a new worker for refreshing channel directories
func NewDirectoryRefreshWorker(registry *model.TokenRegistry, directory DirectoryRefresher, interval time.Duration) *DirectoryRefreshWorker {
	return &DirectoryRefreshWorker{
		registry:  registry,
		directory: directory,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background refresh loop. It does not block.
func (w *DirectoryRefreshWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("refresh interval must be positive", goerr.V("interval", w.interval.String()))
	}

	logging.Default().Info("Directory refresh worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *DirectoryRefreshWorker) Stop() {
	logging.Default().Info("Directory refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Directory refresh worker stopped")
}

// run is the main worker loop (runs in goroutine)
func (w *DirectoryRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refreshAll(ctx)

		case <-w.stopCh:
			logging.Default().Info("Directory refresh worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Directory refresh worker context cancelled")
			return
		}
	}
}

// refreshAll refreshes every workspace once. A failing workspace keeps its
// previous directory and does not stop the others.
func (w *DirectoryRefreshWorker) refreshAll(ctx context.Context) (failed int) {
	startTime := time.Now()
	installations := w.registry.All()

	for _, inst := range installations {
		if err := w.directory.Refresh(ctx, inst.TeamID); err != nil {
			failed++
			logging.Default().Error("Directory refresh failed (will retry next interval)",
				"team_id", inst.TeamID,
				"error", err.Error())
		}
	}

	logging.Default().Info("Directory refresh completed",
		"workspaces", len(installations),
		"failed", failed,
		"duration", time.Since(startTime).String())
	return failed
}
