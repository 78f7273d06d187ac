package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"dugout/internal/api"
	"dugout/internal/capture"
	"dugout/internal/config"
	"dugout/internal/deps"
	"dugout/internal/library"
	"dugout/internal/logging"
	"dugout/internal/notifications"
	"dugout/internal/preflight"
	"dugout/internal/queue"
	"dugout/internal/staging"
	"dugout/internal/workflow"
)

// Daemon coordinates the background processing services and enforces
// single-instance execution via a lock file next to the queue database.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	library  *library.Store
	workflow *workflow.Manager
	recorder *capture.Manager
	notifier notifications.Service
	gate     *preflight.Gate
	sweeper  *staging.Sweeper
	logPath  string

	lockPath string
	lock     *flock.Flock

	cameraMon *cameraMonitor
	importMon *importMonitor

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Dependencies lets callers swap collaborators. Zero fields fall back to
// production defaults built from the config.
type Dependencies struct {
	Recorder *capture.Manager
	Notifier notifications.Service
	Gate     *preflight.Gate
	Sweeper  *staging.Sweeper
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Workflow      workflow.StatusSummary
	Capture       capture.Status
	CameraPresent bool
	QueueDBPath   string
	LockFilePath  string
}

// New constructs a daemon with production dependencies.
func New(cfg *config.Config, store *queue.Store, lib *library.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	return NewWithDependencies(cfg, store, lib, logger, wf, Dependencies{})
}

// NewWithDependencies constructs a daemon with injected collaborators.
func NewWithDependencies(cfg *config.Config, store *queue.Store, lib *library.Store, logger *slog.Logger, wf *workflow.Manager, deps Dependencies) (*Daemon, error) {
	if cfg == nil || store == nil || lib == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, stores, logger, and workflow manager")
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = capture.NewManagerWithNotifier(cfg, store, logger, notifier)
	}
	gate := deps.Gate
	if gate == nil {
		gate = preflight.NewGate(cfg)
	}
	sweeper := deps.Sweeper
	if sweeper == nil {
		sweeper = staging.NewSweeper(cfg, store, logger)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "dugout.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		library:  lib,
		workflow: wf,
		recorder: recorder,
		notifier: notifier,
		gate:     gate,
		sweeper:  sweeper,
		logPath:  filepath.Join(cfg.Paths.LogDir, "dugout.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.cameraMon = newCameraMonitor(cfg, logger)
	d.importMon = newImportMonitor(cfg, logger, d.enqueueWatchedFile)
	return d, nil
}

// Start launches the workflow manager, the monitors, and the staging sweeper,
// and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dugout daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	d.cameraMon.Start(d.ctx)
	d.importMon.Start(d.ctx)
	d.sweeper.Start(d.ctx)

	d.running.Store(true)
	d.logger.Info("dugout daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock. Any active
// recording is cancelled; its partial file is discarded rather than enqueued
// half-written.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.recorder.Current().Active {
		if err := d.recorder.Cancel(context.Background()); err != nil {
			d.logger.Warn("failed to cancel recording during shutdown", logging.Error(err))
		}
	}

	d.importMon.Stop()
	d.cameraMon.Stop()
	d.sweeper.Stop()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("dugout daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Workflow:      d.workflow.Status(ctx),
		Capture:       d.recorder.Current(),
		CameraPresent: d.cameraMon.Present(),
		QueueDBPath:   d.cfg.QueueDatabasePath(),
		LockFilePath:  d.lockPath,
	}
}

// GateReport re-evaluates the permission gate on demand for status displays.
func (d *Daemon) GateReport() preflight.Report {
	return d.gate.Evaluate()
}

// LogPath returns the path to the daemon log pointer file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// StorageStatus probes free space under the staging directory.
func (d *Daemon) StorageStatus() (api.StorageStatus, error) {
	probe, err := preflight.ProbeStorage(d.cfg.Paths.StagingDir)
	if err != nil {
		return api.StorageStatus{Path: d.cfg.Paths.StagingDir}, err
	}
	return api.FromStorageProbe(probe, d.cfg.MinFreeSpaceBytes()), nil
}

// Dependencies reports availability of the external tools the pipeline
// shells out to.
func (d *Daemon) Dependencies() []deps.Status {
	return deps.CheckBinaries(deps.MediaToolRequirements(d.cfg.FFmpegBinary(), d.cfg.FFprobeBinary()))
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
