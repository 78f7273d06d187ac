package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"log/slog"

	"dugout/internal/config"
	"dugout/internal/logging"
	"dugout/internal/notifications"
	"dugout/internal/queue"
)

// enqueueFunc hands a settled watch-folder file to the daemon for queueing.
type enqueueFunc func(ctx context.Context, path string, size int64) error

// importMonitor polls the import directory for new video files. A file is
// only enqueued once its size holds steady across two polls, so half-copied
// transfers never enter the pipeline.
type importMonitor struct {
	cfg          *config.Config
	logger       *slog.Logger
	enqueue      enqueueFunc
	dir          string
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	sizes   map[string]int64
	queued  map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// newImportMonitor creates a watch-folder monitor. Returns nil when watching
// is disabled or no import directory is configured; all methods tolerate a
// nil receiver.
func newImportMonitor(cfg *config.Config, logger *slog.Logger, enqueue enqueueFunc) *importMonitor {
	if cfg == nil || !cfg.Capture.WatchEnabled {
		return nil
	}
	dir := strings.TrimSpace(cfg.Paths.ImportDir)
	if dir == "" {
		return nil
	}

	poll := time.Duration(cfg.Workflow.ImportPollInterval) * time.Second
	if poll <= 0 {
		poll = 10 * time.Second
	}

	return &importMonitor{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "import-monitor"),
		enqueue:      enqueue,
		dir:          dir,
		pollInterval: poll,
		sizes:        make(map[string]int64),
		queued:       make(map[string]struct{}),
	}
}

func (m *importMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("import monitor already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.ctx = runCtx
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop()

	m.logger.Info("import monitor started",
		logging.String(logging.FieldEventType, "import_monitor_started"),
		logging.String("directory", m.dir),
		logging.Duration("poll_interval", m.pollInterval),
	)
	return nil
}

func (m *importMonitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Running reports whether the import monitor is active.
func (m *importMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *importMonitor) loop() {
	defer m.wg.Done()

	m.poll()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *importMonitor) poll() {
	ctx := m.ctx
	if ctx == nil {
		return
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.logger.Warn("import directory scan failed; will retry",
			logging.Error(err),
			logging.String(logging.FieldEventType, "import_scan_failed"),
			logging.String(logging.FieldErrorHint, "check import directory path and permissions"),
		)
		return
	}

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !importCandidate(name) {
			continue
		}
		path := filepath.Join(m.dir, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}
		seen[path] = struct{}{}

		m.mu.Lock()
		_, alreadyQueued := m.queued[path]
		lastSize, known := m.sizes[path]
		m.sizes[path] = info.Size()
		m.mu.Unlock()

		if alreadyQueued {
			continue
		}
		// First sighting, or still growing: wait for the next poll.
		if !known || lastSize != info.Size() {
			continue
		}

		if err := m.enqueue(ctx, path, info.Size()); err != nil {
			m.logger.Warn("failed to enqueue watched file; will retry",
				logging.Error(err),
				logging.String("path", path),
				logging.String(logging.FieldEventType, "import_enqueue_failed"),
			)
			continue
		}
		m.mu.Lock()
		m.queued[path] = struct{}{}
		m.mu.Unlock()
	}

	// Forget files that left the directory so a re-copy starts fresh.
	m.mu.Lock()
	for path := range m.sizes {
		if _, ok := seen[path]; !ok {
			delete(m.sizes, path)
			delete(m.queued, path)
		}
	}
	m.mu.Unlock()
}

// importCandidate filters directory entries down to finished video files.
// Hidden files and common partial-transfer suffixes are skipped.
func importCandidate(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".part") || strings.HasSuffix(lower, ".tmp") || strings.HasSuffix(lower, ".crdownload") {
		return false
	}
	_, ok := importExtensions[filepath.Ext(lower)]
	return ok
}

// enqueueWatchedFile queues a settled watch-folder file. Watch items arrive
// with no athlete assignment, so they park for review immediately and wait
// for an annotation before processing resumes.
func (d *Daemon) enqueueWatchedFile(ctx context.Context, path string, size int64) error {
	existing, err := d.store.FindBySourcePath(ctx, path)
	if err != nil {
		return err
	}
	if existing != nil && existing.IsInWorkflow() {
		return nil
	}

	item, err := d.store.NewClip(ctx, queue.NewClipRequest{
		SourcePath: path,
		Origin:     queue.OriginWatch,
	})
	if err != nil {
		return err
	}

	item.SetReview(queue.AthleteMissingReason)
	if err := d.store.Update(ctx, item); err != nil {
		return err
	}

	d.logger.Info("watched file queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("path", path),
		logging.String("title", item.ClipTitle),
		logging.Int64("size_bytes", size),
		logging.String(logging.FieldEventType, "import_file_queued"),
	)
	if err := d.notifier.Publish(ctx, notifications.EventClipDetected, notifications.Payload{
		"clipTitle": item.ClipTitle,
	}); err != nil {
		d.logger.Warn("clip-detected notification failed", logging.Error(err))
	}
	if err := d.notifier.Publish(ctx, notifications.EventReviewRequired, notifications.Payload{
		"clipTitle": item.ClipTitle,
		"reason":    queue.AthleteMissingReason,
	}); err != nil {
		d.logger.Warn("review notification failed", logging.Error(err))
	}
	return nil
}
