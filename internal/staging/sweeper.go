package staging

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"log/slog"

	"dugout/internal/config"
	"dugout/internal/logging"
	"dugout/internal/queue"
)

// Result summarizes one sweep pass.
type Result struct {
	FilesRemoved int
	DirsRemoved  int
	BytesFreed   int64
}

// Sweeper periodically removes abandoned staging files. A file is abandoned
// when no queue item references it and its modification time is older than
// workflow.staging_max_age_hours.
type Sweeper struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger

	interval time.Duration
	maxAge   time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	ctx     context.Context
	wg      sync.WaitGroup
}

// NewSweeper constructs a sweeper from the workflow configuration.
func NewSweeper(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Sweeper {
	sweepLogger := logger
	if sweepLogger != nil {
		sweepLogger = sweepLogger.With(logging.String("component", "staging"))
	}
	return &Sweeper{
		store:    store,
		cfg:      cfg,
		logger:   sweepLogger,
		interval: time.Duration(cfg.Workflow.CleanupSweepMinutes) * time.Minute,
		maxAge:   time.Duration(cfg.Workflow.StagingMaxAgeHours) * time.Hour,
	}
}

// Start launches the sweep loop. The first pass runs immediately.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.ctx = loopCtx
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()
}

// Stop halts the loop and waits for any in-flight sweep.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	s.sweepAndLog()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog()
		}
	}
}

func (s *Sweeper) sweepAndLog() {
	result, err := s.Sweep(s.ctx)
	if err != nil {
		s.logger.Warn("staging sweep failed", logging.Error(err))
		return
	}
	if result.FilesRemoved == 0 && result.DirsRemoved == 0 {
		return
	}
	s.logger.Info(
		"staging sweep completed",
		logging.Int("files_removed", result.FilesRemoved),
		logging.Int("dirs_removed", result.DirsRemoved),
		logging.Int64("bytes_freed", result.BytesFreed),
	)
}

// Sweep runs one cleanup pass. Files referenced by any queue item are always
// kept, whatever their age; so are files younger than the age floor, which
// covers captures still being written.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	stagingDir := strings.TrimSpace(s.cfg.Paths.StagingDir)
	if stagingDir == "" {
		return Result{}, nil
	}
	if _, err := os.Stat(stagingDir); err != nil {
		if os.IsNotExist(err) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("stat staging dir: %w", err)
	}

	protected, err := s.protectedPaths(ctx)
	if err != nil {
		return Result{}, err
	}
	cutoff := time.Now().Add(-s.maxAge)

	var result Result
	var dirs []string
	err = filepath.WalkDir(stagingDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// The tree mutates under us; skip what vanished.
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			if path != stagingDir {
				dirs = append(dirs, path)
			}
			return nil
		}
		if _, keep := protected[filepath.Clean(path)]; keep {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn("failed to remove stale file", logging.String("path", path), logging.Error(err))
			}
			return nil
		}
		result.FilesRemoved++
		result.BytesFreed += info.Size()
		s.logger.Info("removed stale staging file", logging.String("path", path), logging.Int64("size_bytes", info.Size()))
		return nil
	})
	if err != nil {
		return result, err
	}

	// Deepest first so nested empties collapse in one pass.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err == nil {
			result.DirsRemoved++
		}
	}
	return result, nil
}

// protectedPaths collects every staging path a queue item still references.
func (s *Sweeper) protectedPaths(ctx context.Context) (map[string]struct{}, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	protected := make(map[string]struct{}, len(items)*2)
	for _, item := range items {
		for _, path := range []string{item.SourcePath, item.ExportedFile} {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			protected[filepath.Clean(path)] = struct{}{}
		}
	}
	return protected, nil
}
