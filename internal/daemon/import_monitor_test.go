package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dugout/internal/config"
	"dugout/internal/logging"
	"dugout/internal/queue"
	"dugout/internal/stage"
	"dugout/internal/testsupport"
	"dugout/internal/workflow"
)

func watchConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithImportDir())
	cfg.Capture.WatchEnabled = true
	if err := os.MkdirAll(cfg.Paths.ImportDir, 0o755); err != nil {
		t.Fatalf("mkdir import dir: %v", err)
	}
	return cfg
}

// pollOnce drives the monitor synchronously without starting its loop.
func pollOnce(m *importMonitor) {
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	m.poll()
}

func TestNewImportMonitor(t *testing.T) {
	t.Run("nil config returns nil", func(t *testing.T) {
		if m := newImportMonitor(nil, nil, nil); m != nil {
			t.Error("expected nil monitor for nil config")
		}
	})

	t.Run("watch disabled returns nil", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Paths.ImportDir = t.TempDir()
		if m := newImportMonitor(cfg, nil, nil); m != nil {
			t.Error("expected nil monitor when watching is disabled")
		}
	})

	t.Run("no import dir returns nil", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Capture.WatchEnabled = true
		if m := newImportMonitor(cfg, nil, nil); m != nil {
			t.Error("expected nil monitor without an import directory")
		}
	})

	t.Run("valid config creates monitor", func(t *testing.T) {
		cfg := watchConfig(t)
		m := newImportMonitor(cfg, logging.NewNop(), func(context.Context, string, int64) error { return nil })
		if m == nil {
			t.Fatal("expected non-nil monitor")
		}
		if m.dir != cfg.Paths.ImportDir {
			t.Errorf("expected dir %s, got %s", cfg.Paths.ImportDir, m.dir)
		}
	})
}

func TestImportMonitorWaitsForStableSize(t *testing.T) {
	cfg := watchConfig(t)
	var enqueued []string
	m := newImportMonitor(cfg, logging.NewNop(), func(_ context.Context, path string, _ int64) error {
		enqueued = append(enqueued, path)
		return nil
	})

	path := filepath.Join(cfg.Paths.ImportDir, "at-bat.mp4")
	testsupport.WriteFile(t, path, 2048)

	pollOnce(m)
	if len(enqueued) != 0 {
		t.Fatalf("expected no enqueue on first sighting, got %v", enqueued)
	}

	pollOnce(m)
	if len(enqueued) != 1 || enqueued[0] != path {
		t.Fatalf("expected one enqueue after stable size, got %v", enqueued)
	}

	pollOnce(m)
	if len(enqueued) != 1 {
		t.Fatalf("expected no re-enqueue of queued file, got %v", enqueued)
	}
}

func TestImportMonitorWaitsWhileFileGrows(t *testing.T) {
	cfg := watchConfig(t)
	var enqueued []string
	m := newImportMonitor(cfg, logging.NewNop(), func(_ context.Context, path string, _ int64) error {
		enqueued = append(enqueued, path)
		return nil
	})

	path := filepath.Join(cfg.Paths.ImportDir, "inning.mov")
	testsupport.WriteFile(t, path, 1024)
	pollOnce(m)

	// Simulate an in-progress copy growing between polls.
	testsupport.WriteFile(t, path, 4096)
	pollOnce(m)
	if len(enqueued) != 0 {
		t.Fatalf("expected growing file to be skipped, got %v", enqueued)
	}

	pollOnce(m)
	if len(enqueued) != 1 {
		t.Fatalf("expected enqueue once size settled, got %v", enqueued)
	}
}

func TestImportMonitorForgetsRemovedFiles(t *testing.T) {
	cfg := watchConfig(t)
	var count int
	m := newImportMonitor(cfg, logging.NewNop(), func(context.Context, string, int64) error {
		count++
		return nil
	})

	path := filepath.Join(cfg.Paths.ImportDir, "scrimmage.mkv")
	testsupport.WriteFile(t, path, 512)
	pollOnce(m)
	pollOnce(m)
	if count != 1 {
		t.Fatalf("expected one enqueue, got %d", count)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	pollOnce(m)

	// A re-copied file goes through the full stability cycle again.
	testsupport.WriteFile(t, path, 512)
	pollOnce(m)
	if count != 1 {
		t.Fatalf("expected fresh file to wait a poll, got %d enqueues", count)
	}
	pollOnce(m)
	if count != 2 {
		t.Fatalf("expected re-copied file to enqueue again, got %d", count)
	}
}

func TestImportMonitorRetriesFailedEnqueue(t *testing.T) {
	cfg := watchConfig(t)
	var calls int
	m := newImportMonitor(cfg, logging.NewNop(), func(context.Context, string, int64) error {
		calls++
		if calls == 1 {
			return errors.New("queue busy")
		}
		return nil
	})

	path := filepath.Join(cfg.Paths.ImportDir, "tryout.mp4")
	testsupport.WriteFile(t, path, 256)
	pollOnce(m)
	pollOnce(m)
	if calls != 1 {
		t.Fatalf("expected first enqueue attempt, got %d", calls)
	}

	pollOnce(m)
	if calls != 2 {
		t.Fatalf("expected failed enqueue to retry, got %d calls", calls)
	}

	pollOnce(m)
	if calls != 2 {
		t.Fatalf("expected success to stop retries, got %d calls", calls)
	}
}

func TestImportCandidate(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"game3.mp4", true},
		{"Warmup.MOV", true},
		{"session.mkv", true},
		{"drills.avi", true},
		{".hidden.mp4", false},
		{"copying.mp4.part", false},
		{"upload.mp4.tmp", false},
		{"download.mp4.crdownload", false},
		{"notes.txt", false},
		{"thumbs.jpg", false},
	}
	for _, tc := range cases {
		if got := importCandidate(tc.name); got != tc.want {
			t.Errorf("importCandidate(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEnqueueWatchedFileParksForAthlete(t *testing.T) {
	cfg := watchConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	lib := testsupport.MustOpenLibrary(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{Validator: noopDaemonStage{}})
	d, err := New(cfg, store, lib, logger, mgr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	path := filepath.Join(cfg.Paths.ImportDir, "first-pitch.mp4")
	testsupport.WriteFile(t, path, 1024)

	if err := d.enqueueWatchedFile(ctx, path, 1024); err != nil {
		t.Fatalf("enqueueWatchedFile: %v", err)
	}

	item, err := store.FindBySourcePath(ctx, path)
	if err != nil {
		t.Fatalf("FindBySourcePath: %v", err)
	}
	if item == nil {
		t.Fatal("expected queued item for watched file")
	}
	if item.Origin != queue.OriginWatch {
		t.Fatalf("expected watch origin, got %s", item.Origin)
	}
	if item.Status != queue.StatusReview {
		t.Fatalf("expected review status, got %s", item.Status)
	}
	if item.ReviewReason != queue.AthleteMissingReason {
		t.Fatalf("expected athlete-missing reason, got %q", item.ReviewReason)
	}

	// A second sighting of the same path is a no-op while the item is live.
	if err := d.enqueueWatchedFile(ctx, path, 1024); err != nil {
		t.Fatalf("repeat enqueueWatchedFile: %v", err)
	}
	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one queue item, got %d", len(items))
	}
}

type noopDaemonStage struct{}

func (noopDaemonStage) Prepare(context.Context, *queue.Item) error { return nil }
func (noopDaemonStage) Execute(context.Context, *queue.Item) error { return nil }
func (noopDaemonStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}
