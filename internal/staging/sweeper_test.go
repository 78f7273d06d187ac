package staging_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dugout/internal/logging"
	"dugout/internal/queue"
	"dugout/internal/staging"
	"dugout/internal/testsupport"
)

// ageFile pushes a file's modification time past the default staging age
// floor so the sweeper treats it as abandoned.
func ageFile(t *testing.T, path string) {
	t.Helper()
	old := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSweepRemovesAbandonedFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	stale := filepath.Join(cfg.Paths.StagingDir, "captures", "crashed-capture.mp4")
	testsupport.WriteFile(t, stale, 2048)
	ageFile(t, stale)

	fresh := filepath.Join(cfg.Paths.StagingDir, "captures", "in-flight.mp4")
	testsupport.WriteFile(t, fresh, 512)

	sweeper := staging.NewSweeper(cfg, store, logging.NewNop())
	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if result.FilesRemoved != 1 {
		t.Fatalf("FilesRemoved = %d, want 1", result.FilesRemoved)
	}
	if result.BytesFreed != 2048 {
		t.Fatalf("BytesFreed = %d, want 2048", result.BytesFreed)
	}
	if fileExists(stale) {
		t.Fatal("stale file should have been removed")
	}
	if !fileExists(fresh) {
		t.Fatal("fresh file should have been kept")
	}
}

func TestSweepKeepsQueueReferencedFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(cfg.Paths.StagingDir, "captures", "referenced.mp4")
	testsupport.WriteFile(t, source, 1024)
	exported := filepath.Join(cfg.Paths.StagingDir, "exports", "referenced-trimmed.mp4")
	testsupport.WriteFile(t, exported, 1024)
	orphan := filepath.Join(cfg.Paths.StagingDir, "exports", "orphan.mp4")
	testsupport.WriteFile(t, orphan, 1024)
	for _, path := range []string{source, exported, orphan} {
		ageFile(t, path)
	}

	item := testsupport.NewClip(t, store, "Referenced", source)
	item.ExportedFile = exported
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("store.Update: %v", err)
	}

	sweeper := staging.NewSweeper(cfg, store, logging.NewNop())
	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if result.FilesRemoved != 1 {
		t.Fatalf("FilesRemoved = %d, want 1", result.FilesRemoved)
	}
	if !fileExists(source) || !fileExists(exported) {
		t.Fatal("queue-referenced files should survive the sweep regardless of age")
	}
	if fileExists(orphan) {
		t.Fatal("orphan should have been removed")
	}
}

func TestSweepCollapsesEmptyDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	stale := filepath.Join(cfg.Paths.StagingDir, "exports", "session-9", "leftover.mp4")
	testsupport.WriteFile(t, stale, 256)
	ageFile(t, stale)

	occupied := filepath.Join(cfg.Paths.StagingDir, "captures", "active.mp4")
	testsupport.WriteFile(t, occupied, 256)

	sweeper := staging.NewSweeper(cfg, store, logging.NewNop())
	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if result.DirsRemoved != 2 {
		t.Fatalf("DirsRemoved = %d, want 2 (exports and exports/session-9)", result.DirsRemoved)
	}
	if fileExists(filepath.Join(cfg.Paths.StagingDir, "exports")) {
		t.Fatal("emptied directory tree should have been removed")
	}
	if !fileExists(filepath.Join(cfg.Paths.StagingDir, "captures")) {
		t.Fatal("directory with live files should remain")
	}
}

func TestSweepSecondPassIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	stale := filepath.Join(cfg.Paths.StagingDir, "exports", "leftover.mp4")
	testsupport.WriteFile(t, stale, 256)
	ageFile(t, stale)

	sweeper := staging.NewSweeper(cfg, store, logging.NewNop())
	if _, err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("first Sweep: %v", err)
	}

	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if result.FilesRemoved != 0 || result.DirsRemoved != 0 || result.BytesFreed != 0 {
		t.Fatalf("second pass removed something: %+v", result)
	}
}

func TestSweepMissingStagingDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sweeper := staging.NewSweeper(cfg, store, logging.NewNop())
	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.FilesRemoved != 0 || result.DirsRemoved != 0 {
		t.Fatalf("sweep of a missing directory removed something: %+v", result)
	}
}

func TestSweeperStartRunsImmediately(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	stale := filepath.Join(cfg.Paths.StagingDir, "exports", "leftover.mp4")
	testsupport.WriteFile(t, stale, 256)
	ageFile(t, stale)

	sweeper := staging.NewSweeper(cfg, store, logging.NewNop())
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for fileExists(stale) {
		if time.Now().After(deadline) {
			t.Fatal("first sweep did not run after Start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sweeper.Stop()
	sweeper.Stop() // second stop is a no-op
}

func TestRemoveItemArtifactsRemovesStagedFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(cfg.Paths.StagingDir, "captures", "capture.mp4")
	testsupport.WriteFile(t, source, 1024)
	exported := filepath.Join(cfg.Paths.StagingDir, "exports", "capture-trimmed.mp4")
	testsupport.WriteFile(t, exported, 1024)

	item := testsupport.NewClip(t, store, "Capture", source)
	item.ExportedFile = exported

	staging.RemoveItemArtifacts(logging.NewNop(), cfg, item)

	if fileExists(source) || fileExists(exported) {
		t.Fatal("staged source and export should both be removed")
	}
}

func TestRemoveItemArtifactsKeepsUserSources(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "home-videos", "scrimmage.mov")
	testsupport.WriteFile(t, source, 1024)
	exported := filepath.Join(cfg.Paths.StagingDir, "exports", "scrimmage-trimmed.mp4")
	testsupport.WriteFile(t, exported, 1024)

	item := testsupport.NewClip(t, store, "Scrimmage", source)
	item.ExportedFile = exported

	staging.RemoveItemArtifacts(logging.NewNop(), cfg, item)

	if !fileExists(source) {
		t.Fatal("a source outside the managed directories belongs to the user")
	}
	if fileExists(exported) {
		t.Fatal("the staged export should be removed")
	}
}

func TestRemoveItemArtifactsRemovesWatchedImports(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithImportDir())
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(cfg.Paths.ImportDir, "dropped.mp4")
	testsupport.WriteFile(t, source, 1024)

	item, err := store.NewClip(context.Background(), queue.NewClipRequest{
		SourcePath: source,
		ClipTitle:  "Dropped",
		Origin:     queue.OriginWatch,
	})
	if err != nil {
		t.Fatalf("store.NewClip: %v", err)
	}

	staging.RemoveItemArtifacts(logging.NewNop(), cfg, item)

	if _, err := os.Stat(source); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("watch-folder pickups are dugout's to remove once cataloged")
	}
}

func TestRemoveItemArtifactsMissingFilesAreFine(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(cfg.Paths.StagingDir, "captures", "gone.mp4")
	item := testsupport.NewClip(t, store, "Gone", source)
	item.ExportedFile = filepath.Join(cfg.Paths.StagingDir, "exports", "also-gone.mp4")

	staging.RemoveItemArtifacts(logging.NewNop(), cfg, item)
}
