package exporting_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dugout/internal/exporting"
	"dugout/internal/logging"
	"dugout/internal/media/ffmpeg"
	"dugout/internal/queue"
	"dugout/internal/services"
	"dugout/internal/testsupport"
)

const probePayload = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080, "avg_frame_rate": "30/1"}
  ],
  "format": {"filename": "clip.mp4", "nb_streams": 1, "duration": "42.500000", "size": "2048"}
}`

type fakeFFmpeg struct {
	trims     []ffmpeg.TrimSpec
	trimErr   error
	trimBytes []byte
}

func (f *fakeFFmpeg) Trim(ctx context.Context, spec ffmpeg.TrimSpec, progress func(ffmpeg.ProgressUpdate)) error {
	f.trims = append(f.trims, spec)
	if f.trimErr != nil {
		return f.trimErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if progress != nil {
		progress(ffmpeg.ProgressUpdate{Percent: 50, OutTime: 3 * time.Second, Speed: 1.9})
		progress(ffmpeg.ProgressUpdate{Percent: 100, OutTime: 6 * time.Second})
	}
	data := f.trimBytes
	if data == nil {
		data = []byte("trimmed")
	}
	if err := os.MkdirAll(filepath.Dir(spec.Output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(spec.Output, data, 0o644)
}

func (f *fakeFFmpeg) Thumbnail(ctx context.Context, spec ffmpeg.ThumbnailSpec) error {
	return errors.New("not implemented")
}

func (f *fakeFFmpeg) StartRecording(ctx context.Context, spec ffmpeg.RecordSpec) (*ffmpeg.Recording, error) {
	return nil, errors.New("not implemented")
}

func newTrimItem(t *testing.T, store *queue.Store, source string, start, end float64) *queue.Item {
	t.Helper()
	item, err := store.NewClip(context.Background(), queue.NewClipRequest{
		SourcePath:   source,
		ClipTitle:    "Trim Target",
		TrimStartSec: start,
		TrimEndSec:   end,
	})
	if err != nil {
		t.Fatalf("NewClip: %v", err)
	}
	item.MediaInfoJSON = probePayload
	return item
}

func TestExporterTrimsClip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "clips", "swing.mp4")
	testsupport.WriteFile(t, source, 2048)
	item := newTrimItem(t, store, source, 2, 8)

	client := &fakeFFmpeg{}
	handler := exporting.NewExporterWithDependencies(cfg, store, logging.NewNop(), client)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(client.trims) != 1 {
		t.Fatalf("expected one trim invocation, got %d", len(client.trims))
	}
	spec := client.trims[0]
	if spec.StartSeconds != 2 || spec.EndSeconds != 8 {
		t.Fatalf("unexpected trim window: %+v", spec)
	}
	if item.ExportedFile == "" || item.ExportedFile == source {
		t.Fatalf("expected trimmed output path, got %q", item.ExportedFile)
	}
	if !strings.HasPrefix(item.ExportedFile, filepath.Join(cfg.Paths.StagingDir, "exports")) {
		t.Fatalf("expected output under staging exports, got %q", item.ExportedFile)
	}
	if _, err := os.Stat(item.ExportedFile); err != nil {
		t.Fatalf("expected exported file on disk: %v", err)
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected progress 100, got %v", item.ProgressPercent)
	}
	if !strings.Contains(item.ProgressMessage, "Trimmed to 6s") {
		t.Fatalf("unexpected progress message: %q", item.ProgressMessage)
	}
}

func TestExporterPassThroughWithoutTrim(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "clips", "whole.mp4")
	testsupport.WriteFile(t, source, 2048)
	item := newTrimItem(t, store, source, 0, 0)

	client := &fakeFFmpeg{}
	handler := exporting.NewExporterWithDependencies(cfg, store, logging.NewNop(), client)
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(client.trims) != 0 {
		t.Fatalf("expected no trim invocation, got %d", len(client.trims))
	}
	if item.ExportedFile != source {
		t.Fatalf("expected pass-through to source, got %q", item.ExportedFile)
	}
}

func TestExporterPassThroughFullRange(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "clips", "full.mp4")
	testsupport.WriteFile(t, source, 2048)
	item := newTrimItem(t, store, source, 0, 42.5)

	client := &fakeFFmpeg{}
	handler := exporting.NewExporterWithDependencies(cfg, store, logging.NewNop(), client)
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(client.trims) != 0 {
		t.Fatalf("expected full-range trim to pass through, got %d trims", len(client.trims))
	}
	if item.ExportedFile != source {
		t.Fatalf("expected pass-through to source, got %q", item.ExportedFile)
	}
}

func TestExporterTrimFailureMarksFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "clips", "broken.mp4")
	testsupport.WriteFile(t, source, 2048)
	item := newTrimItem(t, store, source, 2, 8)

	client := &fakeFFmpeg{trimErr: errors.New("invalid data found when processing input")}
	handler := exporting.NewExporterWithDependencies(cfg, store, logging.NewNop(), client)
	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected trim failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external-tool error, got %v", err)
	}
	if status := services.FailureStatus(err); status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", status)
	}
}

func TestExporterCancelledTrimReturnsContextError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "clips", "cancelled.mp4")
	testsupport.WriteFile(t, source, 2048)
	item := newTrimItem(t, store, source, 2, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeFFmpeg{}
	handler := exporting.NewExporterWithDependencies(cfg, store, logging.NewNop(), client)
	err := handler.Execute(ctx, item)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Paths.StagingDir, "exports")); statErr == nil {
		entries, readErr := os.ReadDir(filepath.Join(cfg.Paths.StagingDir, "exports"))
		if readErr == nil && len(entries) > 0 {
			t.Fatalf("expected no export output after cancel, found %d entries", len(entries))
		}
	}
}

func TestExporterHealthReady(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	handler := exporting.NewExporterWithDependencies(cfg, store, logging.NewNop(), &fakeFFmpeg{})
	health := handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected ready health, got %+v", health)
	}
}

func TestExporterHealthMissingClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := exporting.NewExporterWithDependencies(cfg, store, logging.NewNop(), nil)
	health := handler.HealthCheck(context.Background())
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if !strings.Contains(strings.ToLower(health.Detail), "ffmpeg") {
		t.Fatalf("expected detail to mention ffmpeg, got %q", health.Detail)
	}
}
