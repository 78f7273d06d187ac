package thumbnailing_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dugout/internal/config"
	"dugout/internal/library"
	"dugout/internal/logging"
	"dugout/internal/media/ffmpeg"
	"dugout/internal/queue"
	"dugout/internal/testsupport"
	"dugout/internal/thumbnailing"
)

func probePayload(duration float64) string {
	return fmt.Sprintf(`{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080, "avg_frame_rate": "30/1"}
  ],
  "format": {"filename": "clip.mp4", "nb_streams": 1, "duration": "%f", "size": "2048"}
}`, duration)
}

type fakeFFmpeg struct {
	thumbs   []ffmpeg.ThumbnailSpec
	thumbErr error
}

func (f *fakeFFmpeg) Thumbnail(ctx context.Context, spec ffmpeg.ThumbnailSpec) error {
	f.thumbs = append(f.thumbs, spec)
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.thumbErr != nil {
		return f.thumbErr
	}
	if err := os.MkdirAll(filepath.Dir(spec.Output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(spec.Output, []byte("jpeg"), 0o644)
}

func (f *fakeFFmpeg) Trim(ctx context.Context, spec ffmpeg.TrimSpec, progress func(ffmpeg.ProgressUpdate)) error {
	return errors.New("not implemented")
}

func (f *fakeFFmpeg) StartRecording(ctx context.Context, spec ffmpeg.RecordSpec) (*ffmpeg.Recording, error) {
	return nil, errors.New("not implemented")
}

func newCatalogedItem(t *testing.T, cfg *config.Config, store *queue.Store, lib *library.Store, duration float64) *queue.Item {
	t.Helper()

	athlete := testsupport.NewAthlete(t, lib, "Riley Soto")
	final := filepath.Join(cfg.Paths.LibraryDir, "clips", "deadbeef.mp4")
	testsupport.WriteFile(t, final, 2048)
	clip, err := lib.SaveClip(context.Background(), library.SaveClipRequest{
		AthleteID:       athlete.ID,
		Title:           "Line drive",
		FilePath:        final,
		DurationSeconds: duration,
	})
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}

	item := testsupport.NewClip(t, store, "Line drive", filepath.Join(cfg.Paths.StagingDir, "gone.mp4"))
	item.FinalFile = final
	item.ClipID = clip.ID
	item.MediaInfoJSON = probePayload(duration)
	return item
}

func TestThumbnailerAttachesThumbnail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	lib := testsupport.MustOpenLibrary(t, cfg)
	item := newCatalogedItem(t, cfg, store, lib, 42.5)

	client := &fakeFFmpeg{}
	handler := thumbnailing.NewThumbnailerWithDependencies(cfg, store, lib, logging.NewNop(), client)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(client.thumbs) != 1 {
		t.Fatalf("expected one thumbnail invocation, got %d", len(client.thumbs))
	}
	spec := client.thumbs[0]
	if spec.AtSeconds != 1 {
		t.Fatalf("expected frame offset 1s, got %v", spec.AtSeconds)
	}
	if item.ThumbnailFile == "" {
		t.Fatal("expected thumbnail path on item")
	}
	if !strings.HasPrefix(item.ThumbnailFile, filepath.Join(cfg.Paths.LibraryDir, "thumbnails")) {
		t.Fatalf("expected thumbnail under library thumbnails, got %q", item.ThumbnailFile)
	}
	if _, err := os.Stat(item.ThumbnailFile); err != nil {
		t.Fatalf("expected thumbnail on disk: %v", err)
	}

	clip, err := lib.GetClip(context.Background(), item.ClipID)
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if clip.ThumbnailPath != item.ThumbnailFile {
		t.Fatalf("expected thumbnail attached to clip, got %q", clip.ThumbnailPath)
	}
	if item.ProgressPercent != 100 || !strings.Contains(item.ProgressMessage, "Clip ready") {
		t.Fatalf("unexpected completion progress: %v %q", item.ProgressPercent, item.ProgressMessage)
	}
}

func TestThumbnailerUsesMidpointForShortClips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	lib := testsupport.MustOpenLibrary(t, cfg)
	item := newCatalogedItem(t, cfg, store, lib, 1.2)

	client := &fakeFFmpeg{}
	handler := thumbnailing.NewThumbnailerWithDependencies(cfg, store, lib, logging.NewNop(), client)
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(client.thumbs) != 1 {
		t.Fatalf("expected one thumbnail invocation, got %d", len(client.thumbs))
	}
	got := client.thumbs[0].AtSeconds
	if got < 0.59 || got > 0.61 {
		t.Fatalf("expected midpoint offset ~0.6s, got %v", got)
	}
}

func TestThumbnailerCompletesWhenExtractionFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	lib := testsupport.MustOpenLibrary(t, cfg)
	item := newCatalogedItem(t, cfg, store, lib, 42.5)

	client := &fakeFFmpeg{thumbErr: errors.New("moov atom not found")}
	handler := thumbnailing.NewThumbnailerWithDependencies(cfg, store, lib, logging.NewNop(), client)
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("expected best-effort completion, got %v", err)
	}

	if item.ThumbnailFile != "" {
		t.Fatalf("expected no thumbnail path, got %q", item.ThumbnailFile)
	}
	if !strings.Contains(item.ProgressMessage, "no thumbnail") {
		t.Fatalf("expected no-thumbnail message, got %q", item.ProgressMessage)
	}

	clip, err := lib.GetClip(context.Background(), item.ClipID)
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if clip.ThumbnailPath != "" {
		t.Fatalf("expected clip without thumbnail, got %q", clip.ThumbnailPath)
	}
}

func TestThumbnailerCompletesWithoutLibraryRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	lib := testsupport.MustOpenLibrary(t, cfg)

	item := testsupport.NewClip(t, store, "Orphan", filepath.Join(cfg.Paths.StagingDir, "orphan.mp4"))

	client := &fakeFFmpeg{}
	handler := thumbnailing.NewThumbnailerWithDependencies(cfg, store, lib, logging.NewNop(), client)
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("expected best-effort completion, got %v", err)
	}
	if len(client.thumbs) != 0 {
		t.Fatalf("expected no thumbnail invocation, got %d", len(client.thumbs))
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected completed progress, got %v", item.ProgressPercent)
	}
}

func TestThumbnailerCancelledExtractionReturnsContextError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	lib := testsupport.MustOpenLibrary(t, cfg)
	item := newCatalogedItem(t, cfg, store, lib, 42.5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeFFmpeg{}
	handler := thumbnailing.NewThumbnailerWithDependencies(cfg, store, lib, logging.NewNop(), client)
	if err := handler.Execute(ctx, item); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestThumbnailerHealthReady(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)
	lib := testsupport.MustOpenLibrary(t, cfg)

	handler := thumbnailing.NewThumbnailerWithDependencies(cfg, store, lib, logging.NewNop(), &fakeFFmpeg{})
	health := handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected ready health, got %+v", health)
	}
}

func TestThumbnailerHealthMissingClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	lib := testsupport.MustOpenLibrary(t, cfg)

	handler := thumbnailing.NewThumbnailerWithDependencies(cfg, store, lib, logging.NewNop(), nil)
	health := handler.HealthCheck(context.Background())
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if !strings.Contains(strings.ToLower(health.Detail), "ffmpeg") {
		t.Fatalf("expected detail to mention ffmpeg, got %q", health.Detail)
	}
}
