package thumbnailing

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"log/slog"

	"dugout/internal/config"
	"dugout/internal/library"
	"dugout/internal/logging"
	"dugout/internal/media/ffmpeg"
	"dugout/internal/queue"
	"dugout/internal/stage"
)

// thumbnailAtSeconds is the default frame offset. Clips shorter than twice
// this value use their midpoint instead so the frame lands inside the clip.
const thumbnailAtSeconds = 1.0

// Thumbnailer extracts a preview frame for a cataloged clip and attaches it
// to the library record. The stage is strictly best-effort: the clip is
// already safe in the library when it runs, so every failure short of
// cancellation is logged and the item completes without a thumbnail.
type Thumbnailer struct {
	store   *queue.Store
	cfg     *config.Config
	logger  *slog.Logger
	library *library.Store
	client  ffmpeg.Client
}

// NewThumbnailer constructs the thumbnail handler using default dependencies.
func NewThumbnailer(cfg *config.Config, store *queue.Store, lib *library.Store, logger *slog.Logger) *Thumbnailer {
	client := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary()))
	return NewThumbnailerWithDependencies(cfg, store, lib, logger, client)
}

// NewThumbnailerWithDependencies allows injecting collaborators (used in tests).
func NewThumbnailerWithDependencies(cfg *config.Config, store *queue.Store, lib *library.Store, logger *slog.Logger, client ffmpeg.Client) *Thumbnailer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "thumbnailer"))
	}
	return &Thumbnailer{store: store, cfg: cfg, logger: stageLogger, library: lib, client: client}
}

func (t *Thumbnailer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	item.InitProgress("Thumbnailing", "Generating thumbnail")
	logger.Info(
		"starting thumbnail preparation",
		logging.String("clip_title", strings.TrimSpace(item.ClipTitle)),
		logging.String("final_file", strings.TrimSpace(item.FinalFile)),
	)
	return nil
}

func (t *Thumbnailer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	final := strings.TrimSpace(item.FinalFile)
	if final == "" || item.ClipID == 0 {
		logger.Warn(
			"clip has no library record to attach a thumbnail to",
			logging.String("final_file", final),
			logging.Int64("clip_id", item.ClipID),
		)
		item.SetProgressComplete("Completed", "Clip ready (no thumbnail)")
		return nil
	}
	if _, err := os.Stat(final); err != nil {
		return t.completeWithout(ctx, item, "library file unreadable", err)
	}
	if t.client == nil {
		return t.completeWithout(ctx, item, "ffmpeg client unavailable", nil)
	}

	thumbsDir := filepath.Join(t.cfg.Paths.LibraryDir, "thumbnails")
	if err := os.MkdirAll(thumbsDir, 0o755); err != nil {
		return t.completeWithout(ctx, item, "create thumbnails dir", err)
	}

	base := strings.TrimSuffix(filepath.Base(final), filepath.Ext(final))
	output := filepath.Join(thumbsDir, base+".jpg")

	spec := ffmpeg.ThumbnailSpec{
		Input:     final,
		Output:    output,
		AtSeconds: t.frameOffset(item),
	}
	if err := t.client.Thumbnail(ctx, spec); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if removeErr := os.Remove(output); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn("failed to remove partial thumbnail", logging.Error(removeErr))
		}
		return t.completeWithout(ctx, item, "ffmpeg thumbnail", err)
	}

	if err := t.library.AttachThumbnail(ctx, item.ClipID, output); err != nil {
		if removeErr := os.Remove(output); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn("failed to remove unattached thumbnail", logging.Error(removeErr))
		}
		return t.completeWithout(ctx, item, "attach thumbnail", err)
	}

	item.ThumbnailFile = output
	item.SetProgressComplete("Completed", "Clip ready")
	logger.Info(
		"thumbnail attached",
		logging.Int64("clip_id", item.ClipID),
		logging.String("thumbnail_file", output),
	)
	return nil
}

// HealthCheck verifies the thumbnail tooling. A degraded thumbnailer never
// blocks the pipeline at run time, but surfacing it here keeps dugout status
// honest about why clips complete without previews.
func (t *Thumbnailer) HealthCheck(ctx context.Context) stage.Health {
	const name = "thumbnailer"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(t.cfg.Paths.LibraryDir) == "" {
		return stage.Unhealthy(name, "library directory not configured")
	}
	if t.library == nil {
		return stage.Unhealthy(name, "library store unavailable")
	}
	if t.client == nil {
		return stage.Unhealthy(name, "ffmpeg client unavailable")
	}
	binary := t.cfg.FFmpegBinary()
	if strings.TrimSpace(binary) == "" {
		return stage.Unhealthy(name, "ffmpeg binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg not found: %v", err))
	}
	return stage.Healthy(name)
}

// completeWithout logs the thumbnail failure and finishes the item anyway.
func (t *Thumbnailer) completeWithout(ctx context.Context, item *queue.Item, operation string, err error) error {
	logger := logging.WithContext(ctx, t.logger)
	logger.Warn(
		"thumbnail skipped",
		logging.String("operation", operation),
		logging.Int64("clip_id", item.ClipID),
		logging.Error(err),
	)
	item.SetProgressComplete("Completed", "Clip ready (no thumbnail)")
	return nil
}

// frameOffset picks where to grab the frame: one second in, or the midpoint
// of clips too short for that.
func (t *Thumbnailer) frameOffset(item *queue.Item) float64 {
	duration := t.clipDuration(item)
	if duration > 0 && duration < thumbnailAtSeconds*2 {
		return duration / 2
	}
	return thumbnailAtSeconds
}

func (t *Thumbnailer) clipDuration(item *queue.Item) float64 {
	if item.HasTrim() && item.ExportedFile != item.SourcePath {
		return item.TrimEndSec - item.TrimStartSec
	}
	mediaInfo, err := stage.ParseMediaInfo(item.MediaInfoJSON)
	if err != nil {
		return 0
	}
	return mediaInfo.DurationSeconds()
}
