package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"dugout/internal/config"
	"dugout/internal/fileutil"
	"dugout/internal/library"
	"dugout/internal/logging"
	"dugout/internal/notifications"
	"dugout/internal/queue"
	"dugout/internal/services"
	"dugout/internal/stage"
	"dugout/internal/staging"
)

// Cataloger copies the exported file into permanent storage and records the
// clip, its play result, and the statistics update in one library
// transaction. It is the hand-off point between the transient queue database
// and the permanent library database: after this stage the clip survives a
// queue wipe.
type Cataloger struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	library  *library.Store
	notifier notifications.Service
}

// NewCataloger constructs the catalog handler using default dependencies.
// The library store is shared with the IPC layer, so the caller owns it.
func NewCataloger(cfg *config.Config, store *queue.Store, lib *library.Store, logger *slog.Logger) *Cataloger {
	return NewCatalogerWithDependencies(cfg, store, lib, logger, notifications.NewService(cfg))
}

// NewCatalogerWithDependencies allows injecting collaborators (used in tests).
func NewCatalogerWithDependencies(cfg *config.Config, store *queue.Store, lib *library.Store, logger *slog.Logger, notifier notifications.Service) *Cataloger {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "cataloger"))
	}
	return &Cataloger{store: store, cfg: cfg, logger: stageLogger, library: lib, notifier: notifier}
}

func (c *Cataloger) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)
	item.InitProgress("Cataloging", "Starting catalog")
	item.ProgressBytesCopied = 0
	item.ProgressTotalBytes = 0
	logger.Info(
		"starting catalog preparation",
		logging.String("clip_title", strings.TrimSpace(item.ClipTitle)),
		logging.String("exported_file", strings.TrimSpace(item.ExportedFile)),
	)
	return nil
}

func (c *Cataloger) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)
	exported := strings.TrimSpace(item.ExportedFile)
	logger.Info(
		"starting catalog",
		logging.String("exported_file", exported),
		logging.Int64("athlete_id", item.AthleteID),
		logging.String("play_result", strings.TrimSpace(item.PlayResult)),
	)
	if exported == "" {
		return services.Wrap(
			services.ErrValidation,
			"cataloging",
			"check exported file",
			"No exported file present; run export before cataloging",
			nil,
		)
	}
	if _, err := os.Stat(exported); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(
				services.ErrNotFound,
				"cataloging",
				"stat exported file",
				"Exported file is missing; retry the item to re-run the export",
				err,
			)
		}
		return services.Wrap(services.ErrTransient, "cataloging", "stat exported file", "Unable to read exported file", err)
	}

	if item.AthleteID == 0 {
		return services.Wrap(services.ErrValidation, "cataloging", "check athlete", queue.AthleteMissingReason, nil)
	}
	if item.HoldForAnnotation && !item.HasPlayResult() {
		return services.Wrap(services.ErrValidation, "cataloging", "check annotation", queue.AnnotationPendingReason, nil)
	}

	var result library.PlayResult
	if item.HasPlayResult() {
		parsed, err := library.ParsePlayResult(item.PlayResult)
		if err != nil {
			return services.Wrap(
				services.ErrValidation,
				"cataloging",
				"parse play result",
				fmt.Sprintf("Unknown play result %q; annotate the clip again", item.PlayResult),
				err,
			)
		}
		result = parsed
	}

	clipsDir := filepath.Join(c.cfg.Paths.LibraryDir, "clips")
	if err := os.MkdirAll(clipsDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"cataloging",
			"ensure clips dir",
			"Failed to create library clips directory; check library_dir permissions",
			err,
		)
	}

	ext := filepath.Ext(exported)
	if ext == "" {
		ext = "." + strings.TrimPrefix(c.cfg.Capture.Container, ".")
	}
	finalPath := filepath.Join(clipsDir, uuid.New().String()+ext)

	c.updateProgress(ctx, item, "Copying clip into library", 10)
	if err := c.copyIntoLibrary(ctx, item, exported, finalPath); err != nil {
		return err
	}

	c.updateProgress(ctx, item, "Recording clip", 80)
	clip, err := c.library.SaveClip(ctx, library.SaveClipRequest{
		AthleteID:       item.AthleteID,
		GameID:          item.GameID,
		PracticeID:      item.PracticeID,
		Title:           item.ClipTitle,
		FilePath:        finalPath,
		Highlight:       item.Highlight,
		DurationSeconds: c.exportedDuration(item),
		Result:          result,
		SpeedMPH:        item.SpeedMPH,
	})
	if err != nil {
		if removeErr := os.Remove(finalPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logger.Warn("failed to remove copied file after save failure", logging.Error(removeErr))
		}
		if errors.Is(err, library.ErrNotFound) {
			return services.Wrap(
				services.ErrValidation,
				"cataloging",
				"save clip",
				"Clip links are invalid; re-check the athlete, game, and practice assignments",
				err,
			)
		}
		return services.Wrap(
			services.ErrPersistence,
			"cataloging",
			"save clip",
			"Failed to record clip in library; the copied file was removed",
			err,
		)
	}

	item.FinalFile = finalPath
	item.ClipID = clip.ID
	c.cleanupStaging(ctx, item)
	item.SetProgressComplete("Cataloged", fmt.Sprintf("Added to library: %s", clip.Title))
	logger.Info(
		"catalog completed",
		logging.String("final_file", finalPath),
		logging.Int64("clip_id", clip.ID),
		logging.Bool("highlight", clip.Highlight),
	)

	c.publishCataloged(ctx, item, clip)
	return nil
}

// HealthCheck verifies the library database and destination directory.
func (c *Cataloger) HealthCheck(ctx context.Context) stage.Health {
	const name = "cataloger"
	if c.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(c.cfg.Paths.LibraryDir) == "" {
		return stage.Unhealthy(name, "library directory not configured")
	}
	if c.library == nil {
		return stage.Unhealthy(name, "library store unavailable")
	}
	return stage.Healthy(name)
}

func (c *Cataloger) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, c.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := c.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist catalog progress", logging.Error(err))
		return
	}
	*item = copy
}

// copyIntoLibrary copies the exported file with verification, persisting byte
// counters so queue consumers can render a transfer bar for large clips.
func (c *Cataloger) copyIntoLibrary(ctx context.Context, item *queue.Item, src, dst string) error {
	logger := logging.WithContext(ctx, c.logger)
	const progressPersistInterval = 2 * time.Second
	var lastPersisted time.Time
	progress := func(copied, total int64) {
		copy := *item
		copy.ProgressBytesCopied = copied
		copy.ProgressTotalBytes = total
		if total > 0 {
			// Copy occupies the 10-80% band of the catalog stage.
			copy.ProgressPercent = 10 + float64(copied)/float64(total)*70
		}
		now := time.Now()
		if copied < total && !lastPersisted.IsZero() && now.Sub(lastPersisted) < progressPersistInterval {
			*item = copy
			return
		}
		lastPersisted = now
		if err := c.store.UpdateProgress(ctx, &copy); err != nil {
			logger.Warn("failed to persist copy progress", logging.Error(err))
		}
		*item = copy
	}

	if err := fileutil.CopyFileVerifiedWithProgress(src, dst, progress); err != nil {
		return services.Wrap(
			services.ErrTransient,
			"cataloging",
			"copy into library",
			"Failed to copy clip into the library; check free space and permissions",
			err,
		)
	}
	return nil
}

// exportedDuration reports the duration of the file being cataloged: the trim
// window when the exporter cut the clip, otherwise the probed source duration.
func (c *Cataloger) exportedDuration(item *queue.Item) float64 {
	if item.HasTrim() && item.ExportedFile != item.SourcePath {
		return item.TrimEndSec - item.TrimStartSec
	}
	mediaInfo, err := stage.ParseMediaInfo(item.MediaInfoJSON)
	if err != nil {
		return 0
	}
	return mediaInfo.DurationSeconds()
}

// cleanupStaging removes pipeline temporaries once the library copy is safe.
// The staging sweeper picks up anything a crash leaves behind.
func (c *Cataloger) cleanupStaging(ctx context.Context, item *queue.Item) {
	staging.RemoveItemArtifacts(logging.WithContext(ctx, c.logger), c.cfg, item)
}

func (c *Cataloger) publishCataloged(ctx context.Context, item *queue.Item, clip *library.VideoClip) {
	if c.notifier == nil {
		return
	}
	logger := logging.WithContext(ctx, c.logger)
	payload := notifications.Payload{"clipTitle": clip.Title}
	if athlete, err := c.library.GetAthlete(ctx, item.AthleteID); err == nil {
		payload["athlete"] = athlete.Name
	}
	if clip.Result != "" {
		payload["playResult"] = clip.Result.DisplayName()
	}
	if err := c.notifier.Publish(ctx, notifications.EventClipCataloged, payload); err != nil {
		logger.Warn("catalog notification failed", logging.Error(err))
	}
}
