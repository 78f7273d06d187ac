package validation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"log/slog"

	"github.com/dustin/go-humanize"

	"dugout/internal/config"
	"dugout/internal/fileutil"
	"dugout/internal/logging"
	"dugout/internal/media/ffprobe"
	"dugout/internal/notifications"
	"dugout/internal/queue"
	"dugout/internal/services"
	"dugout/internal/stage"
)

// ProbeFunc inspects a media file and returns its stream and format metadata.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Validator gates clips entering the pipeline: the source file must exist,
// fit the configured ceilings, contain video, and carry a sane trim window.
// Storage headroom is checked here too, but only as an advisory warning.
type Validator struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	probe    ProbeFunc
	notifier notifications.Service
}

// NewValidator constructs the validation handler using default dependencies.
func NewValidator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Validator {
	return NewValidatorWithDependencies(cfg, store, logger, ffprobe.Inspect, notifications.NewService(cfg))
}

// NewValidatorWithDependencies allows injecting collaborators (used in tests).
func NewValidatorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, probe ProbeFunc, notifier notifications.Service) *Validator {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "validator"))
	}
	return &Validator{store: store, cfg: cfg, logger: stageLogger, probe: probe, notifier: notifier}
}

func (v *Validator) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, v.logger)
	item.InitProgress("Validating", "Starting validation")
	logger.Info(
		"starting validation preparation",
		logging.String("clip_title", strings.TrimSpace(item.ClipTitle)),
		logging.String("source_path", strings.TrimSpace(item.SourcePath)),
	)
	return nil
}

func (v *Validator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, v.logger)
	source := strings.TrimSpace(item.SourcePath)
	logger.Info(
		"starting validation",
		logging.String("clip_title", strings.TrimSpace(item.ClipTitle)),
		logging.String("source_path", source),
	)
	if source == "" {
		return services.Wrap(
			services.ErrValidation,
			"validation",
			"check source",
			"Queue item has no source path; remove it and re-add the clip",
			nil,
		)
	}

	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(
				services.ErrNotFound,
				"validation",
				"stat source",
				"Source file is missing; it may have been moved or deleted",
				err,
			)
		}
		return services.Wrap(services.ErrTransient, "validation", "stat source", "Unable to read source file metadata", err)
	}
	if info.IsDir() {
		return services.Wrap(
			services.ErrValidation,
			"validation",
			"stat source",
			"Source path is a directory, not a video file",
			nil,
		)
	}

	v.updateProgress(ctx, item, "Checking file limits", 20)
	maxBytes := v.cfg.MaxFileSizeBytes()
	if maxBytes > 0 && info.Size() > maxBytes {
		return services.Wrap(
			services.ErrValidation,
			"validation",
			"check file size",
			fmt.Sprintf("Clip is %s; the limit is %s", humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(maxBytes))),
			nil,
		)
	}

	v.updateProgress(ctx, item, "Inspecting media streams", 40)
	if v.probe == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"validation",
			"probe media",
			"Media prober unavailable; check the ffprobe installation",
			nil,
		)
	}
	result, err := v.probe(ctx, v.cfg.FFprobeBinary(), source)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			"validation",
			"ffprobe inspect",
			"ffprobe could not read the clip; the file may be corrupt or not a video",
			err,
		)
	}
	if result.VideoStreamCount() == 0 {
		return services.Wrap(services.ErrValidation, "validation", "check streams", "File contains no video stream", nil)
	}

	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return services.Wrap(services.ErrValidation, "validation", "check duration", "Clip has no readable duration", nil)
	}
	maxDuration := float64(v.cfg.Validation.MaxDurationSeconds)
	if maxDuration > 0 && duration > maxDuration {
		return services.Wrap(
			services.ErrValidation,
			"validation",
			"check duration",
			fmt.Sprintf("Clip runs %s; the limit is %s", formatSeconds(duration), formatSeconds(maxDuration)),
			nil,
		)
	}

	if err := validateTrimWindow(item, duration); err != nil {
		return err
	}

	v.updateProgress(ctx, item, "Checking storage headroom", 70)
	v.warnOnLowStorage(ctx, logger)

	item.MediaInfoJSON = string(result.RawJSON())
	item.SetProgressComplete("Validated", fmt.Sprintf("Clip passed validation (%s, %s)", formatSeconds(duration), humanize.IBytes(uint64(info.Size()))))
	logger.Info(
		"validation completed",
		logging.String("source_path", source),
		logging.Float64("duration_seconds", duration),
		logging.Int64("size_bytes", info.Size()),
		logging.Int("video_streams", result.VideoStreamCount()),
	)
	return nil
}

// HealthCheck verifies ffprobe availability and validation configuration.
func (v *Validator) HealthCheck(ctx context.Context) stage.Health {
	const name = "validator"
	if v.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(v.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if v.probe == nil {
		return stage.Unhealthy(name, "media prober unavailable")
	}
	binary := strings.TrimSpace(v.cfg.FFprobeBinary())
	if binary == "" {
		return stage.Unhealthy(name, "ffprobe binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffprobe binary %q not found", binary))
	}
	return stage.Healthy(name)
}

// validateTrimWindow rejects trim ranges that fall outside the probed
// duration. A zero window means the clip passes through untrimmed.
func validateTrimWindow(item *queue.Item, duration float64) error {
	if item.TrimStartSec == 0 && item.TrimEndSec == 0 {
		return nil
	}
	if item.TrimStartSec < 0 {
		return services.Wrap(services.ErrValidation, "validation", "check trim window", "Trim start cannot be negative", nil)
	}
	if item.TrimEndSec <= item.TrimStartSec {
		return services.Wrap(
			services.ErrValidation,
			"validation",
			"check trim window",
			fmt.Sprintf("Trim end (%s) must come after trim start (%s)", formatSeconds(item.TrimEndSec), formatSeconds(item.TrimStartSec)),
			nil,
		)
	}
	if item.TrimEndSec > duration {
		return services.Wrap(
			services.ErrValidation,
			"validation",
			"check trim window",
			fmt.Sprintf("Trim window ends at %s but the clip runs %s", formatSeconds(item.TrimEndSec), formatSeconds(duration)),
			nil,
		)
	}
	return nil
}

// warnOnLowStorage surfaces tight library headroom without failing the item.
// The operator decides whether to continue; cataloging reports the hard error
// if the disk actually fills.
func (v *Validator) warnOnLowStorage(ctx context.Context, logger *slog.Logger) {
	minBytes := v.cfg.MinFreeSpaceBytes()
	if minBytes == 0 {
		return
	}
	free, err := fileutil.FreeBytes(v.cfg.Paths.LibraryDir)
	if err != nil {
		logger.Warn("storage probe failed", logging.Error(err))
		return
	}
	if free >= minBytes {
		return
	}
	logger.Warn(
		"library storage below threshold",
		logging.Uint64("free_bytes", free),
		logging.Uint64("min_bytes", minBytes),
		logging.Alert("storage_low"),
	)
	if v.notifier != nil {
		payload := notifications.Payload{
			"path":      v.cfg.Paths.LibraryDir,
			"freeMB":    int(free / (1024 * 1024)),
			"minFreeMB": v.cfg.Validation.MinFreeSpaceMB,
		}
		if err := v.notifier.Publish(ctx, notifications.EventStorageLow, payload); err != nil {
			logger.Warn("storage notification failed", logging.Error(err))
		}
	}
}

func (v *Validator) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, v.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := v.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist validation progress", logging.Error(err))
		return
	}
	*item = copy
}

func formatSeconds(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}
