package exporting

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/dustin/go-humanize"

	"dugout/internal/config"
	"dugout/internal/logging"
	"dugout/internal/media/ffmpeg"
	"dugout/internal/queue"
	"dugout/internal/services"
	"dugout/internal/stage"
)

// Exporter produces the file that cataloging will copy into the library.
// Items with a trim window are cut via ffmpeg stream copy; everything else
// passes through untouched so unedited clips never pay a remux.
type Exporter struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client ffmpeg.Client
}

// NewExporter constructs the export handler using default dependencies.
func NewExporter(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Exporter {
	client := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary()))
	return NewExporterWithDependencies(cfg, store, logger, client)
}

// NewExporterWithDependencies allows injecting collaborators (used in tests).
func NewExporterWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client ffmpeg.Client) *Exporter {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "exporter"))
	}
	return &Exporter{store: store, cfg: cfg, logger: stageLogger, client: client}
}

func (e *Exporter) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	item.InitProgress("Exporting", "Starting export")
	logger.Info(
		"starting export preparation",
		logging.String("clip_title", strings.TrimSpace(item.ClipTitle)),
		logging.Bool("has_trim", item.HasTrim()),
	)
	return nil
}

func (e *Exporter) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	source := strings.TrimSpace(item.SourcePath)
	if source == "" {
		return services.Wrap(
			services.ErrValidation,
			"exporting",
			"check source",
			"Queue item has no source path; run validation first",
			nil,
		)
	}

	mediaInfo, err := stage.ParseMediaInfo(item.MediaInfoJSON)
	if err != nil {
		return err
	}
	duration := mediaInfo.DurationSeconds()

	spansWholeClip := item.HasTrim() && fullRange(item, duration)
	if !item.HasTrim() || spansWholeClip {
		item.ExportedFile = source
		item.SetProgressComplete("Exported", "No trim requested; source passes through")
		logger.Info(
			"export pass-through",
			logging.String("source_path", source),
			logging.Bool("full_range", spansWholeClip),
		)
		return nil
	}

	if e.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"exporting",
			"check client",
			"ffmpeg client unavailable; check the ffmpeg installation",
			nil,
		)
	}

	exportDir := filepath.Join(e.cfg.Paths.StagingDir, "exports")
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"exporting",
			"ensure export dir",
			"Failed to create export directory; set staging_dir to a writable location",
			err,
		)
	}
	ext := filepath.Ext(source)
	if ext == "" {
		ext = "." + strings.TrimPrefix(e.cfg.Capture.Container, ".")
	}
	output := filepath.Join(exportDir, fmt.Sprintf("clip-%d%s", item.ID, ext))
	window := item.TrimEndSec - item.TrimStartSec

	logger.Info(
		"launching ffmpeg trim",
		logging.String("source_path", source),
		logging.String("output_path", output),
		logging.Float64("trim_start_seconds", item.TrimStartSec),
		logging.Float64("trim_end_seconds", item.TrimEndSec),
	)

	const progressPersistInterval = 2 * time.Second
	var lastPersisted time.Time
	progressSampler := logging.NewProgressSampler(5)
	progress := func(update ffmpeg.ProgressUpdate) {
		copy := *item
		changed := false
		if update.Percent >= 0 && update.Percent != copy.ProgressPercent {
			copy.ProgressPercent = update.Percent
			changed = true
		}
		message := trimProgressMessage(update, window)
		if message != "" && message != copy.ProgressMessage {
			copy.ProgressMessage = message
			changed = true
		}
		if !changed {
			return
		}
		if progressSampler.ShouldLog(update.Percent, copy.ProgressStage, message) {
			logger.Info(
				"trim progress",
				logging.Float64("progress_percent", update.Percent),
				logging.String("progress_message", message),
			)
		}
		now := time.Now()
		if !lastPersisted.IsZero() && now.Sub(lastPersisted) < progressPersistInterval {
			*item = copy
			return
		}
		lastPersisted = now
		if err := e.store.UpdateProgress(ctx, &copy); err != nil {
			logger.Warn("failed to persist export progress", logging.Error(err))
		}
		*item = copy
	}

	spec := ffmpeg.TrimSpec{
		Input:        source,
		Output:       output,
		StartSeconds: item.TrimStartSec,
		EndSeconds:   item.TrimEndSec,
	}
	if err := e.client.Trim(ctx, spec, progress); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(
			services.ErrExternalTool,
			"exporting",
			"ffmpeg trim",
			"ffmpeg trim failed; the source may be corrupt or the staging disk full",
			err,
		)
	}

	info, err := os.Stat(output)
	if err != nil {
		return services.Wrap(services.ErrTransient, "exporting", "verify output", "Trim finished but the output file is missing", err)
	}

	item.ExportedFile = output
	item.SetProgressComplete("Exported", fmt.Sprintf("Trimmed to %s (%s)", formatSeconds(window), humanize.IBytes(uint64(info.Size()))))
	logger.Info(
		"export completed",
		logging.String("exported_file", output),
		logging.Float64("window_seconds", window),
		logging.Int64("size_bytes", info.Size()),
	)
	return nil
}

// HealthCheck verifies ffmpeg availability and export configuration.
func (e *Exporter) HealthCheck(ctx context.Context) stage.Health {
	const name = "exporter"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(e.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if e.client == nil {
		return stage.Unhealthy(name, "ffmpeg client unavailable")
	}
	binary := strings.TrimSpace(e.cfg.FFmpegBinary())
	if binary == "" {
		return stage.Unhealthy(name, "ffmpeg binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg binary %q not found", binary))
	}
	return stage.Healthy(name)
}

// fullRange reports whether the trim window covers the whole clip, in which
// case cutting would only re-copy the same bytes.
func fullRange(item *queue.Item, duration float64) bool {
	if duration <= 0 {
		return false
	}
	return item.TrimStartSec <= 0 && item.TrimEndSec >= duration
}

func trimProgressMessage(update ffmpeg.ProgressUpdate, window float64) string {
	if update.OutTime <= 0 {
		return ""
	}
	message := fmt.Sprintf("Trimming clip (%s of %s)", update.OutTime.Round(time.Second), formatSeconds(window))
	if update.Speed > 0 {
		message = fmt.Sprintf("%s at %.1fx", message, update.Speed)
	}
	return message
}

func formatSeconds(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}
