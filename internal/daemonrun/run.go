package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"dugout/internal/capture"
	"dugout/internal/catalog"
	"dugout/internal/config"
	"dugout/internal/daemon"
	"dugout/internal/deps"
	"dugout/internal/exporting"
	"dugout/internal/ipc"
	"dugout/internal/library"
	"dugout/internal/logging"
	"dugout/internal/media/ffprobe"
	"dugout/internal/notifications"
	"dugout/internal/preflight"
	"dugout/internal/queue"
	"dugout/internal/thumbnailing"
	"dugout/internal/validation"
	"dugout/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the dugout daemon runtime loop and blocks until the process
// receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("dugout-%s.log", runID))

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update dugout.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "dugout-*.log", Exclude: []string{logPath}},
	)

	logDependencySnapshot(logger, cfg)

	gate := preflight.NewGate(cfg)
	report := gate.Evaluate()
	logGateReport(logger, report)
	if !report.Ready() {
		names := make([]string, 0, len(report.Blockers()))
		for _, blocker := range report.Blockers() {
			names = append(names, blocker.Name)
		}
		return fmt.Errorf("startup blocked by permission gate: %s", strings.Join(names, ", "))
	}

	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		if err := preflight.RegisterDevicePush(signalCtx, topic); err != nil {
			logger.Warn("device push registration failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "push_registration_failed"),
				logging.String(logging.FieldImpact, "push notifications may not reach this device"),
			)
		} else {
			logger.Info("device push registered",
				logging.String(logging.FieldEventType, "push_registered"),
				logging.String("topic", topic),
			)
		}
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "dugout.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	lib, err := library.Open(cfg)
	if err != nil {
		logger.Error("open library store", logging.Error(err))
		return err
	}
	defer lib.Close()

	notifier := notifications.NewService(cfg)
	workflowManager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	registerStages(workflowManager, cfg, store, lib, logger, notifier)

	recorder := capture.NewManagerWithNotifier(cfg, store, logger, notifier)
	d, err := daemon.NewWithDependencies(cfg, store, lib, logger, workflowManager, daemon.Dependencies{
		Recorder: recorder,
		Notifier: notifier,
		Gate:     gate,
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := filepath.Join(cfg.Paths.LogDir, "dugout.sock")
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and queue database access"),
			logging.String(logging.FieldImpact, "daemon may not process queue items"),
		)
	}

	<-signalCtx.Done()
	logger.Info("dugout daemon shutting down")
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, lib *library.Store, logger *slog.Logger, notifier notifications.Service) {
	if mgr == nil || cfg == nil {
		return
	}

	mgr.ConfigureStages(workflow.StageSet{
		Validator:   validation.NewValidatorWithDependencies(cfg, store, logger, ffprobe.Inspect, notifier),
		Exporter:    exporting.NewExporter(cfg, store, logger),
		Cataloger:   catalog.NewCatalogerWithDependencies(cfg, store, lib, logger, notifier),
		Thumbnailer: thumbnailing.NewThumbnailer(cfg, store, lib, logger),
	})
}

// ensureCurrentLogPointer keeps LogDir/dugout.log pointing at the current run
// log so log tailing never needs to know the run ID. Hard link is the
// fallback for filesystems without symlink support.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "dugout.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []any{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ntfy_topic_present", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("video_device", cfg.Capture.VideoDevice),
		logging.Bool("watch_folder_enabled", cfg.Capture.WatchEnabled && cfg.Paths.ImportDir != ""),
	}
	for _, status := range deps.CheckBinaries(deps.MediaToolRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary())) {
		key := strings.ToLower(status.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_binary", status.Command),
		)
	}
	logger.Info("dependency snapshot", attrs...)
}

func logGateReport(logger *slog.Logger, report preflight.Report) {
	if logger == nil {
		return
	}
	for _, capability := range report.Capabilities {
		attrs := []any{
			logging.String(logging.FieldEventType, "capability_check"),
			logging.String("capability", capability.Name),
			logging.String("decision", string(capability.Decision)),
		}
		if capability.Detail != "" {
			attrs = append(attrs, logging.String("detail", capability.Detail))
		}
		switch capability.Decision {
		case preflight.DecisionGranted:
			logger.Info("capability granted", attrs...)
		default:
			if capability.Hint != "" {
				attrs = append(attrs, logging.String(logging.FieldErrorHint, capability.Hint))
			}
			logger.Warn("capability limited", attrs...)
		}
	}
}
