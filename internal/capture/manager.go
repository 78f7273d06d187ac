package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"dugout/internal/config"
	"dugout/internal/fileutil"
	"dugout/internal/logging"
	"dugout/internal/media/ffmpeg"
	"dugout/internal/notifications"
	"dugout/internal/queue"
	"dugout/internal/services"
)

// Session is the live recording handle the manager drives. *ffmpeg.Recording
// satisfies it; tests substitute stubs.
type Session interface {
	Output() string
	Done() <-chan struct{}
	Elapsed() time.Duration
	Stop(ctx context.Context) error
	Cancel() error
}

// Starter launches a camera session. The default implementation wraps
// ffmpeg.Client.StartRecording.
type Starter func(ctx context.Context, spec ffmpeg.RecordSpec) (Session, error)

// StartRequest describes a new camera recording session. Annotation fields
// ride along and land on the queue item when the session finalizes.
type StartRequest struct {
	ClipTitle          string
	AthleteID          int64
	GameID             int64
	PracticeID         int64
	QualityPreset      string  // empty uses capture.quality_preset
	MaxDurationSeconds float64 // zero uses capture.max_clip_seconds
	HoldForAnnotation  bool
}

// Status is a point-in-time snapshot of the recording state.
type Status struct {
	Active     bool
	SessionID  string
	ClipTitle  string
	OutputPath string
	Preset     string
	StartedAt  time.Time
	Elapsed    time.Duration
}

type session struct {
	id         string
	req        StartRequest
	presetName string
	recording  Session
	startedAt  time.Time
	finalizing bool
}

// Manager owns the single camera session the daemon allows. Start, Stop,
// Cancel, and Current are safe for concurrent IPC handlers.
type Manager struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
	start    Starter

	mu      sync.Mutex
	session *session
}

// NewManager constructs the capture manager using default dependencies.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier keeps the production ffmpeg recorder but shares the
// caller's notifier, so daemon-wide event dedup works across components.
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	client := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary()))
	starter := func(ctx context.Context, spec ffmpeg.RecordSpec) (Session, error) {
		return client.StartRecording(ctx, spec)
	}
	return NewManagerWithDependencies(cfg, store, logger, notifier, starter)
}

// NewManagerWithDependencies allows injecting collaborators (used in tests).
func NewManagerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, starter Starter) *Manager {
	captureLogger := logger
	if captureLogger != nil {
		captureLogger = captureLogger.With(logging.String("component", "capture"))
	}
	return &Manager{store: store, cfg: cfg, logger: captureLogger, notifier: notifier, start: starter}
}

// Start begins a recording session. ctx bounds the ffmpeg process lifetime:
// callers pass the daemon's run context, never a per-request one, so a
// returning RPC cannot kill the encoder mid-capture.
func (m *Manager) Start(ctx context.Context, req StartRequest) (Status, error) {
	logger := logging.WithContext(ctx, m.logger)

	device := strings.TrimSpace(m.cfg.Capture.VideoDevice)
	if device == "" {
		return Status{}, services.Wrap(
			services.ErrConfiguration,
			"capture",
			"check camera",
			"No camera device configured; set capture.video_device",
			nil,
		)
	}
	if _, err := os.Stat(device); err != nil {
		return Status{}, services.Wrap(
			services.ErrCapability,
			"capture",
			"check camera",
			fmt.Sprintf("Camera device %s is not available; connect the camera or fix capture.video_device", device),
			err,
		)
	}

	presetName := req.QualityPreset
	if strings.TrimSpace(presetName) == "" {
		presetName = m.cfg.Capture.QualityPreset
	}
	quality, presetName, err := resolvePreset(presetName)
	if err != nil {
		return Status{}, services.Wrap(services.ErrValidation, "capture", "resolve preset", err.Error(), nil)
	}

	maxDuration := req.MaxDurationSeconds
	if maxDuration <= 0 {
		maxDuration = float64(m.cfg.Capture.MaxClipSeconds)
	}

	captureDir := filepath.Join(m.cfg.Paths.StagingDir, "captures")
	if err := os.MkdirAll(captureDir, 0o755); err != nil {
		return Status{}, services.Wrap(
			services.ErrConfiguration,
			"capture",
			"ensure capture dir",
			"Failed to create the capture staging directory; check staging_dir permissions",
			err,
		)
	}

	m.warnOnLowStorage(ctx)

	sessionID := uuid.New().String()
	container := strings.TrimPrefix(m.cfg.Capture.Container, ".")
	output := filepath.Join(captureDir, fmt.Sprintf("capture-%s.%s", sessionID, container))

	spec := ffmpeg.RecordSpec{
		Device:             device,
		Output:             output,
		VideoSize:          quality.VideoSize,
		FrameRate:          m.cfg.Capture.Framerate,
		Preset:             quality.X264Speed,
		CRF:                quality.CRF,
		MaxDurationSeconds: maxDuration,
	}

	m.mu.Lock()
	if m.session != nil {
		active := m.snapshotLocked()
		m.mu.Unlock()
		return active, services.Wrap(
			services.ErrValidation,
			"capture",
			"start recording",
			fmt.Sprintf("A recording is already in progress (%s); stop or cancel it first", active.ClipTitle),
			nil,
		)
	}

	recording, err := m.start(ctx, spec)
	if err != nil {
		m.mu.Unlock()
		return Status{}, services.Wrap(
			services.ErrExternalTool,
			"capture",
			"start ffmpeg",
			"ffmpeg could not start recording; check the camera device and format support",
			err,
		)
	}

	startedAt := time.Now()
	if strings.TrimSpace(req.ClipTitle) == "" {
		req.ClipTitle = "Capture " + startedAt.Format("2006-01-02 15:04")
	}
	sess := &session{
		id:         sessionID,
		req:        req,
		presetName: presetName,
		recording:  recording,
		startedAt:  startedAt,
	}
	m.session = sess
	status := m.snapshotLocked()
	m.mu.Unlock()

	go m.watchAutoStop(sess)

	logger.Info(
		"recording started",
		logging.String("session_id", sessionID),
		logging.String("device", device),
		logging.String("preset", presetName),
		logging.String("output", output),
		logging.Float64("max_duration_seconds", maxDuration),
	)
	m.publish(ctx, notifications.EventCaptureStarted, notifications.Payload{
		"clipTitle": req.ClipTitle,
		"device":    device,
	})
	return status, nil
}

// Stop finalizes the active recording and enqueues the clip.
func (m *Manager) Stop(ctx context.Context) (*queue.Item, error) {
	logger := logging.WithContext(ctx, m.logger)

	m.mu.Lock()
	sess := m.session
	if sess == nil || sess.finalizing {
		m.mu.Unlock()
		return nil, services.Wrap(
			services.ErrNotFound,
			"capture",
			"stop recording",
			"No recording in progress",
			nil,
		)
	}
	sess.finalizing = true
	m.mu.Unlock()

	stopErr := sess.recording.Stop(ctx)

	m.mu.Lock()
	if m.session == sess {
		m.session = nil
	}
	m.mu.Unlock()

	if stopErr != nil {
		return nil, services.Wrap(
			services.ErrExternalTool,
			"capture",
			"stop ffmpeg",
			"ffmpeg failed to finalize the recording",
			stopErr,
		)
	}

	item, err := m.enqueue(ctx, sess)
	if err != nil {
		return nil, err
	}
	logger.Info(
		"recording stopped",
		logging.String("session_id", sess.id),
		logging.Int64("item_id", item.ID),
		logging.Duration("elapsed", sess.recording.Elapsed()),
	)
	m.publish(ctx, notifications.EventCaptureCompleted, notifications.Payload{
		"clipTitle": sess.req.ClipTitle,
	})
	return item, nil
}

// Cancel kills the active recording and discards the partial file.
func (m *Manager) Cancel(ctx context.Context) error {
	logger := logging.WithContext(ctx, m.logger)

	m.mu.Lock()
	sess := m.session
	if sess == nil || sess.finalizing {
		m.mu.Unlock()
		return services.Wrap(
			services.ErrNotFound,
			"capture",
			"cancel recording",
			"No recording in progress",
			nil,
		)
	}
	sess.finalizing = true
	m.mu.Unlock()

	err := sess.recording.Cancel()

	m.mu.Lock()
	if m.session == sess {
		m.session = nil
	}
	m.mu.Unlock()

	if err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			"capture",
			"cancel ffmpeg",
			"Failed to discard the cancelled recording",
			err,
		)
	}
	logger.Info("recording cancelled", logging.String("session_id", sess.id))
	return nil
}

// Current reports the active session, if any.
func (m *Manager) Current() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Status {
	if m.session == nil {
		return Status{}
	}
	sess := m.session
	return Status{
		Active:     true,
		SessionID:  sess.id,
		ClipTitle:  sess.req.ClipTitle,
		OutputPath: sess.recording.Output(),
		Preset:     sess.presetName,
		StartedAt:  sess.startedAt,
		Elapsed:    sess.recording.Elapsed(),
	}
}

// watchAutoStop finalizes sessions that end without an explicit stop, which
// happens when ffmpeg hits the duration cap or the device disappears.
func (m *Manager) watchAutoStop(sess *session) {
	<-sess.recording.Done()

	m.mu.Lock()
	if m.session != sess || sess.finalizing {
		m.mu.Unlock()
		return
	}
	sess.finalizing = true
	m.session = nil
	m.mu.Unlock()

	ctx := context.Background()
	logger := m.logger
	info, err := os.Stat(sess.recording.Output())
	if err != nil || info.Size() == 0 {
		logger.Error(
			"recording ended without a usable file",
			logging.String("session_id", sess.id),
			logging.String("output", sess.recording.Output()),
			logging.Error(err),
		)
		if err == nil {
			_ = os.Remove(sess.recording.Output())
		}
		m.publish(ctx, notifications.EventError, notifications.Payload{
			"context": "camera recording",
			"error":   "recording ended without a usable file",
		})
		return
	}

	item, err := m.enqueue(ctx, sess)
	if err != nil {
		logger.Error("failed to enqueue auto-stopped recording", logging.Error(err))
		return
	}
	logger.Info(
		"recording auto-stopped at duration cap",
		logging.String("session_id", sess.id),
		logging.Int64("item_id", item.ID),
	)
	m.publish(ctx, notifications.EventCaptureCompleted, notifications.Payload{
		"clipTitle": sess.req.ClipTitle,
	})
}

func (m *Manager) enqueue(ctx context.Context, sess *session) (*queue.Item, error) {
	item, err := m.store.NewCapture(ctx, queue.NewClipRequest{
		SourcePath:        sess.recording.Output(),
		ClipTitle:         sess.req.ClipTitle,
		AthleteID:         sess.req.AthleteID,
		GameID:            sess.req.GameID,
		PracticeID:        sess.req.PracticeID,
		HoldForAnnotation: sess.req.HoldForAnnotation,
	})
	if err != nil {
		return nil, services.Wrap(
			services.ErrPersistence,
			"capture",
			"enqueue recording",
			"Recording finished but could not be queued; the file remains in staging",
			err,
		)
	}
	return item, nil
}

// warnOnLowStorage surfaces tight staging headroom before a session starts.
// Advisory only: recording proceeds regardless.
func (m *Manager) warnOnLowStorage(ctx context.Context) {
	minFree := m.cfg.MinFreeSpaceBytes()
	if minFree == 0 {
		return
	}
	free, err := fileutil.FreeBytes(m.cfg.Paths.StagingDir)
	if err != nil || free >= minFree {
		return
	}
	logger := logging.WithContext(ctx, m.logger)
	logger.Warn(
		"low storage headroom for recording",
		logging.Alert("storage_low"),
		logging.Uint64("free_bytes", free),
		logging.Uint64("min_free_bytes", minFree),
	)
	m.publish(ctx, notifications.EventStorageLow, notifications.Payload{
		"path":      m.cfg.Paths.StagingDir,
		"freeMB":    int(free / (1024 * 1024)),
		"minFreeMB": int(minFree / (1024 * 1024)),
	})
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		m.logger.Warn("capture notification failed", logging.Error(err))
	}
}
