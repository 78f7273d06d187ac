package capture_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"dugout/internal/capture"
	"dugout/internal/logging"
	"dugout/internal/media/ffmpeg"
	"dugout/internal/notifications"
	"dugout/internal/queue"
	"dugout/internal/services"
	"dugout/internal/testsupport"
)

type stubSession struct {
	output string
	done   chan struct{}
	stopErr error

	mu        sync.Mutex
	stopped   bool
	cancelled bool
}

func (s *stubSession) Output() string          { return s.output }
func (s *stubSession) Done() <-chan struct{}   { return s.done }
func (s *stubSession) Elapsed() time.Duration  { return 3 * time.Second }

func (s *stubSession) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.cancelled {
		return nil
	}
	s.stopped = true
	close(s.done)
	if s.stopErr != nil {
		return s.stopErr
	}
	return os.WriteFile(s.output, []byte("recorded"), 0o644)
}

func (s *stubSession) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.cancelled {
		return nil
	}
	s.cancelled = true
	close(s.done)
	if err := os.Remove(s.output); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type fakeStarter struct {
	specs    []ffmpeg.RecordSpec
	sessions []*stubSession
	startErr error
}

func (f *fakeStarter) start(ctx context.Context, spec ffmpeg.RecordSpec) (capture.Session, error) {
	f.specs = append(f.specs, spec)
	if f.startErr != nil {
		return nil, f.startErr
	}
	// ffmpeg creates the container immediately; mirror that so cancel has
	// something to discard.
	if err := os.WriteFile(spec.Output, []byte("partial"), 0o644); err != nil {
		return nil, err
	}
	sess := &stubSession{output: spec.Output, done: make(chan struct{})}
	f.sessions = append(f.sessions, sess)
	return sess, nil
}

type stubNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *stubNotifier) TestNotification(context.Context) error { return nil }

func deviceConfigOptions(t *testing.T) (string, []testsupport.ConfigOption) {
	t.Helper()
	device := filepath.Join(t.TempDir(), "video0")
	if err := os.WriteFile(device, nil, 0o644); err != nil {
		t.Fatalf("write device node: %v", err)
	}
	return device, []testsupport.ConfigOption{testsupport.WithVideoDevice(device)}
}

func TestManagerStartsAndStopsSession(t *testing.T) {
	device, opts := deviceConfigOptions(t)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)

	starter := &fakeStarter{}
	notifier := &stubNotifier{}
	manager := capture.NewManagerWithDependencies(cfg, store, logging.NewNop(), notifier, starter.start)

	status, err := manager.Start(context.Background(), capture.StartRequest{
		ClipTitle:          "Bullpen session",
		AthleteID:          4,
		QualityPreset:      "high",
		MaxDurationSeconds: 120,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !status.Active || status.Preset != "high" {
		t.Fatalf("unexpected status: %+v", status)
	}

	if len(starter.specs) != 1 {
		t.Fatalf("expected one recording spec, got %d", len(starter.specs))
	}
	spec := starter.specs[0]
	if spec.Device != device {
		t.Fatalf("expected device %q, got %q", device, spec.Device)
	}
	if spec.VideoSize != "1920x1080" || spec.CRF != 18 {
		t.Fatalf("expected high preset settings, got %+v", spec)
	}
	if spec.MaxDurationSeconds != 120 {
		t.Fatalf("expected duration cap 120, got %v", spec.MaxDurationSeconds)
	}
	if !strings.HasPrefix(spec.Output, filepath.Join(cfg.Paths.StagingDir, "captures")) {
		t.Fatalf("expected output under staging captures, got %q", spec.Output)
	}
	if filepath.Ext(spec.Output) != ".mp4" {
		t.Fatalf("expected configured container extension, got %q", spec.Output)
	}

	item, err := manager.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if item.Origin != queue.OriginCamera {
		t.Fatalf("expected camera origin, got %s", item.Origin)
	}
	if item.AthleteID != 4 {
		t.Fatalf("expected athlete carried onto item, got %d", item.AthleteID)
	}
	if item.SourcePath != spec.Output {
		t.Fatalf("expected item source %q, got %q", spec.Output, item.SourcePath)
	}
	if _, err := os.Stat(item.SourcePath); err != nil {
		t.Fatalf("expected finalized recording on disk: %v", err)
	}
	if manager.Current().Active {
		t.Fatal("expected no active session after stop")
	}
}

func TestManagerRejectsConcurrentSessions(t *testing.T) {
	_, opts := deviceConfigOptions(t)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)

	starter := &fakeStarter{}
	manager := capture.NewManagerWithDependencies(cfg, store, logging.NewNop(), &stubNotifier{}, starter.start)

	if _, err := manager.Start(context.Background(), capture.StartRequest{ClipTitle: "First"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err := manager.Start(context.Background(), capture.StartRequest{ClipTitle: "Second"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for concurrent session, got %v", err)
	}
	if len(starter.specs) != 1 {
		t.Fatalf("expected second session to never spawn ffmpeg, got %d specs", len(starter.specs))
	}
}

func TestManagerCancelDiscardsPartialFile(t *testing.T) {
	_, opts := deviceConfigOptions(t)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)

	starter := &fakeStarter{}
	manager := capture.NewManagerWithDependencies(cfg, store, logging.NewNop(), &stubNotifier{}, starter.start)

	status, err := manager.Start(context.Background(), capture.StartRequest{ClipTitle: "Scrapped"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := manager.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := os.Stat(status.OutputPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected partial file removed, got %v", err)
	}
	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected nothing enqueued after cancel, got %d items", len(items))
	}
	if manager.Current().Active {
		t.Fatal("expected no active session after cancel")
	}
}

func TestManagerAutoStopEnqueuesFinishedRecording(t *testing.T) {
	_, opts := deviceConfigOptions(t)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)

	starter := &fakeStarter{}
	manager := capture.NewManagerWithDependencies(cfg, store, logging.NewNop(), &stubNotifier{}, starter.start)

	status, err := manager.Start(context.Background(), capture.StartRequest{ClipTitle: "Capped"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Simulate ffmpeg hitting its duration cap: the file is finalized and
	// the process exits without a stop request.
	sess := starter.sessions[0]
	if err := os.WriteFile(sess.Output(), []byte("finalized"), 0o644); err != nil {
		t.Fatalf("finalize output: %v", err)
	}
	close(sess.done)

	deadline := time.Now().Add(2 * time.Second)
	var item *queue.Item
	for time.Now().Before(deadline) {
		item, err = store.FindBySourcePath(context.Background(), status.OutputPath)
		if err != nil {
			t.Fatalf("FindBySourcePath: %v", err)
		}
		if item != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if item == nil {
		t.Fatal("expected auto-stopped recording to be enqueued")
	}
	if item.Origin != queue.OriginCamera {
		t.Fatalf("expected camera origin, got %s", item.Origin)
	}
	if manager.Current().Active {
		t.Fatal("expected session cleared after auto-stop")
	}
}

func TestManagerStopWithoutSession(t *testing.T) {
	_, opts := deviceConfigOptions(t)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)

	manager := capture.NewManagerWithDependencies(cfg, store, logging.NewNop(), &stubNotifier{}, (&fakeStarter{}).start)
	_, err := manager.Stop(context.Background())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestManagerStartRequiresConfiguredDevice(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Capture.VideoDevice = ""
	store := testsupport.MustOpenStore(t, cfg)

	manager := capture.NewManagerWithDependencies(cfg, store, logging.NewNop(), &stubNotifier{}, (&fakeStarter{}).start)
	_, err := manager.Start(context.Background(), capture.StartRequest{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestManagerStartRejectsMissingDevice(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVideoDevice(filepath.Join(t.TempDir(), "video9")))
	store := testsupport.MustOpenStore(t, cfg)

	manager := capture.NewManagerWithDependencies(cfg, store, logging.NewNop(), &stubNotifier{}, (&fakeStarter{}).start)
	_, err := manager.Start(context.Background(), capture.StartRequest{})
	if !errors.Is(err, services.ErrCapability) {
		t.Fatalf("expected capability error, got %v", err)
	}
	if details := services.Details(err); details.Kind != services.KindCapability {
		t.Fatalf("expected capability kind, got %s", details.Kind)
	}
}

func TestManagerStartRejectsUnknownPreset(t *testing.T) {
	_, opts := deviceConfigOptions(t)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)

	manager := capture.NewManagerWithDependencies(cfg, store, logging.NewNop(), &stubNotifier{}, (&fakeStarter{}).start)
	_, err := manager.Start(context.Background(), capture.StartRequest{QualityPreset: "ultra"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if details := services.Details(err); !strings.Contains(details.Message, "ultra") {
		t.Fatalf("expected preset named in message, got %q", details.Message)
	}
}

func TestManagerDefaultsClipTitle(t *testing.T) {
	_, opts := deviceConfigOptions(t)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)

	manager := capture.NewManagerWithDependencies(cfg, store, logging.NewNop(), &stubNotifier{}, (&fakeStarter{}).start)
	status, err := manager.Start(context.Background(), capture.StartRequest{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(status.ClipTitle, "Capture ") {
		t.Fatalf("expected generated title, got %q", status.ClipTitle)
	}
}
