package workflow_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"dugout/internal/config"
	"dugout/internal/media/ffmpeg"
	"dugout/internal/notifications"
	"dugout/internal/queue"
	"dugout/internal/stage"
	"dugout/internal/testsupport"
)

// workflowConfig tightens the poll loops so tests drain in milliseconds.
func workflowConfig(t *testing.T, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Workflow.QueuePollInterval = 0
	cfg.Workflow.ErrorRetryInterval = 0
	return cfg
}

type stubStage struct {
	name        string
	prepareHook func(*queue.Item)
	executeHook func(*queue.Item)
	prepareErr  error
	executeErr  error
	health      stage.Health
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, item *queue.Item) error {
	if s.prepareHook != nil {
		s.prepareHook(item)
	}
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, item *queue.Item) error {
	if s.executeHook != nil {
		s.executeHook(item)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

// recordingNotifier captures published events for assertions. Lanes publish
// concurrently, so access is mutex-guarded.
type recordingNotifier struct {
	mu       sync.Mutex
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func (r *recordingNotifier) count(event notifications.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, e := range r.events {
		if e == event {
			total++
		}
	}
	return total
}

func (r *recordingNotifier) lastPayload(event notifications.Event) notifications.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i] == event {
			return r.payloads[i]
		}
	}
	return nil
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		default:
		}
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item != nil && item.Status == want {
			return item
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func waitForEvent(t *testing.T, notifier *recordingNotifier, event notifications.Event) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for notifier.count(event) == 0 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", event)
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// pipelineFFmpeg stands in for the real binary: trims by copying bytes and
// renders thumbnails as fixed payloads.
type pipelineFFmpeg struct{}

func (pipelineFFmpeg) Trim(_ context.Context, spec ffmpeg.TrimSpec, progress func(ffmpeg.ProgressUpdate)) error {
	data, err := os.ReadFile(spec.Input)
	if err != nil {
		return err
	}
	if progress != nil {
		progress(ffmpeg.ProgressUpdate{Percent: 50, OutTime: 3 * time.Second, Speed: 2.0})
	}
	if err := os.WriteFile(spec.Output, data, 0o644); err != nil {
		return err
	}
	if progress != nil {
		progress(ffmpeg.ProgressUpdate{Percent: 100, OutTime: 6 * time.Second, Speed: 2.0})
	}
	return nil
}

func (pipelineFFmpeg) Thumbnail(_ context.Context, spec ffmpeg.ThumbnailSpec) error {
	return os.WriteFile(spec.Output, []byte("jpeg"), 0o644)
}

func (pipelineFFmpeg) StartRecording(context.Context, ffmpeg.RecordSpec) (*ffmpeg.Recording, error) {
	return nil, os.ErrInvalid
}
