package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dugout/internal/logging"
	"dugout/internal/notifications"
	"dugout/internal/queue"
	"dugout/internal/services"
	"dugout/internal/stage"
	"dugout/internal/testsupport"
	"dugout/internal/workflow"
)

func TestManagerProcessesItems(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{
		Validator:   newStubStage("validator"),
		Exporter:    newStubStage("exporter"),
		Cataloger:   newStubStage("cataloger"),
		Thumbnailer: newStubStage("thumbnailer"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewClip(t, store, "Full pipeline", filepath.Join(testsupport.BaseDir(cfg), "swing.mp4"))

	done := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if done.ProgressPercent != 100 {
		t.Fatalf("ProgressPercent = %v, want 100", done.ProgressPercent)
	}
	if done.ProgressStage != "Completed" {
		t.Fatalf("ProgressStage = %q, want Completed", done.ProgressStage)
	}
	if got := notifier.count(notifications.EventQueueStarted); got != 1 {
		t.Fatalf("queue-started events = %d, want 1", got)
	}
	waitForEvent(t, notifier, notifications.EventQueueCompleted)
}

func TestManagerCompletesWithoutThumbnailer(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	mgr.ConfigureStages(workflow.StageSet{
		Validator: newStubStage("validator"),
		Exporter:  newStubStage("exporter"),
		Cataloger: newStubStage("cataloger"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewClip(t, store, "No thumbnailer", filepath.Join(testsupport.BaseDir(cfg), "swing.mp4"))
	waitForStatus(t, store, item.ID, queue.StatusCompleted)
}

func TestManagerRoutesUserFixableFailuresToReview(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	failing := newStubStage("cataloger")
	failing.executeErr = services.Wrap(
		services.ErrValidation, "cataloger", "verify links",
		"Clip needs an athlete before it can be cataloged", nil)

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{Cataloger: failing})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewClip(t, store, "Unassigned", filepath.Join(testsupport.BaseDir(cfg), "swing.mp4"))
	item.Status = queue.StatusExported
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	parked := waitForStatus(t, store, item.ID, queue.StatusReview)
	if !parked.NeedsReview {
		t.Fatal("expected NeedsReview to be set")
	}
	if !strings.Contains(parked.ReviewReason, "athlete") {
		t.Fatalf("ReviewReason = %q, want athlete mention", parked.ReviewReason)
	}
	if parked.ProgressStage != "Review" {
		t.Fatalf("ProgressStage = %q, want Review", parked.ProgressStage)
	}

	waitForEvent(t, notifier, notifications.EventReviewRequired)
	payload := notifier.lastPayload(notifications.EventReviewRequired)
	if payload["clipTitle"] != "Unassigned" {
		t.Fatalf("review payload clipTitle = %v", payload["clipTitle"])
	}
	if notifier.count(notifications.EventError) != 0 {
		t.Fatal("review routing should not also publish an error event")
	}
}

func TestManagerMarksToolFailuresFailed(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	failing := newStubStage("exporter")
	failing.executeErr = services.Wrap(
		services.ErrExternalTool, "exporter", "trim",
		"ffmpeg exited with status 1", errors.New("exit status 1"))

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{Exporter: failing})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewClip(t, store, "Broken trim", filepath.Join(testsupport.BaseDir(cfg), "swing.mp4"))
	item.Status = queue.StatusValidated
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	failed := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if failed.ProgressStage != "Failed" {
		t.Fatalf("ProgressStage = %q, want Failed", failed.ProgressStage)
	}
	if failed.ErrorMessage == "" {
		t.Fatal("expected error message to be populated")
	}
	waitForEvent(t, notifier, notifications.EventError)
}

func TestManagerReclaimsStaleProcessing(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	mgr.ConfigureStages(workflow.StageSet{Validator: newStubStage("validator")})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	item := testsupport.NewClip(t, store, "Orphaned by crash", filepath.Join(testsupport.BaseDir(cfg), "swing.mp4"))
	item.Status = queue.StatusValidating
	stale := time.Now().UTC().Add(-time.Hour)
	item.LastHeartbeat = &stale
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	waitForStatus(t, store, item.ID, queue.StatusValidated)
}

func TestManagerStatusIncludesStageHealth(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := newStubStage("validator")
	handler.health = stage.Unhealthy("validator", "ffprobe missing")

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	mgr.ConfigureStages(workflow.StageSet{Validator: handler})

	status := mgr.Status(context.Background())
	health, ok := status.StageHealth["validator"]
	if !ok {
		t.Fatal("expected stage health entry for validator")
	}
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if health.Detail != "ffprobe missing" {
		t.Fatalf("Detail = %q", health.Detail)
	}
	if status.Running {
		t.Fatal("manager was never started")
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	if err := mgr.Start(context.Background()); err == nil {
		mgr.Stop()
		t.Fatal("Start without configured stages should fail")
	}
}
