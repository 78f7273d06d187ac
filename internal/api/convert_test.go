package api

import (
	"testing"
	"time"

	"dugout/internal/capture"
	"dugout/internal/deps"
	"dugout/internal/preflight"
	"dugout/internal/queue"
	"dugout/internal/stage"
	"dugout/internal/workflow"
)

func TestFromQueueItemMapsAnnotationFields(t *testing.T) {
	created := time.Date(2026, 5, 2, 18, 30, 0, 0, time.UTC)
	item := &queue.Item{
		ID:                7,
		ClipTitle:         "Lopez vs Central",
		SourcePath:        "/staging/lopez.mp4",
		Origin:            queue.OriginImport,
		Status:            queue.StatusExported,
		AthleteID:         3,
		GameID:            12,
		TrimStartSec:      4.5,
		TrimEndSec:        19,
		HoldForAnnotation: true,
		PlayResult:        "double",
		SpeedMPH:          63.5,
		Highlight:         true,
		ExportedFile:      "/staging/queue-7/lopez.mp4",
		CreatedAt:         created,
		UpdatedAt:         created.Add(time.Minute),
		ProgressStage:     "Exporting",
		ProgressPercent:   80,
	}

	dto := FromQueueItem(item)
	if dto.ID != 7 || dto.ClipTitle != "Lopez vs Central" {
		t.Fatalf("unexpected identity fields: %+v", dto)
	}
	if dto.Origin != "import" || dto.Status != "exported" {
		t.Fatalf("unexpected enums: origin=%q status=%q", dto.Origin, dto.Status)
	}
	if dto.ProcessingLane != string(queue.LaneForItem(item)) {
		t.Fatalf("lane mismatch: %q", dto.ProcessingLane)
	}
	if dto.AthleteID != 3 || dto.GameID != 12 || dto.PracticeID != 0 {
		t.Fatalf("unexpected assignment fields: %+v", dto)
	}
	if dto.TrimStartSec != 4.5 || dto.TrimEndSec != 19 {
		t.Fatalf("unexpected trim window: %+v", dto)
	}
	if !dto.HoldForAnnotation || dto.PlayResult != "double" || dto.SpeedMPH != 63.5 || !dto.Highlight {
		t.Fatalf("unexpected annotation fields: %+v", dto)
	}
	if dto.Progress.Stage != "Exporting" || dto.Progress.Percent != 80 {
		t.Fatalf("unexpected progress: %+v", dto.Progress)
	}
	if dto.CreatedAt != "2026-05-02T18:30:00.000Z" {
		t.Fatalf("unexpected createdAt: %q", dto.CreatedAt)
	}
	if dto.UpdatedAt == "" || dto.UpdatedAt == dto.CreatedAt {
		t.Fatalf("unexpected updatedAt: %q", dto.UpdatedAt)
	}
}

func TestFromQueueItemNil(t *testing.T) {
	if dto := FromQueueItem(nil); dto.ID != 0 || dto.Status != "" {
		t.Fatalf("expected zero DTO, got %+v", dto)
	}
	if out := FromQueueItems(nil); out != nil {
		t.Fatalf("expected nil slice, got %v", out)
	}
}

func TestFromStatusSummary(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:   true,
		LastError: "exporter: boom",
		LastItem:  &queue.Item{ID: 2, ClipTitle: "bunt drill", Status: queue.StatusFailed},
		QueueStats: map[queue.Status]int{
			queue.StatusPending:   2,
			queue.StatusCompleted: 5,
		},
		StageHealth: map[string]stage.Health{
			"validator": {Name: "validator", Ready: true},
			"exporter":  {Name: "exporter", Ready: false, Detail: "ffmpeg missing"},
		},
	}

	wf := FromStatusSummary(summary)
	if !wf.Running || wf.LastError != "exporter: boom" {
		t.Fatalf("unexpected workflow status: %+v", wf)
	}
	if wf.QueueStats["pending"] != 2 || wf.QueueStats["completed"] != 5 {
		t.Fatalf("unexpected stats: %+v", wf.QueueStats)
	}
	if wf.LastItem == nil || wf.LastItem.ID != 2 {
		t.Fatalf("unexpected last item: %+v", wf.LastItem)
	}
	if len(wf.StageHealth) != 2 || wf.StageHealth[0].Name != "exporter" || wf.StageHealth[1].Name != "validator" {
		t.Fatalf("expected sorted stage health, got %+v", wf.StageHealth)
	}
	if wf.StageHealth[0].Detail != "ffmpeg missing" {
		t.Fatalf("unexpected health detail: %+v", wf.StageHealth[0])
	}
}

func TestFromGateReportPreservesOrder(t *testing.T) {
	report := preflight.Report{Capabilities: []preflight.Capability{
		{Name: "Staging directory", Decision: preflight.DecisionGranted, Detail: "ok"},
		{Name: "Camera device", Decision: preflight.DecisionUnknown, Hint: "set capture.video_device", Optional: true},
	}}
	out := FromGateReport(report)
	if len(out) != 2 {
		t.Fatalf("expected 2 capabilities, got %d", len(out))
	}
	if out[0].Name != "Staging directory" || out[0].Decision != "granted" {
		t.Fatalf("unexpected first capability: %+v", out[0])
	}
	if out[1].Decision != "unknown" || !out[1].Optional || out[1].Hint == "" {
		t.Fatalf("unexpected second capability: %+v", out[1])
	}
}

func TestFromDependencyStatuses(t *testing.T) {
	out := FromDependencyStatuses([]deps.Status{
		{Name: "FFmpeg", Command: "ffmpeg", Available: true, Detail: "ffmpeg"},
	})
	if len(out) != 1 || out[0].Name != "FFmpeg" || !out[0].Available {
		t.Fatalf("unexpected dependency DTOs: %+v", out)
	}
	if FromDependencyStatuses(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestFromCaptureStatus(t *testing.T) {
	started := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	dto := FromCaptureStatus(capture.Status{
		Active:     true,
		SessionID:  "b2f9",
		ClipTitle:  "live BP",
		OutputPath: "/staging/live-bp.mp4",
		Preset:     "game",
		StartedAt:  started,
		Elapsed:    90 * time.Second,
	})
	if !dto.Active || dto.SessionID != "b2f9" || dto.Preset != "game" {
		t.Fatalf("unexpected capture DTO: %+v", dto)
	}
	if dto.StartedAt != "2026-05-02T09:00:00.000Z" {
		t.Fatalf("unexpected startedAt: %q", dto.StartedAt)
	}
	if dto.ElapsedSeconds != 90 {
		t.Fatalf("unexpected elapsed: %v", dto.ElapsedSeconds)
	}

	idle := FromCaptureStatus(capture.Status{})
	if idle.Active || idle.StartedAt != "" || idle.ElapsedSeconds != 0 {
		t.Fatalf("unexpected idle DTO: %+v", idle)
	}
}

func TestFromStorageProbe(t *testing.T) {
	probe := preflight.StorageProbe{Path: "/staging", FreeBytes: 100, TotalBytes: 1000}
	low := FromStorageProbe(probe, 200)
	if !low.Low || low.FreeBytes != 100 || low.Detail == "" {
		t.Fatalf("unexpected storage DTO: %+v", low)
	}
	ok := FromStorageProbe(probe, 50)
	if ok.Low {
		t.Fatalf("expected headroom above floor, got %+v", ok)
	}
}
