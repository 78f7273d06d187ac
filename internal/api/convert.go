package api

import (
	"slices"
	"time"

	"dugout/internal/capture"
	"dugout/internal/deps"
	"dugout/internal/preflight"
	"dugout/internal/queue"
	"dugout/internal/stage"
	"dugout/internal/workflow"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:             item.ID,
		ClipTitle:      item.ClipTitle,
		SourcePath:     item.SourcePath,
		Origin:         string(item.Origin),
		Status:         string(item.Status),
		ProcessingLane: string(queue.LaneForItem(item)),
		Progress: QueueProgress{
			Stage:   item.ProgressStage,
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage:      item.ErrorMessage,
		AthleteID:         item.AthleteID,
		GameID:            item.GameID,
		PracticeID:        item.PracticeID,
		TrimStartSec:      item.TrimStartSec,
		TrimEndSec:        item.TrimEndSec,
		HoldForAnnotation: item.HoldForAnnotation,
		PlayResult:        item.PlayResult,
		SpeedMPH:          item.SpeedMPH,
		Highlight:         item.Highlight,
		ExportedFile:      item.ExportedFile,
		FinalFile:         item.FinalFile,
		ThumbnailFile:     item.ThumbnailFile,
		ClipID:            item.ClipID,
		NeedsReview:       item.NeedsReview,
		ReviewReason:      item.ReviewReason,
	}
	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  MergeQueueStats(summary.QueueStats),
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastItem != nil {
		last := FromQueueItem(summary.LastItem)
		wf.LastItem = &last
	}
	return wf
}

// MergeQueueStats produces a string-keyed representation of queue stats.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromDependencyStatuses converts binary availability checks to DTOs.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}

// FromGateReport converts a permission-gate report to DTOs, preserving the
// gate's evaluation order.
func FromGateReport(report preflight.Report) []CapabilityStatus {
	if len(report.Capabilities) == 0 {
		return nil
	}
	out := make([]CapabilityStatus, 0, len(report.Capabilities))
	for _, c := range report.Capabilities {
		out = append(out, CapabilityStatus{
			Name:     c.Name,
			Decision: string(c.Decision),
			Detail:   c.Detail,
			Hint:     c.Hint,
			Optional: c.Optional,
		})
	}
	return out
}

// FromCaptureStatus converts an active-recording snapshot to its DTO.
func FromCaptureStatus(status capture.Status) CaptureStatus {
	dto := CaptureStatus{
		Active:     status.Active,
		SessionID:  status.SessionID,
		ClipTitle:  status.ClipTitle,
		OutputPath: status.OutputPath,
		Preset:     status.Preset,
	}
	if !status.StartedAt.IsZero() {
		dto.StartedAt = status.StartedAt.UTC().Format(dateTimeFormat)
	}
	if status.Elapsed > 0 {
		dto.ElapsedSeconds = status.Elapsed.Seconds()
	}
	return dto
}

// FromStorageProbe converts a headroom probe to its DTO, flagging whether
// free space sits under the configured floor.
func FromStorageProbe(probe preflight.StorageProbe, minFreeBytes uint64) StorageStatus {
	return StorageStatus{
		Path:       probe.Path,
		FreeBytes:  probe.FreeBytes,
		TotalBytes: probe.TotalBytes,
		Low:        probe.Low(minFreeBytes),
		Detail:     probe.Detail(),
	}
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
