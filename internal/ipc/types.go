package ipc

import "dugout/internal/api"

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// QueueItem mirrors the shared queue DTO for IPC callers.
type QueueItem = api.QueueItem

// StageHealth describes readiness of a workflow stage.
type StageHealth = api.StageHealth

// DependencyStatus describes availability of an external tool.
type DependencyStatus = api.DependencyStatus

// CapabilityStatus describes one permission-gate capability decision.
type CapabilityStatus = api.CapabilityStatus

// CaptureStatus describes the active recording session.
type CaptureStatus = api.CaptureStatus

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running       bool               `json:"running"`
	QueueStats    map[string]int     `json:"queue_stats"`
	LastError     string             `json:"last_error"`
	LastItem      *QueueItem         `json:"last_item"`
	LockPath      string             `json:"lock_path"`
	QueueDBPath   string             `json:"queue_db_path"`
	StageHealth   []StageHealth      `json:"stage_health"`
	Capabilities  []CapabilityStatus `json:"capabilities"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Capture       *CaptureStatus     `json:"capture,omitempty"`
	CameraPresent bool               `json:"camera_present"`
	PID           int                `json:"pid"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches a single queue item by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single queue entry.
type QueueDescribeResponse struct {
	Item QueueItem `json:"item"`
}

// QueueClearRequest removes all items.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed items.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest removes completed items.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueResetRequest resets in-flight items.
type QueueResetRequest struct{}

// QueueResetResponse reports number of items reset.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// RetryItemResult reports the per-item outcome of a retry request.
type RetryItemResult = api.RetryItemResult

// QueueRetryRequest retries failed items by id.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports retried items and per-item outcomes.
type QueueRetryResponse struct {
	Updated int64             `json:"updated"`
	Items   []RetryItemResult `json:"items"`
}

// StopItemResult reports the per-item outcome of a stop request.
type StopItemResult = api.StopItemResult

// QueueStopRequest stops queue items. Empty list is invalid.
type QueueStopRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueStopResponse reports stopped items and per-item outcomes.
type QueueStopResponse struct {
	Updated int64            `json:"updated"`
	Items   []StopItemResult `json:"items"`
}

// RemoveItemResult reports the per-item outcome of a remove request.
type RemoveItemResult = api.RemoveItemResult

// QueueRemoveRequest removes specific items by ID.
type QueueRemoveRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRemoveResponse reports removed items and per-item outcomes.
type QueueRemoveResponse struct {
	Removed int64              `json:"removed"`
	Items   []RemoveItemResult `json:"items"`
}

// QueueResolveRequest returns a review-parked item to pending.
type QueueResolveRequest struct {
	ID int64 `json:"id"`
}

// QueueResolveResponse carries the released item.
type QueueResolveResponse struct {
	Item QueueItem `json:"item"`
}

// AddRequest enqueues a local video file with optional annotation details.
type AddRequest struct {
	SourcePath        string  `json:"source_path"`
	ClipTitle         string  `json:"clip_title"`
	AthleteID         int64   `json:"athlete_id"`
	GameID            int64   `json:"game_id"`
	PracticeID        int64   `json:"practice_id"`
	TrimStartSec      float64 `json:"trim_start_sec"`
	TrimEndSec        float64 `json:"trim_end_sec"`
	HoldForAnnotation bool    `json:"hold_for_annotation"`
	PlayResult        string  `json:"play_result"`
	SpeedMPH          float64 `json:"speed_mph"`
	Highlight         bool    `json:"highlight"`
}

// AddResponse carries the enqueued item.
type AddResponse struct {
	Item QueueItem `json:"item"`
}

// AnnotateRequest records a play outcome against a queue item.
type AnnotateRequest struct {
	ID          int64   `json:"id"`
	PlayResult  string  `json:"play_result"`
	SpeedMPH    float64 `json:"speed_mph"`
	AthleteID   int64   `json:"athlete_id"`
	ReleaseHold bool    `json:"release_hold"`
}

// AnnotateResponse carries the updated item.
type AnnotateResponse struct {
	Item QueueItem `json:"item"`
}

// RecordStartRequest begins a camera recording session.
type RecordStartRequest struct {
	ClipTitle          string  `json:"clip_title"`
	AthleteID          int64   `json:"athlete_id"`
	GameID             int64   `json:"game_id"`
	PracticeID         int64   `json:"practice_id"`
	QualityPreset      string  `json:"quality_preset"`
	MaxDurationSeconds float64 `json:"max_duration_seconds"`
	HoldForAnnotation  bool    `json:"hold_for_annotation"`
}

// RecordStartResponse reports the started session.
type RecordStartResponse struct {
	Session CaptureStatus `json:"session"`
}

// RecordStopRequest finalizes the active recording.
type RecordStopRequest struct{}

// RecordStopResponse carries the enqueued clip item.
type RecordStopResponse struct {
	Item QueueItem `json:"item"`
}

// RecordCancelRequest aborts the active recording.
type RecordCancelRequest struct{}

// RecordCancelResponse reports cancel result.
type RecordCancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// RecordStatusRequest fetches the active recording session.
type RecordStatusRequest struct{}

// RecordStatusResponse reports the recording state.
type RecordStatusResponse struct {
	Session CaptureStatus `json:"session"`
}

// StorageStatusRequest probes staging free space.
type StorageStatusRequest struct{}

// StorageStatusResponse reports staging storage headroom.
type StorageStatusResponse struct {
	Storage api.StorageStatus `json:"storage"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    string   `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalItems       int      `json:"total_items"`
	Error            string   `json:"error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// QueueHealthRequest fetches aggregate diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue health information.
type QueueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Review     int `json:"review"`
	Completed  int `json:"completed"`
}
