package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID                int64         `json:"id"`
	ClipTitle         string        `json:"clipTitle"`
	SourcePath        string        `json:"sourcePath"`
	Origin            string        `json:"origin"`
	Status            string        `json:"status"`
	ProcessingLane    string        `json:"processingLane"`
	Progress          QueueProgress `json:"progress"`
	ErrorMessage      string        `json:"errorMessage"`
	AthleteID         int64         `json:"athleteId,omitempty"`
	GameID            int64         `json:"gameId,omitempty"`
	PracticeID        int64         `json:"practiceId,omitempty"`
	TrimStartSec      float64       `json:"trimStartSec,omitempty"`
	TrimEndSec        float64       `json:"trimEndSec,omitempty"`
	HoldForAnnotation bool          `json:"holdForAnnotation,omitempty"`
	PlayResult        string        `json:"playResult,omitempty"`
	SpeedMPH          float64       `json:"speedMph,omitempty"`
	Highlight         bool          `json:"highlight,omitempty"`
	ExportedFile      string        `json:"exportedFile,omitempty"`
	FinalFile         string        `json:"finalFile,omitempty"`
	ThumbnailFile     string        `json:"thumbnailFile,omitempty"`
	ClipID            int64         `json:"clipId,omitempty"`
	NeedsReview       bool          `json:"needsReview"`
	ReviewReason      string        `json:"reviewReason,omitempty"`
	CreatedAt         string        `json:"createdAt,omitempty"`
	UpdatedAt         string        `json:"updatedAt,omitempty"`
}

// QueueProgress captures stage progress information for a queue entry.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *QueueItem     `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CapabilityStatus carries one permission-gate decision for display.
type CapabilityStatus struct {
	Name     string `json:"name"`
	Decision string `json:"decision"`
	Detail   string `json:"detail,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Optional bool   `json:"optional"`
}

// CaptureStatus reports the active recording session, if any.
type CaptureStatus struct {
	Active         bool    `json:"active"`
	SessionID      string  `json:"sessionId,omitempty"`
	ClipTitle      string  `json:"clipTitle,omitempty"`
	OutputPath     string  `json:"outputPath,omitempty"`
	Preset         string  `json:"preset,omitempty"`
	StartedAt      string  `json:"startedAt,omitempty"`
	ElapsedSeconds float64 `json:"elapsedSeconds,omitempty"`
}

// StorageStatus reports staging filesystem headroom.
type StorageStatus struct {
	Path       string `json:"path"`
	FreeBytes  uint64 `json:"freeBytes"`
	TotalBytes uint64 `json:"totalBytes"`
	Low        bool   `json:"low"`
	Detail     string `json:"detail"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	QueueDBPath   string             `json:"queueDbPath"`
	LockFilePath  string             `json:"lockFilePath"`
	CameraPresent bool               `json:"cameraPresent"`
	Capture       *CaptureStatus     `json:"capture,omitempty"`
	Workflow      WorkflowStatus     `json:"workflow"`
	Capabilities  []CapabilityStatus `json:"capabilities"`
	Dependencies  []DependencyStatus `json:"dependencies"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}
