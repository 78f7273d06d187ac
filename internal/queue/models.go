package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending      Status = "pending"
	StatusValidating   Status = "validating"
	StatusValidated    Status = "validated"
	StatusExporting    Status = "exporting"
	StatusExported     Status = "exported"
	StatusCataloging   Status = "cataloging"
	StatusCataloged    Status = "cataloged"
	StatusThumbnailing Status = "thumbnailing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

// UserStopReason is the review reason set when a user explicitly stops an item.
const UserStopReason = "Stop requested by user"

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

// AnnotationPendingReason marks items parked until a play result is supplied.
const AnnotationPendingReason = "awaiting play result"

// AthleteMissingReason marks watch-folder imports that need an athlete assigned.
const AthleteMissingReason = "athlete assignment required"

// Origin identifies how a clip entered the queue.
type Origin string

const (
	OriginCamera Origin = "camera"
	OriginImport Origin = "import"
	OriginWatch  Origin = "watch"
)

var allStatuses = []Status{
	StatusPending,
	StatusValidating,
	StatusValidated,
	StatusExporting,
	StatusExported,
	StatusCataloging,
	StatusCataloged,
	StatusThumbnailing,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusValidating:   {},
	StatusExporting:    {},
	StatusCataloging:   {},
	StatusThumbnailing: {},
}

type statusTransition struct {
	from Status
	to   Status
}

var stageRollbackTransitions = []statusTransition{
	{from: StatusValidating, to: StatusPending},
	{from: StatusExporting, to: StatusValidated},
	{from: StatusCataloging, to: StatusExported},
	{from: StatusThumbnailing, to: StatusCataloged},
}

func processingRollbackTransitions() []statusTransition {
	return stageRollbackTransitions
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID                  int64
	SourcePath          string
	ClipTitle           string
	Origin              Origin
	Status              Status
	AthleteID           int64
	GameID              int64
	PracticeID          int64
	TrimStartSec        float64
	TrimEndSec          float64
	HoldForAnnotation   bool
	PlayResult          string
	SpeedMPH            float64
	Highlight           bool
	MediaInfoJSON       string
	ExportedFile        string
	FinalFile           string
	ThumbnailFile       string
	ClipID              int64
	ErrorMessage        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ProgressStage       string
	ProgressPercent     float64
	ProgressMessage     string
	ProgressBytesCopied int64 // Only set during cataloging
	ProgressTotalBytes  int64 // Only set during cataloging
	LastHeartbeat       *time.Time
	NeedsReview         bool
	ReviewReason        string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsUserStopReason reports whether a review reason represents a user-initiated stop.
func IsUserStopReason(reason string) bool {
	return strings.EqualFold(strings.TrimSpace(reason), UserStopReason)
}

// IsAnnotationReviewReason reports whether a review reason parks the item for
// annotation input. Only these parks auto-resolve when an annotation supplies
// what was missing; validation failures and user stops stay parked.
func IsAnnotationReviewReason(reason string) bool {
	trimmed := strings.TrimSpace(reason)
	return strings.EqualFold(trimmed, AnnotationPendingReason) || strings.EqualFold(trimmed, AthleteMissingReason)
}

// HasTrim reports whether the item carries an explicit trim range.
func (i Item) HasTrim() bool {
	if i.TrimEndSec <= 0 && i.TrimStartSec <= 0 {
		return false
	}
	return i.TrimEndSec > i.TrimStartSec
}

// HasPlayResult reports whether an annotation has been recorded for the item.
func (i Item) HasPlayResult() bool {
	return strings.TrimSpace(i.PlayResult) != ""
}

// InitProgress resets progress fields for a new stage.
// If ProgressStage is currently empty, it is set to the provided stage value;
// otherwise the existing stage is preserved (to support resume scenarios).
// ProgressMessage is set to message, ProgressPercent is reset to 0,
// and ErrorMessage is cleared.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
// Use this instead of setting ProgressStage, ProgressPercent, and ProgressMessage individually.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
// Convenience method for stage completion.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
// Clears heartbeat and sets progress fields appropriately.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// SetReview parks the item for user attention with the given reason.
func (i *Item) SetReview(reason string) {
	i.Status = StatusReview
	i.NeedsReview = true
	i.ReviewReason = reason
	i.LastHeartbeat = nil
}

// IsInWorkflow returns true when an item is actively progressing (or queued to
// progress) through stages and should not be re-enqueued simply because its
// source file was observed again.
func (i Item) IsInWorkflow() bool {
	if i.IsProcessing() {
		return true
	}
	switch i.Status {
	case StatusPending,
		StatusValidated,
		StatusExported,
		StatusCataloged,
		StatusReview,
		StatusCompleted:
		return true
	default:
		return false
	}
}

// StageKey returns the normalized stage identifier used in API/CLI presentation.
func (s Status) StageKey() string {
	switch s {
	case "":
		return ""
	case StatusPending:
		return "planned"
	case StatusCompleted:
		return "final"
	case StatusValidating,
		StatusValidated,
		StatusExporting,
		StatusExported,
		StatusCataloging,
		StatusCataloged,
		StatusThumbnailing,
		StatusFailed,
		StatusReview:
		return string(s)
	default:
		return ""
	}
}

// ProcessingLane partitions workflow into user-facing foreground stages and background work.
type ProcessingLane string

const (
	LaneForeground ProcessingLane = "foreground"
	LaneBackground ProcessingLane = "background"
)

// LaneForItem maps a queue item to its processing lane for observability purposes.
func LaneForItem(item *Item) ProcessingLane {
	if item == nil {
		return LaneForeground
	}
	switch item.Status {
	case StatusPending, StatusValidating, StatusValidated, StatusExporting, StatusExported, StatusCataloging, StatusReview:
		return LaneForeground
	case StatusCataloged, StatusThumbnailing, StatusCompleted:
		return LaneBackground
	case StatusFailed:
		if item.ThumbnailFile != "" || item.ClipID != 0 {
			return LaneBackground
		}
		return LaneForeground
	default:
		return LaneForeground
	}
}
