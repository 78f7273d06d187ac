package notifications

import (
	"fmt"
	"strings"
	"time"
)

// Event identifies a workflow milestone that components publish. Every
// publisher uses the same enumerated names so sinks can apply per-event
// policy without parsing message text.
type Event string

const (
	// EventClipDetected fires when the watch-folder monitor queues a new file.
	EventClipDetected Event = "clip-detected"
	// EventCaptureStarted fires when a camera recording session begins.
	EventCaptureStarted Event = "capture-started"
	// EventCaptureCompleted fires when a camera recording session finalizes.
	EventCaptureCompleted Event = "capture-completed"
	// EventClipCataloged fires when a clip lands in the library. The payload
	// carries the play result when the clip was annotated before cataloging.
	EventClipCataloged Event = "clip-cataloged"
	// EventPlayRecorded fires when an operator annotates a clip after the fact.
	EventPlayRecorded Event = "play-recorded"
	// EventReviewRequired fires when an item parks in review and needs a human.
	EventReviewRequired Event = "review-required"
	// EventQueueStarted fires when the workflow manager begins draining work.
	EventQueueStarted Event = "queue-started"
	// EventQueueCompleted fires when the queue drains or processing stops.
	EventQueueCompleted Event = "queue-completed"
	// EventStorageLow fires when free space dips under the configured floor.
	EventStorageLow Event = "storage-low"
	// EventError fires when a stage fails after its retries are exhausted.
	EventError Event = "error"
	// EventTest exercises the delivery path end to end.
	EventTest Event = "test"
)

// Payload carries event-specific fields used to render outbound messages.
// Keys are documented on the event constants; missing keys render as empty.
type Payload map[string]any

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (p Payload) integer(key string) int {
	if p == nil {
		return 0
	}
	switch value := p[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case uint64:
		return int(value)
	case float64:
		return int(value)
	default:
		return 0
	}
}

func (p Payload) interval(key string) time.Duration {
	if p == nil {
		return 0
	}
	switch value := p[key].(type) {
	case time.Duration:
		return value
	case int:
		return time.Duration(value) * time.Second
	case int64:
		return time.Duration(value) * time.Second
	case float64:
		return time.Duration(value * float64(time.Second))
	default:
		return 0
	}
}
