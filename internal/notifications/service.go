package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"dugout/internal/config"
)

const userAgent = "Dugout/0.1.0"

// Service defines the notification surface exposed to workflow components.
// Publishers fire events unconditionally; the service decides which ones
// leave the process.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		prefs:    cfg.Notifications,
		window:   time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	prefs    config.Notifications
	window   time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := compose(event, payload)
	if !ok {
		return nil
	}
	if event != EventTest && n.duplicate(event, msg.body) {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.Publish(ctx, EventTest, nil)
}

// enabled applies the per-category preferences from config. Pipeline-internal
// events (detected, capture lifecycle) never push; they exist for in-process
// subscribers and the daemon log.
func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventQueueStarted, EventQueueCompleted:
		return n.prefs.Queue
	case EventClipCataloged, EventPlayRecorded:
		return n.prefs.Catalog
	case EventReviewRequired:
		return n.prefs.Review
	case EventStorageLow:
		return n.prefs.Storage
	case EventError:
		return n.prefs.Errors
	case EventTest:
		return true
	default:
		return false
	}
}

// duplicate reports whether the same event+body fired inside the dedup
// window. Repeating alerts (low storage on every sweep, review nags) collapse
// to one push per window.
func (n *ntfyService) duplicate(event Event, body string) bool {
	if n.window <= 0 {
		return false
	}
	key := string(event) + "\n" + body

	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	if last, ok := n.lastSent[key]; ok && now.Sub(last) < n.window {
		return true
	}
	n.lastSent[key] = now
	if len(n.lastSent) > 64 {
		for k, v := range n.lastSent {
			if now.Sub(v) >= n.window {
				delete(n.lastSent, k)
			}
		}
	}
	return false
}

// compose renders an event into an outbound ntfy message. Events without a
// rendering are not pushable and report ok=false.
func compose(event Event, payload Payload) (message, bool) {
	switch event {
	case EventQueueStarted:
		return message{
			title: "Dugout - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %d items", payload.integer("count")),
			tags:  []string{"dugout", "queue", "started"},
		}, true
	case EventQueueCompleted:
		return composeQueueCompleted(payload), true
	case EventClipCataloged:
		return composeClipCataloged(payload), true
	case EventPlayRecorded:
		return composePlayRecorded(payload), true
	case EventReviewRequired:
		body := fmt.Sprintf("⚠️ Review required: %s", payload.text("clipTitle"))
		if reason := payload.text("reason"); reason != "" {
			body = fmt.Sprintf("%s\n%s", body, reason)
		}
		return message{
			title: "Dugout - Review Required",
			body:  body,
			tags:  []string{"dugout", "review", "alert"},
		}, true
	case EventStorageLow:
		return message{
			title: "Dugout - Low Storage",
			body: fmt.Sprintf("💾 Low storage: %d MB free at %s (minimum %d MB)",
				payload.integer("freeMB"), payload.text("path"), payload.integer("minFreeMB")),
			tags:     []string{"dugout", "storage", "alert"},
			priority: "high",
		}, true
	case EventError:
		return composeError(payload), true
	case EventTest:
		return message{
			title:    "Dugout - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"dugout", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func composeQueueCompleted(payload Payload) message {
	processed := payload.integer("processed")
	failed := payload.integer("failed")
	duration := payload.interval("duration").Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	title := "Dugout - Queue Complete"
	body := fmt.Sprintf("Queue processing complete: %d items processed in %s", processed, durationText)
	if failed > 0 {
		title = "Dugout - Queue Complete (with errors)"
		body = fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, durationText)
	}
	return message{
		title: title,
		body:  body,
		tags:  []string{"dugout", "queue", "completed"},
	}
}

func composeClipCataloged(payload Payload) message {
	body := fmt.Sprintf("⚾ Cataloged: %s", payload.text("clipTitle"))
	if athlete := payload.text("athlete"); athlete != "" {
		body = fmt.Sprintf("%s\nAthlete: %s", body, athlete)
	}
	if result := payload.text("playResult"); result != "" {
		body = fmt.Sprintf("%s\nResult: %s", body, result)
	}
	return message{
		title: "Dugout - Clip Cataloged",
		body:  body,
		tags:  []string{"dugout", "catalog", "added"},
	}
}

func composePlayRecorded(payload Payload) message {
	body := fmt.Sprintf("📊 %s: %s", payload.text("athlete"), payload.text("playResult"))
	if speed := payload.text("speedMPH"); speed != "" && speed != "0" {
		body = fmt.Sprintf("%s (%s MPH)", body, speed)
	}
	return message{
		title: "Dugout - Play Recorded",
		body:  body,
		tags:  []string{"dugout", "catalog", "play"},
	}
}

func composeError(payload Payload) message {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if label := payload.text("context"); label != "" {
		builder.WriteString(" with ")
		builder.WriteString(label)
	}
	builder.WriteString(": ")
	if errText := payload.text("error"); errText != "" {
		builder.WriteString(errText)
	} else {
		builder.WriteString("unknown")
	}
	return message{
		title:    "Dugout - Error",
		body:     builder.String(),
		tags:     []string{"dugout", "error", "alert"},
		priority: "high",
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
func (noopService) TestNotification(context.Context) error        { return nil }
