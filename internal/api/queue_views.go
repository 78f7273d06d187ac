package api

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SortQueueItemsNewestFirst orders queue items by CreatedAt descending,
// breaking ties by ID descending.
func SortQueueItemsNewestFirst(items []QueueItem) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]QueueItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		ti := parseQueueTime(sorted[i].CreatedAt)
		tj := parseQueueTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

func parseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

// ParseQueueTime exposes queue timestamp parsing for consumers that need
// display formatting.
func ParseQueueTime(value string) time.Time {
	return parseQueueTime(value)
}

// PlaySummary renders the annotation in one table cell: play result, exit
// speed when measured, and a star for highlights. Empty when unannotated.
func PlaySummary(item QueueItem) string {
	parts := make([]string, 0, 3)
	if result := strings.TrimSpace(item.PlayResult); result != "" {
		parts = append(parts, result)
	}
	if item.SpeedMPH > 0 {
		parts = append(parts, fmt.Sprintf("%.1f mph", item.SpeedMPH))
	}
	if len(parts) == 0 {
		return ""
	}
	if item.Highlight {
		parts = append(parts, "★")
	}
	return strings.Join(parts, " · ")
}

// TrimSummary renders the requested trim window, or empty when the clip is
// exported whole.
func TrimSummary(item QueueItem) string {
	if item.TrimStartSec <= 0 && item.TrimEndSec <= 0 {
		return ""
	}
	start := time.Duration(item.TrimStartSec * float64(time.Second)).Truncate(100 * time.Millisecond)
	if item.TrimEndSec <= 0 {
		return fmt.Sprintf("%s →", start)
	}
	end := time.Duration(item.TrimEndSec * float64(time.Second)).Truncate(100 * time.Millisecond)
	return fmt.Sprintf("%s → %s", start, end)
}
