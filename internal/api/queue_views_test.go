package api

import "testing"

func TestSortQueueItemsNewestFirst(t *testing.T) {
	items := []QueueItem{
		{ID: 1, CreatedAt: "2026-05-02T10:00:00Z"},
		{ID: 3, CreatedAt: "2026-05-02T12:00:00Z"},
		{ID: 2, CreatedAt: "2026-05-02T12:00:00Z"},
	}
	sorted := SortQueueItemsNewestFirst(items)
	if sorted[0].ID != 3 || sorted[1].ID != 2 || sorted[2].ID != 1 {
		t.Fatalf("unexpected order: %v %v %v", sorted[0].ID, sorted[1].ID, sorted[2].ID)
	}
	if items[0].ID != 1 {
		t.Fatal("input slice should not be reordered")
	}
}

func TestPlaySummary(t *testing.T) {
	if got := PlaySummary(QueueItem{PlayResult: "double", SpeedMPH: 64.25, Highlight: true}); got != "double · 64.2 mph · ★" {
		t.Fatalf("PlaySummary = %q", got)
	}
	if got := PlaySummary(QueueItem{SpeedMPH: 58}); got != "58.0 mph" {
		t.Fatalf("PlaySummary speed only = %q", got)
	}
	if got := PlaySummary(QueueItem{Highlight: true}); got != "" {
		t.Fatalf("PlaySummary highlight without result = %q, want empty", got)
	}
}

func TestTrimSummary(t *testing.T) {
	if got := TrimSummary(QueueItem{TrimStartSec: 12.5, TrimEndSec: 31}); got != "12.5s → 31s" {
		t.Fatalf("TrimSummary = %q", got)
	}
	if got := TrimSummary(QueueItem{TrimStartSec: 5}); got != "5s →" {
		t.Fatalf("TrimSummary open ended = %q", got)
	}
	if got := TrimSummary(QueueItem{}); got != "" {
		t.Fatalf("TrimSummary empty = %q, want empty", got)
	}
}
