package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"dugout/internal/api"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

var queueListHeaders = []string{"ID", "Title", "Status", "Origin", "Play", "Created"}

var queueListAligns = []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}

func buildQueueListRows(items []api.QueueItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := api.SortQueueItemsNewestFirst(items)

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			displayTitle(item),
			formatStatusLabel(item.Status),
			item.Origin,
			api.PlaySummary(item),
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

func displayTitle(item api.QueueItem) string {
	title := strings.TrimSpace(item.ClipTitle)
	if title != "" {
		return title
	}
	if source := strings.TrimSpace(item.SourcePath); source != "" {
		return filepath.Base(source)
	}
	return "Untitled"
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t := api.ParseQueueTime(value); !t.IsZero() {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func describeLines(item api.QueueItem) []string {
	lines := []string{
		fmt.Sprintf("Item #%d: %s", item.ID, displayTitle(item)),
		fmt.Sprintf("  Status:     %s", formatStatusLabel(item.Status)),
		fmt.Sprintf("  Origin:     %s", item.Origin),
		fmt.Sprintf("  Source:     %s", item.SourcePath),
	}
	if item.AthleteID != 0 {
		lines = append(lines, fmt.Sprintf("  Athlete:    #%d", item.AthleteID))
	}
	if item.GameID != 0 {
		lines = append(lines, fmt.Sprintf("  Game:       #%d", item.GameID))
	}
	if item.PracticeID != 0 {
		lines = append(lines, fmt.Sprintf("  Practice:   #%d", item.PracticeID))
	}
	if trim := api.TrimSummary(item); trim != "" {
		lines = append(lines, fmt.Sprintf("  Trim:       %s", trim))
	}
	if play := api.PlaySummary(item); play != "" {
		lines = append(lines, fmt.Sprintf("  Play:       %s", play))
	}
	if item.HoldForAnnotation {
		lines = append(lines, "  Hold:       waiting for annotation")
	}
	if stage := strings.TrimSpace(item.Progress.Stage); stage != "" {
		progress := stage
		if item.Progress.Percent > 0 {
			progress = fmt.Sprintf("%s (%.0f%%)", stage, item.Progress.Percent)
		}
		if msg := strings.TrimSpace(item.Progress.Message); msg != "" {
			progress += " - " + msg
		}
		lines = append(lines, fmt.Sprintf("  Progress:   %s", progress))
	}
	if item.ExportedFile != "" {
		lines = append(lines, fmt.Sprintf("  Exported:   %s", item.ExportedFile))
	}
	if item.FinalFile != "" {
		lines = append(lines, fmt.Sprintf("  Final:      %s", item.FinalFile))
	}
	if item.ThumbnailFile != "" {
		lines = append(lines, fmt.Sprintf("  Thumbnail:  %s", item.ThumbnailFile))
	}
	if item.ClipID != 0 {
		lines = append(lines, fmt.Sprintf("  Clip:       #%d", item.ClipID))
	}
	if item.NeedsReview {
		reason := strings.TrimSpace(item.ReviewReason)
		if reason == "" {
			reason = "unspecified"
		}
		lines = append(lines, fmt.Sprintf("  Review:     %s", reason))
	}
	if item.ErrorMessage != "" {
		lines = append(lines, fmt.Sprintf("  Error:      %s", item.ErrorMessage))
	}
	lines = append(lines, fmt.Sprintf("  Created:    %s", formatDisplayTime(item.CreatedAt)))
	lines = append(lines, fmt.Sprintf("  Updated:    %s", formatDisplayTime(item.UpdatedAt)))
	return lines
}
