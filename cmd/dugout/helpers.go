package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"dugout/internal/ipc"
	"dugout/internal/library"
)

// resolveAthleteRef resolves an athlete flag value to an ID. Numeric input is
// treated as an ID; anything else is matched against roster names.
func resolveAthleteRef(cmdCtx context.Context, ctx *commandContext, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, nil
	}
	if id, ok, err := parseAthleteID(ref); ok || err != nil {
		return id, err
	}

	var athleteID int64
	err := ctx.withLibrary(func(lib *library.Store) error {
		athlete, err := lib.FindAthleteByName(cmdCtx, ref)
		if err != nil {
			return err
		}
		athleteID = athlete.ID
		return nil
	})
	return athleteID, err
}

// resolveAthleteInStore is resolveAthleteRef for callers that already hold a
// library handle.
func resolveAthleteInStore(cmdCtx context.Context, lib *library.Store, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, nil
	}
	if id, ok, err := parseAthleteID(ref); ok || err != nil {
		return id, err
	}
	athlete, err := lib.FindAthleteByName(cmdCtx, ref)
	if err != nil {
		return 0, err
	}
	return athlete.ID, nil
}

func parseAthleteID(ref string) (int64, bool, error) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	if id <= 0 {
		return 0, true, fmt.Errorf("invalid athlete id %q", ref)
	}
	return id, true, nil
}

// checkStorageHeadroom refuses the action when staging space is below the
// configured floor, unless the caller forces it.
func checkStorageHeadroom(client *ipc.Client, force bool, action string) error {
	if force {
		return nil
	}
	resp, err := client.StorageStatus()
	if err != nil {
		return err
	}
	storage := resp.Storage
	if !storage.Low {
		return nil
	}
	detail := strings.TrimSpace(storage.Detail)
	if detail == "" {
		detail = fmt.Sprintf("%s free on %s", humanize.IBytes(storage.FreeBytes), storage.Path)
	}
	return fmt.Errorf("staging storage is low (%s); pass --force to %s anyway", detail, action)
}

func parsePlayResultFlag(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	result, err := library.ParsePlayResult(value)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

func playResultFlagHelp() string {
	results := library.AllPlayResults()
	names := make([]string, 0, len(results))
	for _, result := range results {
		names = append(names, string(result))
	}
	return "play result (" + strings.Join(names, ", ") + ")"
}

var scheduleTimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseScheduleTime accepts a local date or date-plus-time flag value.
func parseScheduleTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range scheduleTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected 2006-01-02 or 2006-01-02 15:04)", value)
}

func formatScheduleTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04")
}

func formatScheduleDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02")
}
