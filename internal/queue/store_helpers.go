package queue

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

const itemColumns = "id, source_path, clip_title, origin, status, athlete_id, game_id, practice_id, trim_start_sec, trim_end_sec, hold_for_annotation, play_result, speed_mph, highlight, media_info_json, exported_file, final_file, thumbnail_file, clip_id, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, progress_bytes_copied, progress_total_bytes, last_heartbeat, needs_review, review_reason"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id                int64
		sourcePath        sql.NullString
		clipTitle         sql.NullString
		origin            sql.NullString
		statusStr         string
		athleteID         sql.NullInt64
		gameID            sql.NullInt64
		practiceID        sql.NullInt64
		trimStart         sql.NullFloat64
		trimEnd           sql.NullFloat64
		holdForAnnotation sql.NullInt64
		playResult        sql.NullString
		speedMPH          sql.NullFloat64
		highlight         sql.NullInt64
		mediaInfo         sql.NullString
		exportedFile      sql.NullString
		finalFile         sql.NullString
		thumbnailFile     sql.NullString
		clipID            sql.NullInt64
		errorMessage      sql.NullString
		createdRaw        sql.NullString
		updatedRaw        sql.NullString
		progressStage     sql.NullString
		progressPercent   sql.NullFloat64
		progressMessage   sql.NullString
		progressCopied    sql.NullInt64
		progressTotal     sql.NullInt64
		lastHeartbeatRaw  sql.NullString
		needsReview       sql.NullInt64
		reviewReason      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&clipTitle,
		&origin,
		&statusStr,
		&athleteID,
		&gameID,
		&practiceID,
		&trimStart,
		&trimEnd,
		&holdForAnnotation,
		&playResult,
		&speedMPH,
		&highlight,
		&mediaInfo,
		&exportedFile,
		&finalFile,
		&thumbnailFile,
		&clipID,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&progressCopied,
		&progressTotal,
		&lastHeartbeatRaw,
		&needsReview,
		&reviewReason,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:                  id,
		SourcePath:          sourcePath.String,
		ClipTitle:           clipTitle.String,
		Origin:              Origin(origin.String),
		Status:              Status(statusStr),
		AthleteID:           athleteID.Int64,
		GameID:              gameID.Int64,
		PracticeID:          practiceID.Int64,
		TrimStartSec:        trimStart.Float64,
		TrimEndSec:          trimEnd.Float64,
		PlayResult:          playResult.String,
		SpeedMPH:            speedMPH.Float64,
		MediaInfoJSON:       mediaInfo.String,
		ExportedFile:        exportedFile.String,
		FinalFile:           finalFile.String,
		ThumbnailFile:       thumbnailFile.String,
		ClipID:              clipID.Int64,
		ErrorMessage:        errorMessage.String,
		ProgressStage:       progressStage.String,
		ProgressPercent:     progressPercent.Float64,
		ProgressMessage:     progressMessage.String,
		ProgressBytesCopied: progressCopied.Int64,
		ProgressTotalBytes:  progressTotal.Int64,
	}
	if holdForAnnotation.Valid {
		item.HoldForAnnotation = holdForAnnotation.Int64 != 0
	}
	if highlight.Valid {
		item.Highlight = highlight.Int64 != 0
	}
	if needsReview.Valid {
		item.NeedsReview = needsReview.Int64 != 0
	}
	item.ReviewReason = reviewReason.String

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func inferTitleFromPath(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	if base == "" {
		return "Untitled Clip"
	}
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	cleaned := strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
	if cleaned == "" {
		return "Untitled Clip"
	}
	return cleaned
}
