package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveClipRequest carries everything needed to catalog one clip. GameID and
// PracticeID are mutually exclusive; Result may be empty for an unannotated
// clip.
type SaveClipRequest struct {
	AthleteID       int64
	GameID          int64
	PracticeID      int64
	Title           string
	FilePath        string
	ThumbnailPath   string
	Highlight       bool
	DurationSeconds float64
	SizeBytes       int64
	Result          PlayResult
	SpeedMPH        float64
}

const clipColumns = `c.id, c.athlete_id, c.game_id, c.practice_id, c.season_id, c.play_result_id,
	c.title, c.file_name, c.file_path, c.thumbnail_path, c.highlight,
	c.duration_seconds, c.size_bytes, p.result, p.speed_mph, c.created_at`

const clipFromClause = `FROM video_clips c LEFT JOIN play_results p ON p.id = c.play_result_id`

func scanClip(scanner interface{ Scan(dest ...any) error }) (*VideoClip, error) {
	var (
		id            int64
		athleteID     int64
		gameID        sql.NullInt64
		practiceID    sql.NullInt64
		seasonID      sql.NullInt64
		playResultID  sql.NullInt64
		title         string
		fileName      string
		filePath      string
		thumbnailPath sql.NullString
		highlight     int64
		duration      float64
		sizeBytes     int64
		result        sql.NullString
		speedMPH      sql.NullFloat64
		createdRaw    sql.NullString
	)
	if err := scanner.Scan(
		&id, &athleteID, &gameID, &practiceID, &seasonID, &playResultID,
		&title, &fileName, &filePath, &thumbnailPath, &highlight,
		&duration, &sizeBytes, &result, &speedMPH, &createdRaw,
	); err != nil {
		return nil, err
	}
	clip := &VideoClip{
		ID:              id,
		AthleteID:       athleteID,
		GameID:          gameID.Int64,
		PracticeID:      practiceID.Int64,
		SeasonID:        seasonID.Int64,
		PlayResultID:    playResultID.Int64,
		Title:           title,
		FileName:        fileName,
		FilePath:        filePath,
		ThumbnailPath:   thumbnailPath.String,
		Highlight:       highlight != 0,
		DurationSeconds: duration,
		SizeBytes:       sizeBytes,
		Result:          PlayResult(result.String),
		SpeedMPH:        speedMPH.Float64,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		clip.CreatedAt = created
	}
	return clip, nil
}

// SaveClip catalogs a clip file that already sits at its final library
// location. The clip row, the optional play result, the season link, and the
// statistics updates all land in one transaction: either the clip is fully
// cataloged or nothing changed. The file itself must exist before anything is
// written.
func (s *Store) SaveClip(ctx context.Context, req SaveClipRequest) (*VideoClip, error) {
	if req.GameID != 0 && req.PracticeID != 0 {
		return nil, errors.New("clip cannot link both a game and a practice")
	}
	if req.FilePath == "" {
		return nil, errors.New("clip file path is required")
	}
	if req.Result != "" && !req.Result.Valid() {
		return nil, fmt.Errorf("unknown play result %q", req.Result)
	}
	if _, err := s.GetAthlete(ctx, req.AthleteID); err != nil {
		return nil, err
	}
	if req.GameID != 0 {
		game, err := s.GetGame(ctx, req.GameID)
		if err != nil {
			return nil, err
		}
		if game.AthleteID != req.AthleteID {
			return nil, fmt.Errorf("game %d belongs to a different athlete", req.GameID)
		}
	}
	if req.PracticeID != 0 {
		practice, err := s.GetPractice(ctx, req.PracticeID)
		if err != nil {
			return nil, err
		}
		if practice.AthleteID != req.AthleteID {
			return nil, fmt.Errorf("practice %d belongs to a different athlete", req.PracticeID)
		}
	}

	info, err := os.Stat(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("clip file missing: %w", err)
	}
	if req.SizeBytes == 0 {
		req.SizeBytes = info.Size()
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled Clip"
	}

	season, err := s.ActiveSeason(ctx, req.AthleteID)
	if err != nil {
		return nil, err
	}
	var seasonID int64
	if season != nil {
		seasonID = season.ID
	}

	highlight := req.Highlight || (req.Result != "" && req.Result.IsHighlight())

	var clipID int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var playResultID int64
		if req.Result != "" {
			res, err := tx.ExecContext(
				ctx,
				`INSERT INTO play_results (athlete_id, game_id, practice_id, season_id, result, speed_mph, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				req.AthleteID,
				nullableID(req.GameID),
				nullableID(req.PracticeID),
				nullableID(seasonID),
				string(req.Result),
				req.SpeedMPH,
				timestampNow(),
			)
			if err != nil {
				return fmt.Errorf("insert play result: %w", err)
			}
			playResultID, err = res.LastInsertId()
			if err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO video_clips (athlete_id, game_id, practice_id, season_id, play_result_id,
			   title, file_name, file_path, thumbnail_path, highlight, duration_seconds, size_bytes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.AthleteID,
			nullableID(req.GameID),
			nullableID(req.PracticeID),
			nullableID(seasonID),
			nullableID(playResultID),
			title,
			filepath.Base(req.FilePath),
			req.FilePath,
			nullableString(req.ThumbnailPath),
			boolToInt(highlight),
			req.DurationSeconds,
			req.SizeBytes,
			timestampNow(),
		)
		if err != nil {
			return fmt.Errorf("insert clip: %w", err)
		}
		clipID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		if req.Result != "" {
			scopes := []StatLine{{AthleteID: req.AthleteID}}
			if req.GameID != 0 {
				scopes = append(scopes, StatLine{AthleteID: req.AthleteID, GameID: req.GameID})
			}
			if req.PracticeID != 0 {
				scopes = append(scopes, StatLine{AthleteID: req.AthleteID, PracticeID: req.PracticeID})
			}
			if seasonID != 0 {
				scopes = append(scopes, StatLine{AthleteID: req.AthleteID, SeasonID: seasonID})
			}
			for _, scope := range scopes {
				if err := upsertStats(ctx, tx, scope, req.Result); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetClip(ctx, clipID)
}

// AttachThumbnail records a generated thumbnail for the clip. Thumbnails are
// produced after cataloging, so this runs outside the save transaction.
func (s *Store) AttachThumbnail(ctx context.Context, clipID int64, thumbnailPath string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE video_clips SET thumbnail_path = ? WHERE id = ?`,
		nullableString(thumbnailPath),
		clipID,
	)
	if err != nil {
		return fmt.Errorf("attach thumbnail: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("clip %d: %w", clipID, ErrNotFound)
	}
	return nil
}

// GetClip fetches a clip by identifier.
func (s *Store) GetClip(ctx context.Context, id int64) (*VideoClip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clipColumns+` `+clipFromClause+` WHERE c.id = ?`, id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("clip %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get clip: %w", err)
	}
	return clip, nil
}

// ClipFilter narrows ListClips. Zero values mean "any".
type ClipFilter struct {
	AthleteID     int64
	GameID        int64
	PracticeID    int64
	SeasonID      int64
	Result        PlayResult
	HighlightOnly bool
}

// ListClips returns clips matching the filter, newest first.
func (s *Store) ListClips(ctx context.Context, filter ClipFilter) ([]*VideoClip, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.AthleteID != 0 {
		conditions = append(conditions, "c.athlete_id = ?")
		args = append(args, filter.AthleteID)
	}
	if filter.GameID != 0 {
		conditions = append(conditions, "c.game_id = ?")
		args = append(args, filter.GameID)
	}
	if filter.PracticeID != 0 {
		conditions = append(conditions, "c.practice_id = ?")
		args = append(args, filter.PracticeID)
	}
	if filter.SeasonID != 0 {
		conditions = append(conditions, "c.season_id = ?")
		args = append(args, filter.SeasonID)
	}
	if filter.Result != "" {
		conditions = append(conditions, "p.result = ?")
		args = append(args, string(filter.Result))
	}
	if filter.HighlightOnly {
		conditions = append(conditions, "c.highlight = 1")
	}

	query := `SELECT ` + clipColumns + ` ` + clipFromClause
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var clips []*VideoClip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

// SetClipHighlight toggles the highlight flag on a clip.
func (s *Store) SetClipHighlight(ctx context.Context, clipID int64, highlight bool) error {
	res, err := s.execWithRetry(ctx, `UPDATE video_clips SET highlight = ? WHERE id = ?`, boolToInt(highlight), clipID)
	if err != nil {
		return fmt.Errorf("set highlight: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("clip %d: %w", clipID, ErrNotFound)
	}
	return nil
}

// DeleteClip removes the clip's media file, its thumbnail, and its database
// row. The linked play result and all statistics stay: stats reflect what
// happened on the field, not which videos are still on disk.
func (s *Store) DeleteClip(ctx context.Context, clipID int64) error {
	clip, err := s.GetClip(ctx, clipID)
	if err != nil {
		return err
	}
	removeClipFiles(clip)

	if _, err := s.execWithRetry(ctx, `DELETE FROM video_clips WHERE id = ?`, clipID); err != nil {
		return fmt.Errorf("delete clip: %w", err)
	}
	return nil
}

// removeClipFiles best-effort deletes a clip's media file and thumbnail.
// Row removal proceeds either way; a stale file is better than a ghost row.
func removeClipFiles(clip *VideoClip) {
	if clip.FilePath != "" {
		_ = os.Remove(clip.FilePath)
	}
	if clip.ThumbnailPath != "" {
		_ = os.Remove(clip.ThumbnailPath)
	}
}
