package library

import (
	"context"
	"database/sql"
	"fmt"
)

// AnnotateClip attaches a play result to an already-cataloged clip and
// applies the statistics increments for every scope the clip belongs to.
// Clips that already carry a result are refused: counters only ever
// increment, so changing an outcome is a recompute, not an update.
func (s *Store) AnnotateClip(ctx context.Context, clipID int64, result PlayResult, speedMPH float64) (*VideoClip, error) {
	if result == "" {
		return nil, fmt.Errorf("play result is required")
	}
	if !result.Valid() {
		return nil, fmt.Errorf("unknown play result %q", result)
	}

	clip, err := s.GetClip(ctx, clipID)
	if err != nil {
		return nil, err
	}
	if clip.PlayResultID != 0 {
		return nil, fmt.Errorf("clip %d already has play result %q; edit the play and run stats recompute instead", clipID, clip.Result)
	}

	highlight := clip.Highlight || result.IsHighlight()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO play_results (athlete_id, game_id, practice_id, season_id, result, speed_mph, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			clip.AthleteID,
			nullableID(clip.GameID),
			nullableID(clip.PracticeID),
			nullableID(clip.SeasonID),
			string(result),
			speedMPH,
			timestampNow(),
		)
		if err != nil {
			return fmt.Errorf("insert play result: %w", err)
		}
		playResultID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE video_clips SET play_result_id = ?, highlight = ? WHERE id = ?`,
			playResultID,
			boolToInt(highlight),
			clipID,
		); err != nil {
			return fmt.Errorf("link play result: %w", err)
		}

		scopes := []StatLine{{AthleteID: clip.AthleteID}}
		if clip.GameID != 0 {
			scopes = append(scopes, StatLine{AthleteID: clip.AthleteID, GameID: clip.GameID})
		}
		if clip.PracticeID != 0 {
			scopes = append(scopes, StatLine{AthleteID: clip.AthleteID, PracticeID: clip.PracticeID})
		}
		if clip.SeasonID != 0 {
			scopes = append(scopes, StatLine{AthleteID: clip.AthleteID, SeasonID: clip.SeasonID})
		}
		for _, scope := range scopes {
			if err := upsertStats(ctx, tx, scope, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetClip(ctx, clipID)
}
