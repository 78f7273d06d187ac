package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const statCounterColumns = `singles, doubles, triples, home_runs, walks, strikeouts,
	ground_outs, fly_outs, hit_by_pitch, balls, strikes, wild_pitches,
	hits, at_bats, pitches`

// scopeClause matches one statistics row by its exact scope. IFNULL keeps the
// comparison stable for the NULL scope columns.
const scopeClause = `athlete_id = ? AND IFNULL(game_id, 0) = ? AND IFNULL(practice_id, 0) = ? AND IFNULL(season_id, 0) = ?`

func scanStatLine(scanner interface{ Scan(dest ...any) error }, line *StatLine) error {
	return scanner.Scan(
		&line.Singles, &line.Doubles, &line.Triples, &line.HomeRuns,
		&line.Walks, &line.Strikeouts, &line.GroundOuts, &line.FlyOuts,
		&line.HitByPitch, &line.Balls, &line.Strikes, &line.WildPitches,
		&line.Hits, &line.AtBats, &line.Pitches,
	)
}

func (s *Store) statsForScope(ctx context.Context, scope StatLine) (*StatLine, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+statCounterColumns+` FROM statistics WHERE `+scopeClause,
		scope.AthleteID, scope.GameID, scope.PracticeID, scope.SeasonID,
	)
	line := scope
	err := scanStatLine(row, &line)
	if errors.Is(err, sql.ErrNoRows) {
		// No plays recorded yet: a zero line, not an error.
		return &scope, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}
	return &line, nil
}

// StatsForAthlete returns the athlete's career totals.
func (s *Store) StatsForAthlete(ctx context.Context, athleteID int64) (*StatLine, error) {
	return s.statsForScope(ctx, StatLine{AthleteID: athleteID})
}

// StatsForGame returns the athlete's totals for one game.
func (s *Store) StatsForGame(ctx context.Context, gameID int64) (*StatLine, error) {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return s.statsForScope(ctx, StatLine{AthleteID: game.AthleteID, GameID: gameID})
}

// StatsForPractice returns the athlete's totals for one practice.
func (s *Store) StatsForPractice(ctx context.Context, practiceID int64) (*StatLine, error) {
	practice, err := s.GetPractice(ctx, practiceID)
	if err != nil {
		return nil, err
	}
	return s.statsForScope(ctx, StatLine{AthleteID: practice.AthleteID, PracticeID: practiceID})
}

// StatsForSeason returns the athlete's totals for one season.
func (s *Store) StatsForSeason(ctx context.Context, seasonID int64) (*StatLine, error) {
	season, err := s.GetSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	return s.statsForScope(ctx, StatLine{AthleteID: season.AthleteID, SeasonID: seasonID})
}

// upsertStats applies one play result to the statistics row for the given
// scope, creating the row on first use. The read-modify-write runs inside the
// caller's transaction, which is what makes it safe; ON CONFLICT is no help
// here because the scope uniqueness lives in an expression index.
func upsertStats(ctx context.Context, tx *sql.Tx, scope StatLine, result PlayResult) error {
	row := tx.QueryRowContext(
		ctx,
		`SELECT id, `+statCounterColumns+` FROM statistics WHERE `+scopeClause,
		scope.AthleteID, scope.GameID, scope.PracticeID, scope.SeasonID,
	)

	var rowID int64
	line := scope
	err := row.Scan(
		&rowID,
		&line.Singles, &line.Doubles, &line.Triples, &line.HomeRuns,
		&line.Walks, &line.Strikeouts, &line.GroundOuts, &line.FlyOuts,
		&line.HitByPitch, &line.Balls, &line.Strikes, &line.WildPitches,
		&line.Hits, &line.AtBats, &line.Pitches,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		line = scope
		line.Apply(result)
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO statistics (athlete_id, game_id, practice_id, season_id, `+statCounterColumns+`, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			scope.AthleteID,
			nullableID(scope.GameID),
			nullableID(scope.PracticeID),
			nullableID(scope.SeasonID),
			line.Singles, line.Doubles, line.Triples, line.HomeRuns,
			line.Walks, line.Strikeouts, line.GroundOuts, line.FlyOuts,
			line.HitByPitch, line.Balls, line.Strikes, line.WildPitches,
			line.Hits, line.AtBats, line.Pitches,
			timestampNow(),
		)
		if err != nil {
			return fmt.Errorf("insert statistics: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("load statistics for update: %w", err)
	}

	line.Apply(result)
	_, err = tx.ExecContext(
		ctx,
		`UPDATE statistics SET
		   singles = ?, doubles = ?, triples = ?, home_runs = ?,
		   walks = ?, strikeouts = ?, ground_outs = ?, fly_outs = ?,
		   hit_by_pitch = ?, balls = ?, strikes = ?, wild_pitches = ?,
		   hits = ?, at_bats = ?, pitches = ?, updated_at = ?
		 WHERE id = ?`,
		line.Singles, line.Doubles, line.Triples, line.HomeRuns,
		line.Walks, line.Strikeouts, line.GroundOuts, line.FlyOuts,
		line.HitByPitch, line.Balls, line.Strikes, line.WildPitches,
		line.Hits, line.AtBats, line.Pitches,
		timestampNow(),
		rowID,
	)
	if err != nil {
		return fmt.Errorf("update statistics: %w", err)
	}
	return nil
}

// RecomputeStats rebuilds every statistics row from the play result history.
// Play results outlive clips, so this restores exact totals after manual
// database surgery or a suspected drift. Deleting clips never touches stats;
// this is the only path that rewrites them.
func (s *Store) RecomputeStats(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM statistics`); err != nil {
			return fmt.Errorf("clear statistics: %w", err)
		}

		rows, err := tx.QueryContext(
			ctx,
			`SELECT athlete_id, IFNULL(game_id, 0), IFNULL(practice_id, 0), IFNULL(season_id, 0), result
			 FROM play_results ORDER BY id`,
		)
		if err != nil {
			return fmt.Errorf("load play results: %w", err)
		}
		defer rows.Close()

		type playEvent struct {
			scope  StatLine
			result PlayResult
		}
		var events []playEvent
		for rows.Next() {
			var (
				event     playEvent
				rawResult string
			)
			if err := rows.Scan(
				&event.scope.AthleteID,
				&event.scope.GameID,
				&event.scope.PracticeID,
				&event.scope.SeasonID,
				&rawResult,
			); err != nil {
				return err
			}
			event.result = PlayResult(rawResult)
			events = append(events, event)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, event := range events {
			result := event.result
			if !result.Valid() {
				continue
			}
			scopes := []StatLine{{AthleteID: event.scope.AthleteID}}
			if event.scope.GameID != 0 {
				scopes = append(scopes, StatLine{AthleteID: event.scope.AthleteID, GameID: event.scope.GameID})
			}
			if event.scope.PracticeID != 0 {
				scopes = append(scopes, StatLine{AthleteID: event.scope.AthleteID, PracticeID: event.scope.PracticeID})
			}
			if event.scope.SeasonID != 0 {
				scopes = append(scopes, StatLine{AthleteID: event.scope.AthleteID, SeasonID: event.scope.SeasonID})
			}
			for _, scope := range scopes {
				if err := upsertStats(ctx, tx, scope, result); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
