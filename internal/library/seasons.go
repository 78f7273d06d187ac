package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const seasonColumns = "id, athlete_id, name, start_date, active, created_at"

func scanSeason(scanner interface{ Scan(dest ...any) error }) (*Season, error) {
	var (
		id         int64
		athleteID  int64
		name       string
		startRaw   sql.NullString
		active     int64
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&id, &athleteID, &name, &startRaw, &active, &createdRaw); err != nil {
		return nil, err
	}
	season := &Season{
		ID:        id,
		AthleteID: athleteID,
		Name:      name,
		Active:    active != 0,
	}
	if start, err := parseTimeString(startRaw.String); err == nil {
		season.StartDate = start
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		season.CreatedAt = created
	}
	return season, nil
}

// CreateSeason starts a new season for the athlete and makes it the active
// one, retiring whichever season was active before.
func (s *Store) CreateSeason(ctx context.Context, athleteID int64, name string, startDate time.Time) (*Season, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("season name is required")
	}
	if _, err := s.GetAthlete(ctx, athleteID); err != nil {
		return nil, err
	}
	if startDate.IsZero() {
		startDate = time.Now()
	}

	var seasonID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE seasons SET active = 0 WHERE athlete_id = ?`, athleteID); err != nil {
			return fmt.Errorf("retire previous seasons: %w", err)
		}
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO seasons (athlete_id, name, start_date, active, created_at) VALUES (?, ?, ?, 1, ?)`,
			athleteID,
			name,
			startDate.UTC().Format(time.RFC3339Nano),
			timestampNow(),
		)
		if err != nil {
			return fmt.Errorf("insert season: %w", err)
		}
		seasonID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetSeason(ctx, seasonID)
}

// GetSeason fetches a season by identifier.
func (s *Store) GetSeason(ctx context.Context, id int64) (*Season, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE id = ?`, id)
	season, err := scanSeason(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("season %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get season: %w", err)
	}
	return season, nil
}

// ActiveSeason returns the athlete's active season, or nil when none is
// active.
func (s *Store) ActiveSeason(ctx context.Context, athleteID int64) (*Season, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+seasonColumns+` FROM seasons WHERE athlete_id = ? AND active = 1 ORDER BY id DESC LIMIT 1`,
		athleteID,
	)
	season, err := scanSeason(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active season: %w", err)
	}
	return season, nil
}

// SetActiveSeason switches the athlete's active season to the given one.
func (s *Store) SetActiveSeason(ctx context.Context, seasonID int64) error {
	season, err := s.GetSeason(ctx, seasonID)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE seasons SET active = 0 WHERE athlete_id = ?`, season.AthleteID); err != nil {
			return fmt.Errorf("retire previous seasons: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE seasons SET active = 1 WHERE id = ?`, seasonID); err != nil {
			return fmt.Errorf("activate season: %w", err)
		}
		return nil
	})
}

// ListSeasons returns the athlete's seasons, newest first.
func (s *Store) ListSeasons(ctx context.Context, athleteID int64) ([]*Season, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+seasonColumns+` FROM seasons WHERE athlete_id = ? ORDER BY start_date DESC, id DESC`,
		athleteID,
	)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []*Season
	for rows.Next() {
		season, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}
