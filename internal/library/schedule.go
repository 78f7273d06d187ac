package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	gameColumns       = "id, athlete_id, opponent, location, scheduled_at, live, completed, season_id, tournament_id, created_at"
	practiceColumns   = "id, athlete_id, location, scheduled_at, completed, season_id, created_at"
	tournamentColumns = "id, athlete_id, name, location, start_date, end_date, created_at"
)

func scanGame(scanner interface{ Scan(dest ...any) error }) (*Game, error) {
	var (
		id           int64
		athleteID    int64
		opponent     string
		location     sql.NullString
		scheduledRaw sql.NullString
		live         int64
		completed    int64
		seasonID     sql.NullInt64
		tournamentID sql.NullInt64
		createdRaw   sql.NullString
	)
	if err := scanner.Scan(&id, &athleteID, &opponent, &location, &scheduledRaw, &live, &completed, &seasonID, &tournamentID, &createdRaw); err != nil {
		return nil, err
	}
	game := &Game{
		ID:           id,
		AthleteID:    athleteID,
		Opponent:     opponent,
		Location:     location.String,
		Live:         live != 0,
		Completed:    completed != 0,
		SeasonID:     seasonID.Int64,
		TournamentID: tournamentID.Int64,
	}
	if scheduled, err := parseTimeString(scheduledRaw.String); err == nil {
		game.ScheduledAt = scheduled
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		game.CreatedAt = created
	}
	return game, nil
}

func scanPractice(scanner interface{ Scan(dest ...any) error }) (*Practice, error) {
	var (
		id           int64
		athleteID    int64
		location     sql.NullString
		scheduledRaw sql.NullString
		completed    int64
		seasonID     sql.NullInt64
		createdRaw   sql.NullString
	)
	if err := scanner.Scan(&id, &athleteID, &location, &scheduledRaw, &completed, &seasonID, &createdRaw); err != nil {
		return nil, err
	}
	practice := &Practice{
		ID:        id,
		AthleteID: athleteID,
		Location:  location.String,
		Completed: completed != 0,
		SeasonID:  seasonID.Int64,
	}
	if scheduled, err := parseTimeString(scheduledRaw.String); err == nil {
		practice.ScheduledAt = scheduled
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		practice.CreatedAt = created
	}
	return practice, nil
}

func scanTournament(scanner interface{ Scan(dest ...any) error }) (*Tournament, error) {
	var (
		id         int64
		athleteID  int64
		name       string
		location   sql.NullString
		startRaw   sql.NullString
		endRaw     sql.NullString
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&id, &athleteID, &name, &location, &startRaw, &endRaw, &createdRaw); err != nil {
		return nil, err
	}
	tournament := &Tournament{
		ID:        id,
		AthleteID: athleteID,
		Name:      name,
		Location:  location.String,
	}
	if start, err := parseTimeString(startRaw.String); err == nil {
		tournament.StartDate = start
	}
	if end, err := parseTimeString(endRaw.String); err == nil {
		tournament.EndDate = end
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		tournament.CreatedAt = created
	}
	return tournament, nil
}

// GameRequest describes a new scheduled game.
type GameRequest struct {
	AthleteID    int64
	Opponent     string
	Location     string
	ScheduledAt  time.Time
	TournamentID int64
}

// CreateGame schedules a game for the athlete. The athlete's active season,
// when one exists, is linked automatically.
func (s *Store) CreateGame(ctx context.Context, req GameRequest) (*Game, error) {
	req.Opponent = strings.TrimSpace(req.Opponent)
	if req.Opponent == "" {
		return nil, errors.New("opponent is required")
	}
	if _, err := s.GetAthlete(ctx, req.AthleteID); err != nil {
		return nil, err
	}
	if req.TournamentID != 0 {
		if _, err := s.GetTournament(ctx, req.TournamentID); err != nil {
			return nil, err
		}
	}
	season, err := s.ActiveSeason(ctx, req.AthleteID)
	if err != nil {
		return nil, err
	}
	var seasonID int64
	if season != nil {
		seasonID = season.ID
	}
	if req.ScheduledAt.IsZero() {
		req.ScheduledAt = time.Now()
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO games (athlete_id, opponent, location, scheduled_at, live, completed, season_id, tournament_id, created_at)
		 VALUES (?, ?, ?, ?, 0, 0, ?, ?, ?)`,
		req.AthleteID,
		req.Opponent,
		nullableString(req.Location),
		req.ScheduledAt.UTC().Format(time.RFC3339Nano),
		nullableID(seasonID),
		nullableID(req.TournamentID),
		timestampNow(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetGame(ctx, id)
}

// GetGame fetches a game by identifier.
func (s *Store) GetGame(ctx context.Context, id int64) (*Game, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// ListGames returns the athlete's games, most recent first.
func (s *Store) ListGames(ctx context.Context, athleteID int64) ([]*Game, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+gameColumns+` FROM games WHERE athlete_id = ? ORDER BY scheduled_at DESC, id DESC`,
		athleteID,
	)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// LiveGame returns the athlete's in-progress game, or nil when none is live.
func (s *Store) LiveGame(ctx context.Context, athleteID int64) (*Game, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+gameColumns+` FROM games WHERE athlete_id = ? AND live = 1 ORDER BY id DESC LIMIT 1`,
		athleteID,
	)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("live game: %w", err)
	}
	return game, nil
}

// SetGameLive marks the game as in progress so new clips default to it.
// Any other live game for the same athlete is taken off the air first.
func (s *Store) SetGameLive(ctx context.Context, gameID int64, live bool) error {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if live {
			if _, err := tx.ExecContext(ctx, `UPDATE games SET live = 0 WHERE athlete_id = ?`, game.AthleteID); err != nil {
				return fmt.Errorf("clear live games: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE games SET live = ? WHERE id = ?`, boolToInt(live), gameID); err != nil {
			return fmt.Errorf("set game live: %w", err)
		}
		return nil
	})
}

// CompleteGame marks the game finished and clears its live flag.
func (s *Store) CompleteGame(ctx context.Context, gameID int64) error {
	res, err := s.execWithRetry(ctx, `UPDATE games SET completed = 1, live = 0 WHERE id = ?`, gameID)
	if err != nil {
		return fmt.Errorf("complete game: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("game %d: %w", gameID, ErrNotFound)
	}
	return nil
}

// PracticeRequest describes a new practice session.
type PracticeRequest struct {
	AthleteID   int64
	Location    string
	ScheduledAt time.Time
}

// CreatePractice schedules a practice for the athlete, linking the active
// season when one exists.
func (s *Store) CreatePractice(ctx context.Context, req PracticeRequest) (*Practice, error) {
	if _, err := s.GetAthlete(ctx, req.AthleteID); err != nil {
		return nil, err
	}
	season, err := s.ActiveSeason(ctx, req.AthleteID)
	if err != nil {
		return nil, err
	}
	var seasonID int64
	if season != nil {
		seasonID = season.ID
	}
	if req.ScheduledAt.IsZero() {
		req.ScheduledAt = time.Now()
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO practices (athlete_id, location, scheduled_at, completed, season_id, created_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		req.AthleteID,
		nullableString(req.Location),
		req.ScheduledAt.UTC().Format(time.RFC3339Nano),
		nullableID(seasonID),
		timestampNow(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert practice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetPractice(ctx, id)
}

// GetPractice fetches a practice by identifier.
func (s *Store) GetPractice(ctx context.Context, id int64) (*Practice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+practiceColumns+` FROM practices WHERE id = ?`, id)
	practice, err := scanPractice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("practice %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get practice: %w", err)
	}
	return practice, nil
}

// ListPractices returns the athlete's practices, most recent first.
func (s *Store) ListPractices(ctx context.Context, athleteID int64) ([]*Practice, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+practiceColumns+` FROM practices WHERE athlete_id = ? ORDER BY scheduled_at DESC, id DESC`,
		athleteID,
	)
	if err != nil {
		return nil, fmt.Errorf("list practices: %w", err)
	}
	defer rows.Close()

	var practices []*Practice
	for rows.Next() {
		practice, err := scanPractice(rows)
		if err != nil {
			return nil, err
		}
		practices = append(practices, practice)
	}
	return practices, rows.Err()
}

// CompletePractice marks the practice finished.
func (s *Store) CompletePractice(ctx context.Context, practiceID int64) error {
	res, err := s.execWithRetry(ctx, `UPDATE practices SET completed = 1 WHERE id = ?`, practiceID)
	if err != nil {
		return fmt.Errorf("complete practice: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("practice %d: %w", practiceID, ErrNotFound)
	}
	return nil
}

// TournamentRequest describes a new tournament.
type TournamentRequest struct {
	AthleteID int64
	Name      string
	Location  string
	StartDate time.Time
	EndDate   time.Time
}

// CreateTournament records a tournament the athlete is entered in.
func (s *Store) CreateTournament(ctx context.Context, req TournamentRequest) (*Tournament, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, errors.New("tournament name is required")
	}
	if _, err := s.GetAthlete(ctx, req.AthleteID); err != nil {
		return nil, err
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO tournaments (athlete_id, name, location, start_date, end_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		req.AthleteID,
		req.Name,
		nullableString(req.Location),
		nullableTimestamp(req.StartDate),
		nullableTimestamp(req.EndDate),
		timestampNow(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert tournament: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetTournament(ctx, id)
}

// GetTournament fetches a tournament by identifier.
func (s *Store) GetTournament(ctx context.Context, id int64) (*Tournament, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = ?`, id)
	tournament, err := scanTournament(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tournament %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tournament: %w", err)
	}
	return tournament, nil
}

// ListTournaments returns the athlete's tournaments, most recent first.
func (s *Store) ListTournaments(ctx context.Context, athleteID int64) ([]*Tournament, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE athlete_id = ? ORDER BY start_date DESC, id DESC`,
		athleteID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*Tournament
	for rows.Next() {
		tournament, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, tournament)
	}
	return tournaments, rows.Err()
}
