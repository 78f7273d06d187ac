package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"dugout/internal/textutil"
)

// rosterCollator orders athlete names the way a human roster would,
// case-insensitively and with locale-aware comparison of accented names.
var rosterCollator = collate.New(language.English, collate.IgnoreCase)

// fuzzyMatchThreshold is the minimum cosine similarity for a name lookup to
// resolve without an exact match.
const fuzzyMatchThreshold = 0.5

const athleteColumns = "id, name, bats, throws, created_at"

func scanAthlete(scanner interface{ Scan(dest ...any) error }) (*Athlete, error) {
	var (
		id         int64
		name       string
		bats       sql.NullString
		throws     sql.NullString
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&id, &name, &bats, &throws, &createdRaw); err != nil {
		return nil, err
	}
	athlete := &Athlete{
		ID:     id,
		Name:   name,
		Bats:   bats.String,
		Throws: throws.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		athlete.CreatedAt = created
	}
	return athlete, nil
}

// CreateAthlete adds a new athlete to the roster.
func (s *Store) CreateAthlete(ctx context.Context, name, bats, throws string) (*Athlete, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("athlete name is required")
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO athletes (name, bats, throws, created_at) VALUES (?, ?, ?, ?)`,
		name,
		nullableString(strings.ToLower(strings.TrimSpace(bats))),
		nullableString(strings.ToLower(strings.TrimSpace(throws))),
		timestampNow(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert athlete: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetAthlete(ctx, id)
}

// GetAthlete fetches an athlete by identifier.
func (s *Store) GetAthlete(ctx context.Context, id int64) (*Athlete, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+athleteColumns+` FROM athletes WHERE id = ?`, id)
	athlete, err := scanAthlete(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("athlete %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get athlete: %w", err)
	}
	return athlete, nil
}

// ListAthletes returns the full roster in locale-aware name order.
func (s *Store) ListAthletes(ctx context.Context) ([]*Athlete, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+athleteColumns+` FROM athletes`)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	defer rows.Close()

	var athletes []*Athlete
	for rows.Next() {
		athlete, err := scanAthlete(rows)
		if err != nil {
			return nil, err
		}
		athletes = append(athletes, athlete)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(athletes, func(i, j int) bool {
		return rosterCollator.CompareString(athletes[i].Name, athletes[j].Name) < 0
	})
	return athletes, nil
}

// FindAthleteByName resolves a roster entry from user input. Exact
// case-insensitive matches win; otherwise the closest fingerprint match above
// the similarity threshold is returned. Ambiguity and misses both yield
// ErrNotFound with a descriptive message.
func (s *Store) FindAthleteByName(ctx context.Context, query string) (*Athlete, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("athlete name is required")
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+athleteColumns+` FROM athletes WHERE name = ? COLLATE NOCASE ORDER BY id LIMIT 1`,
		query,
	)
	athlete, err := scanAthlete(row)
	if err == nil {
		return athlete, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find athlete: %w", err)
	}

	athletes, err := s.ListAthletes(ctx)
	if err != nil {
		return nil, err
	}
	queryFP := textutil.NewFingerprint(query)
	if queryFP == nil {
		return nil, fmt.Errorf("athlete %q: %w", query, ErrNotFound)
	}

	var best *Athlete
	bestScore := 0.0
	for _, candidate := range athletes {
		score := textutil.CosineSimilarity(queryFP, textutil.NewFingerprint(candidate.Name))
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if best == nil || bestScore < fuzzyMatchThreshold {
		return nil, fmt.Errorf("athlete %q: %w", query, ErrNotFound)
	}
	return best, nil
}

// RenameAthlete updates the athlete's display name.
func (s *Store) RenameAthlete(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("athlete name is required")
	}
	res, err := s.execWithRetry(ctx, `UPDATE athletes SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename athlete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("athlete %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteAthlete removes the athlete and, via cascade, every owned record.
// Clip media files and thumbnails are deleted from disk first so the library
// directory holds no orphans.
func (s *Store) DeleteAthlete(ctx context.Context, id int64) error {
	clips, err := s.ListClips(ctx, ClipFilter{AthleteID: id})
	if err != nil {
		return err
	}
	for _, clip := range clips {
		removeClipFiles(clip)
	}

	res, err := s.execWithRetry(ctx, `DELETE FROM athletes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete athlete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("athlete %d: %w", id, ErrNotFound)
	}
	return nil
}
