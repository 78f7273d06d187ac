package library

import "time"

// Athlete is the root entity: every clip, schedule record, and stat line
// belongs to exactly one athlete.
type Athlete struct {
	ID        int64
	Name      string
	Bats      string // left, right, switch (optional)
	Throws    string // left, right (optional)
	CreatedAt time.Time
}

// Season is a time-bounded grouping. At most one season per athlete is active;
// new games, practices, and clips auto-link to it.
type Season struct {
	ID        int64
	AthleteID int64
	Name      string
	StartDate time.Time
	Active    bool
	CreatedAt time.Time
}

// Tournament groups games under a named event.
type Tournament struct {
	ID        int64
	AthleteID int64
	Name      string
	Location  string
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
}

// Game is a scheduled matchup. Live and Completed are user-driven flags.
type Game struct {
	ID           int64
	AthleteID    int64
	Opponent     string
	Location     string
	ScheduledAt  time.Time
	Live         bool
	Completed    bool
	SeasonID     int64
	TournamentID int64
	CreatedAt    time.Time
}

// Practice is a scheduled training session.
type Practice struct {
	ID          int64
	AthleteID   int64
	Location    string
	ScheduledAt time.Time
	Completed   bool
	SeasonID    int64
	CreatedAt   time.Time
}

// PlayResultRecord is one persisted outcome, linked from the clip that
// captured it. Records outlive their clips so statistics can be rebuilt.
type PlayResultRecord struct {
	ID         int64
	AthleteID  int64
	GameID     int64
	PracticeID int64
	SeasonID   int64
	Result     PlayResult
	SpeedMPH   float64
	CreatedAt  time.Time
}

// VideoClip is one cataloged video file with its optional annotation links.
// Result and SpeedMPH are populated from the linked play result record on
// read; they are stored on play_results, not on the clip row.
type VideoClip struct {
	ID              int64
	AthleteID       int64
	GameID          int64
	PracticeID      int64
	SeasonID        int64
	PlayResultID    int64
	Title           string
	FileName        string
	FilePath        string
	ThumbnailPath   string
	Highlight       bool
	DurationSeconds float64
	SizeBytes       int64
	Result          PlayResult
	SpeedMPH        float64
	CreatedAt       time.Time
}
