package library

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PlayResult is the enumerated outcome of one at-bat or pitch event.
type PlayResult string

const (
	PlaySingle     PlayResult = "single"
	PlayDouble     PlayResult = "double"
	PlayTriple     PlayResult = "triple"
	PlayHomeRun    PlayResult = "home_run"
	PlayWalk       PlayResult = "walk"
	PlayStrikeout  PlayResult = "strikeout"
	PlayGroundOut  PlayResult = "ground_out"
	PlayFlyOut     PlayResult = "fly_out"
	PlayBall       PlayResult = "ball"
	PlayStrike     PlayResult = "strike"
	PlayHitByPitch PlayResult = "hit_by_pitch"
	PlayWildPitch  PlayResult = "wild_pitch"
)

var allPlayResults = []PlayResult{
	PlaySingle,
	PlayDouble,
	PlayTriple,
	PlayHomeRun,
	PlayWalk,
	PlayStrikeout,
	PlayGroundOut,
	PlayFlyOut,
	PlayBall,
	PlayStrike,
	PlayHitByPitch,
	PlayWildPitch,
}

var playResultSet = func() map[PlayResult]struct{} {
	set := make(map[PlayResult]struct{}, len(allPlayResults))
	for _, result := range allPlayResults {
		set[result] = struct{}{}
	}
	return set
}()

// AllPlayResults returns the ordered list of known outcomes.
func AllPlayResults() []PlayResult {
	cp := make([]PlayResult, len(allPlayResults))
	copy(cp, allPlayResults)
	return cp
}

// ParsePlayResult converts user input into a known outcome. Spaces and dashes
// are treated as underscores so "home run" and "home-run" both parse.
func ParsePlayResult(value string) (PlayResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if normalized == "" {
		return "", fmt.Errorf("play result is empty")
	}
	result := PlayResult(normalized)
	if _, ok := playResultSet[result]; !ok {
		return "", fmt.Errorf("unknown play result %q", value)
	}
	return result, nil
}

// Valid reports whether this is a known outcome.
func (r PlayResult) Valid() bool {
	_, ok := playResultSet[r]
	return ok
}

// IsHit reports whether the outcome is a base hit.
func (r PlayResult) IsHit() bool {
	switch r {
	case PlaySingle, PlayDouble, PlayTriple, PlayHomeRun:
		return true
	default:
		return false
	}
}

// Bases returns the number of bases credited for the outcome.
func (r PlayResult) Bases() int {
	switch r {
	case PlaySingle:
		return 1
	case PlayDouble:
		return 2
	case PlayTriple:
		return 3
	case PlayHomeRun:
		return 4
	default:
		return 0
	}
}

// CountsAsAtBat reports whether the outcome consumes an official at-bat.
// Walks and hit-by-pitch reach base without an at-bat; raw pitch events
// never consume one.
func (r PlayResult) CountsAsAtBat() bool {
	switch r {
	case PlaySingle, PlayDouble, PlayTriple, PlayHomeRun,
		PlayStrikeout, PlayGroundOut, PlayFlyOut:
		return true
	default:
		return false
	}
}

// IsPitchEvent reports whether the outcome tracks a single pitch rather than
// a plate-appearance result.
func (r PlayResult) IsPitchEvent() bool {
	switch r {
	case PlayBall, PlayStrike, PlayWildPitch:
		return true
	default:
		return false
	}
}

// IsHighlight reports whether the outcome auto-flags the clip as a highlight.
func (r PlayResult) IsHighlight() bool {
	return r == PlayTriple || r == PlayHomeRun
}

var displayTitler = cases.Title(language.English)

// DisplayName returns the human-readable form of the outcome.
func (r PlayResult) DisplayName() string {
	if r == "" {
		return ""
	}
	return displayTitler.String(strings.ReplaceAll(string(r), "_", " "))
}
