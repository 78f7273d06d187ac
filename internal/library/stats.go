package library

// StatLine holds the raw counters for one statistics scope (athlete career,
// single game, single practice, or season snapshot). Rate stats are derived
// on read and never stored.
type StatLine struct {
	AthleteID  int64
	GameID     int64
	PracticeID int64
	SeasonID   int64

	Singles     int
	Doubles     int
	Triples     int
	HomeRuns    int
	Walks       int
	Strikeouts  int
	GroundOuts  int
	FlyOuts     int
	HitByPitch  int
	Balls       int
	Strikes     int
	WildPitches int
	Hits        int
	AtBats      int
	Pitches     int
}

// Apply increments the counters for a single play result. Counters only ever
// increase; there is no decrement path.
func (s *StatLine) Apply(result PlayResult) {
	switch result {
	case PlaySingle:
		s.Singles++
	case PlayDouble:
		s.Doubles++
	case PlayTriple:
		s.Triples++
	case PlayHomeRun:
		s.HomeRuns++
	case PlayWalk:
		s.Walks++
	case PlayStrikeout:
		s.Strikeouts++
	case PlayGroundOut:
		s.GroundOuts++
	case PlayFlyOut:
		s.FlyOuts++
	case PlayHitByPitch:
		s.HitByPitch++
	case PlayBall:
		s.Balls++
	case PlayStrike:
		s.Strikes++
	case PlayWildPitch:
		s.WildPitches++
	}

	if result.IsHit() {
		s.Hits++
	}
	if result.CountsAsAtBat() {
		s.AtBats++
	}
	if result.IsPitchEvent() {
		s.Pitches++
	}
}

// TotalBases returns the weighted base count for slugging.
func (s StatLine) TotalBases() int {
	return s.Singles + 2*s.Doubles + 3*s.Triples + 4*s.HomeRuns
}

// BattingAverage returns hits per at-bat, or 0 with no at-bats.
func (s StatLine) BattingAverage() float64 {
	if s.AtBats == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.AtBats)
}

// OnBasePercentage returns (H + BB + HBP) / (AB + BB + HBP), or 0 with an
// empty denominator.
func (s StatLine) OnBasePercentage() float64 {
	denominator := s.AtBats + s.Walks + s.HitByPitch
	if denominator == 0 {
		return 0
	}
	return float64(s.Hits+s.Walks+s.HitByPitch) / float64(denominator)
}

// SluggingPercentage returns total bases per at-bat, or 0 with no at-bats.
func (s StatLine) SluggingPercentage() float64 {
	if s.AtBats == 0 {
		return 0
	}
	return float64(s.TotalBases()) / float64(s.AtBats)
}

// StrikePercentage returns strikes per tracked pitch, or 0 with no pitches.
func (s StatLine) StrikePercentage() float64 {
	if s.Pitches == 0 {
		return 0
	}
	return float64(s.Strikes) / float64(s.Pitches)
}

// IsZero reports whether no counter has been incremented.
func (s StatLine) IsZero() bool {
	return s.Singles == 0 && s.Doubles == 0 && s.Triples == 0 && s.HomeRuns == 0 &&
		s.Walks == 0 && s.Strikeouts == 0 && s.GroundOuts == 0 && s.FlyOuts == 0 &&
		s.HitByPitch == 0 && s.Balls == 0 && s.Strikes == 0 && s.WildPitches == 0 &&
		s.Hits == 0 && s.AtBats == 0 && s.Pitches == 0
}
