package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dugout/internal/library"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var (
		athlete    string
		gameID     int64
		practiceID int64
		seasonID   int64
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show hitting and pitching statistics",
		Long: strings.TrimSpace(`
Show hitting and pitching statistics for one scope: an athlete's career
(--athlete), a single game (--game), a single practice (--practice), or a
season snapshot (--season). Rate stats are derived from the counters on read.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopes := 0
			if strings.TrimSpace(athlete) != "" {
				scopes++
			}
			for _, id := range []int64{gameID, practiceID, seasonID} {
				if id > 0 {
					scopes++
				}
			}
			if scopes != 1 {
				return errors.New("exactly one of --athlete, --game, --practice, or --season is required")
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				var (
					line  *library.StatLine
					scope string
					err   error
				)
				switch {
				case strings.TrimSpace(athlete) != "":
					var athleteID int64
					athleteID, err = resolveAthleteInStore(cmd.Context(), lib, athlete)
					if err != nil {
						return err
					}
					line, err = lib.StatsForAthlete(cmd.Context(), athleteID)
					scope = fmt.Sprintf("athlete %d", athleteID)
				case gameID > 0:
					line, err = lib.StatsForGame(cmd.Context(), gameID)
					scope = fmt.Sprintf("game %d", gameID)
				case practiceID > 0:
					line, err = lib.StatsForPractice(cmd.Context(), practiceID)
					scope = fmt.Sprintf("practice %d", practiceID)
				default:
					line, err = lib.StatsForSeason(cmd.Context(), seasonID)
					scope = fmt.Sprintf("season %d", seasonID)
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, statsView(line))
				}
				printStatLine(cmd, scope, line)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	cmd.Flags().Int64Var(&gameID, "game", 0, "game ID")
	cmd.Flags().Int64Var(&practiceID, "practice", 0, "practice ID")
	cmd.Flags().Int64Var(&seasonID, "season", 0, "season ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit counters and rates as JSON")
	cmd.AddCommand(newStatsRecomputeCommand(ctx))
	return cmd
}

func newStatsRecomputeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild every statistics row from the recorded play results",
		Long: strings.TrimSpace(`
Rebuild every statistics row from the recorded play results. Counters only
ever increment during normal operation, so deleting clips leaves statistics
inflated; recompute is the sanctioned repair path.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withLibrary(func(lib *library.Store) error {
				if err := lib.RecomputeStats(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Statistics rebuilt from play results")
				return nil
			})
		},
	}
}

func printStatLine(cmd *cobra.Command, scope string, line *library.StatLine) {
	out := cmd.OutOrStdout()
	if line.IsZero() {
		fmt.Fprintf(out, "No statistics recorded for %s\n", scope)
		return
	}
	fmt.Fprintf(out, "Statistics for %s\n\n", scope)

	hitting := renderTable(
		[]string{"AB", "H", "1B", "2B", "3B", "HR", "BB", "K", "HBP", "GO", "FO", "AVG", "OBP", "SLG"},
		[][]string{{
			fmt.Sprintf("%d", line.AtBats),
			fmt.Sprintf("%d", line.Hits),
			fmt.Sprintf("%d", line.Singles),
			fmt.Sprintf("%d", line.Doubles),
			fmt.Sprintf("%d", line.Triples),
			fmt.Sprintf("%d", line.HomeRuns),
			fmt.Sprintf("%d", line.Walks),
			fmt.Sprintf("%d", line.Strikeouts),
			fmt.Sprintf("%d", line.HitByPitch),
			fmt.Sprintf("%d", line.GroundOuts),
			fmt.Sprintf("%d", line.FlyOuts),
			formatRate(line.BattingAverage()),
			formatRate(line.OnBasePercentage()),
			formatRate(line.SluggingPercentage()),
		}},
		nil,
	)
	fmt.Fprint(out, hitting)

	if line.Pitches > 0 {
		fmt.Fprintln(out)
		pitching := renderTable(
			[]string{"Pitches", "Strikes", "Balls", "Wild", "Strike%"},
			[][]string{{
				fmt.Sprintf("%d", line.Pitches),
				fmt.Sprintf("%d", line.Strikes),
				fmt.Sprintf("%d", line.Balls),
				fmt.Sprintf("%d", line.WildPitches),
				fmt.Sprintf("%.1f%%", line.StrikePercentage()*100),
			}},
			nil,
		)
		fmt.Fprint(out, pitching)
	}
}

// formatRate renders a rate stat in scorebook form: .333, 1.000.
func formatRate(rate float64) string {
	formatted := fmt.Sprintf("%.3f", rate)
	return strings.TrimPrefix(formatted, "0")
}

type statsJSON struct {
	Singles            int     `json:"singles"`
	Doubles            int     `json:"doubles"`
	Triples            int     `json:"triples"`
	HomeRuns           int     `json:"home_runs"`
	Walks              int     `json:"walks"`
	Strikeouts         int     `json:"strikeouts"`
	GroundOuts         int     `json:"ground_outs"`
	FlyOuts            int     `json:"fly_outs"`
	HitByPitch         int     `json:"hit_by_pitch"`
	Balls              int     `json:"balls"`
	Strikes            int     `json:"strikes"`
	WildPitches        int     `json:"wild_pitches"`
	Hits               int     `json:"hits"`
	AtBats             int     `json:"at_bats"`
	Pitches            int     `json:"pitches"`
	BattingAverage     float64 `json:"batting_average"`
	OnBasePercentage   float64 `json:"on_base_percentage"`
	SluggingPercentage float64 `json:"slugging_percentage"`
	StrikePercentage   float64 `json:"strike_percentage"`
}

func statsView(line *library.StatLine) statsJSON {
	return statsJSON{
		Singles:            line.Singles,
		Doubles:            line.Doubles,
		Triples:            line.Triples,
		HomeRuns:           line.HomeRuns,
		Walks:              line.Walks,
		Strikeouts:         line.Strikeouts,
		GroundOuts:         line.GroundOuts,
		FlyOuts:            line.FlyOuts,
		HitByPitch:         line.HitByPitch,
		Balls:              line.Balls,
		Strikes:            line.Strikes,
		WildPitches:        line.WildPitches,
		Hits:               line.Hits,
		AtBats:             line.AtBats,
		Pitches:            line.Pitches,
		BattingAverage:     line.BattingAverage(),
		OnBasePercentage:   line.OnBasePercentage(),
		SluggingPercentage: line.SluggingPercentage(),
		StrikePercentage:   line.StrikePercentage(),
	}
}
