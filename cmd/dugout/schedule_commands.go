package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dugout/internal/library"
)

func newGameCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Schedule games and control which one is live",
	}
	cmd.AddCommand(
		newGameAddCommand(ctx),
		newGameListCommand(ctx),
		newGameLiveCommand(ctx),
		newGameCompleteCommand(ctx),
	)
	return cmd
}

func newGameAddCommand(ctx *commandContext) *cobra.Command {
	var (
		athlete    string
		opponent   string
		location   string
		at         string
		tournament int64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Schedule a game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(athlete) == "" {
				return errors.New("--athlete is required")
			}
			scheduledAt, err := parseScheduleTime(at)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				athleteID, err := resolveAthleteInStore(cmd.Context(), lib, athlete)
				if err != nil {
					return err
				}
				game, err := lib.CreateGame(cmd.Context(), library.GameRequest{
					AthleteID:    athleteID,
					Opponent:     opponent,
					Location:     location,
					ScheduledAt:  scheduledAt,
					TournamentID: tournament,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scheduled game #%d vs %s (%s)\n", game.ID, game.Opponent, formatScheduleTime(game.ScheduledAt))
				if game.SeasonID != 0 {
					fmt.Fprintf(out, "Linked to season #%d\n", game.SeasonID)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	cmd.Flags().StringVar(&opponent, "opponent", "", "opposing team name")
	cmd.Flags().StringVar(&location, "location", "", "field or venue")
	cmd.Flags().StringVar(&at, "at", "", "scheduled time (2006-01-02 or 2006-01-02 15:04)")
	cmd.Flags().Int64Var(&tournament, "tournament", 0, "tournament ID the game belongs to")
	return cmd
}

func newGameListCommand(ctx *commandContext) *cobra.Command {
	var athlete string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an athlete's games, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(athlete) == "" {
				return errors.New("--athlete is required")
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				athleteID, err := resolveAthleteInStore(cmd.Context(), lib, athlete)
				if err != nil {
					return err
				}
				games, err := lib.ListGames(cmd.Context(), athleteID)
				if err != nil {
					return err
				}
				if len(games) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No games scheduled")
					return nil
				}
				rows := make([][]string, 0, len(games))
				for _, game := range games {
					rows = append(rows, []string{
						fmt.Sprintf("%d", game.ID),
						game.Opponent,
						valueOrDash(game.Location),
						formatScheduleTime(game.ScheduledAt),
						yesNo(game.Live),
						yesNo(game.Completed),
					})
				}
				table := renderTable(
					[]string{"ID", "Opponent", "Location", "Scheduled", "Live", "Done"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	return cmd
}

func newGameLiveCommand(ctx *commandContext) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "live <id>",
		Short: "Mark a game live so new clips default to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				if err := lib.SetGameLive(cmd.Context(), ids[0], !off); err != nil {
					return err
				}
				if off {
					fmt.Fprintf(cmd.OutOrStdout(), "Game %d is no longer live\n", ids[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Game %d is live; new clips default to it\n", ids[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "take the game off the air instead")
	return cmd
}

func newGameCompleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a game finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				if err := lib.CompleteGame(cmd.Context(), ids[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Game %d completed\n", ids[0])
				return nil
			})
		},
	}
}

func newPracticeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Schedule and complete practice sessions",
	}
	cmd.AddCommand(
		newPracticeAddCommand(ctx),
		newPracticeListCommand(ctx),
		newPracticeCompleteCommand(ctx),
	)
	return cmd
}

func newPracticeAddCommand(ctx *commandContext) *cobra.Command {
	var (
		athlete  string
		location string
		at       string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Schedule a practice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(athlete) == "" {
				return errors.New("--athlete is required")
			}
			scheduledAt, err := parseScheduleTime(at)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				athleteID, err := resolveAthleteInStore(cmd.Context(), lib, athlete)
				if err != nil {
					return err
				}
				practice, err := lib.CreatePractice(cmd.Context(), library.PracticeRequest{
					AthleteID:   athleteID,
					Location:    location,
					ScheduledAt: scheduledAt,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scheduled practice #%d (%s)\n", practice.ID, formatScheduleTime(practice.ScheduledAt))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	cmd.Flags().StringVar(&location, "location", "", "field or facility")
	cmd.Flags().StringVar(&at, "at", "", "scheduled time (2006-01-02 or 2006-01-02 15:04)")
	return cmd
}

func newPracticeListCommand(ctx *commandContext) *cobra.Command {
	var athlete string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an athlete's practices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(athlete) == "" {
				return errors.New("--athlete is required")
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				athleteID, err := resolveAthleteInStore(cmd.Context(), lib, athlete)
				if err != nil {
					return err
				}
				practices, err := lib.ListPractices(cmd.Context(), athleteID)
				if err != nil {
					return err
				}
				if len(practices) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No practices scheduled")
					return nil
				}
				rows := make([][]string, 0, len(practices))
				for _, practice := range practices {
					rows = append(rows, []string{
						fmt.Sprintf("%d", practice.ID),
						valueOrDash(practice.Location),
						formatScheduleTime(practice.ScheduledAt),
						yesNo(practice.Completed),
					})
				}
				table := renderTable(
					[]string{"ID", "Location", "Scheduled", "Done"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	return cmd
}

func newPracticeCompleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a practice finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				if err := lib.CompletePractice(cmd.Context(), ids[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Practice %d completed\n", ids[0])
				return nil
			})
		},
	}
}

func newTournamentCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tournament",
		Short: "Track tournaments and their games",
	}
	cmd.AddCommand(
		newTournamentAddCommand(ctx),
		newTournamentListCommand(ctx),
	)
	return cmd
}

func newTournamentAddCommand(ctx *commandContext) *cobra.Command {
	var (
		athlete  string
		location string
		start    string
		end      string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Record a tournament",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(athlete) == "" {
				return errors.New("--athlete is required")
			}
			startDate, err := parseScheduleTime(start)
			if err != nil {
				return err
			}
			endDate, err := parseScheduleTime(end)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				athleteID, err := resolveAthleteInStore(cmd.Context(), lib, athlete)
				if err != nil {
					return err
				}
				tournament, err := lib.CreateTournament(cmd.Context(), library.TournamentRequest{
					AthleteID: athleteID,
					Name:      args[0],
					Location:  location,
					StartDate: startDate,
					EndDate:   endDate,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added tournament #%d (%s)\n", tournament.ID, tournament.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	cmd.Flags().StringVar(&location, "location", "", "venue or complex")
	cmd.Flags().StringVar(&start, "start", "", "start date (2006-01-02)")
	cmd.Flags().StringVar(&end, "end", "", "end date (2006-01-02)")
	return cmd
}

func newTournamentListCommand(ctx *commandContext) *cobra.Command {
	var athlete string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an athlete's tournaments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(athlete) == "" {
				return errors.New("--athlete is required")
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				athleteID, err := resolveAthleteInStore(cmd.Context(), lib, athlete)
				if err != nil {
					return err
				}
				tournaments, err := lib.ListTournaments(cmd.Context(), athleteID)
				if err != nil {
					return err
				}
				if len(tournaments) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tournaments recorded")
					return nil
				}
				rows := make([][]string, 0, len(tournaments))
				for _, tournament := range tournaments {
					rows = append(rows, []string{
						fmt.Sprintf("%d", tournament.ID),
						tournament.Name,
						valueOrDash(tournament.Location),
						formatScheduleDate(tournament.StartDate),
						formatScheduleDate(tournament.EndDate),
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Location", "Start", "End"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	return cmd
}

func valueOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}
