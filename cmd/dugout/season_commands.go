package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dugout/internal/library"
)

func newSeasonCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "season",
		Short: "Group games and practices into seasons",
	}
	cmd.AddCommand(
		newSeasonAddCommand(ctx),
		newSeasonListCommand(ctx),
		newSeasonActivateCommand(ctx),
	)
	return cmd
}

func newSeasonAddCommand(ctx *commandContext) *cobra.Command {
	var (
		athlete string
		start   string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Start a new season and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(athlete) == "" {
				return errors.New("--athlete is required")
			}
			startDate, err := parseScheduleTime(start)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				athleteID, err := resolveAthleteInStore(cmd.Context(), lib, athlete)
				if err != nil {
					return err
				}
				season, err := lib.CreateSeason(cmd.Context(), athleteID, args[0], startDate)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started season #%d (%s); it is now active\n", season.ID, season.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	cmd.Flags().StringVar(&start, "start", "", "start date (2006-01-02)")
	return cmd
}

func newSeasonListCommand(ctx *commandContext) *cobra.Command {
	var athlete string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an athlete's seasons, newest first",
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
				seasons, err := lib.ListSeasons(cmd.Context(), athleteID)
				if err != nil {
					return err
				}
				if len(seasons) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No seasons recorded")
					return nil
				}
				rows := make([][]string, 0, len(seasons))
				for _, season := range seasons {
					rows = append(rows, []string{
						fmt.Sprintf("%d", season.ID),
						season.Name,
						formatScheduleDate(season.StartDate),
						yesNo(season.Active),
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Start", "Active"},
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

func newSeasonActivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Make a season the active one for its athlete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				if err := lib.SetActiveSeason(cmd.Context(), ids[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Season %d is now active\n", ids[0])
				return nil
			})
		},
	}
}
