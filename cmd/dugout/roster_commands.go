package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dugout/internal/library"
)

func newRosterCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the athlete roster",
	}
	cmd.AddCommand(
		newRosterAddCommand(ctx),
		newRosterListCommand(ctx),
		newRosterRenameCommand(ctx),
		newRosterRemoveCommand(ctx),
	)
	return cmd
}

func newRosterAddCommand(ctx *commandContext) *cobra.Command {
	var bats, throws string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an athlete to the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(lib *library.Store) error {
				athlete, err := lib.CreateAthlete(cmd.Context(), args[0], bats, throws)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added athlete #%d (%s)\n", athlete.ID, athlete.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bats, "bats", "", "batting side (left, right, switch)")
	cmd.Flags().StringVar(&throws, "throws", "", "throwing hand (left, right)")
	return cmd
}

func newRosterListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the roster in name order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withLibrary(func(lib *library.Store) error {
				athletes, err := lib.ListAthletes(cmd.Context())
				if err != nil {
					return err
				}
				if len(athletes) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Roster is empty")
					return nil
				}
				rows := make([][]string, 0, len(athletes))
				for _, athlete := range athletes {
					rows = append(rows, []string{
						fmt.Sprintf("%d", athlete.ID),
						athlete.Name,
						valueOrDash(athlete.Bats),
						valueOrDash(athlete.Throws),
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Bats", "Throws"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newRosterRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a roster entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args[:1])
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				if err := lib.RenameAthlete(cmd.Context(), ids[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Athlete %d renamed to %s\n", ids[0], strings.TrimSpace(args[1]))
				return nil
			})
		},
	}
}

func newRosterRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an athlete and every clip, game, and stat they own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				if err := lib.DeleteAthlete(cmd.Context(), ids[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Athlete %d removed\n", ids[0])
				return nil
			})
		},
	}
}
