package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dugout/internal/library"
)

func newClipsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clips",
		Short: "Browse and manage cataloged video clips",
	}
	cmd.AddCommand(
		newClipsListCommand(ctx),
		newClipsDescribeCommand(ctx),
		newClipsHighlightCommand(ctx),
		newClipsRemoveCommand(ctx),
	)
	return cmd
}

func newClipsListCommand(ctx *commandContext) *cobra.Command {
	var (
		athlete        string
		gameID         int64
		practiceID     int64
		seasonID       int64
		result         string
		highlightsOnly bool
		asJSON         bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged clips, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedResult, err := parsePlayResultFlag(result)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				athleteID, err := resolveAthleteInStore(cmd.Context(), lib, athlete)
				if err != nil {
					return err
				}
				clips, err := lib.ListClips(cmd.Context(), library.ClipFilter{
					AthleteID:     athleteID,
					GameID:        gameID,
					PracticeID:    practiceID,
					SeasonID:      seasonID,
					Result:        library.PlayResult(parsedResult),
					HighlightOnly: highlightsOnly,
				})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, clips)
				}
				if len(clips) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No clips match")
					return nil
				}
				rows := make([][]string, 0, len(clips))
				for _, clip := range clips {
					rows = append(rows, []string{
						fmt.Sprintf("%d", clip.ID),
						valueOrDash(clip.Title),
						clipResultLabel(clip),
						formatClipDuration(clip.DurationSeconds),
						humanize.IBytes(uint64(clip.SizeBytes)),
						yesNo(clip.Highlight),
						formatScheduleDate(clip.CreatedAt),
					})
				}
				table := renderTable(
					[]string{"ID", "Title", "Result", "Length", "Size", "Highlight", "Added"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	cmd.Flags().Int64Var(&gameID, "game", 0, "filter by game ID")
	cmd.Flags().Int64Var(&practiceID, "practice", 0, "filter by practice ID")
	cmd.Flags().Int64Var(&seasonID, "season", 0, "filter by season ID")
	cmd.Flags().StringVar(&result, "result", "", playResultFlagHelp())
	cmd.Flags().BoolVar(&highlightsOnly, "highlights", false, "only show highlight clips")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit clips as JSON")
	return cmd
}

func newClipsDescribeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "describe <id>",
		Short: "Show the full record for one clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				clip, err := lib.GetClip(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, clip)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Clip:       #%d %s\n", clip.ID, valueOrDash(clip.Title))
				fmt.Fprintf(out, "Athlete:    %d\n", clip.AthleteID)
				fmt.Fprintf(out, "Game:       %s\n", idOrDash(clip.GameID))
				fmt.Fprintf(out, "Practice:   %s\n", idOrDash(clip.PracticeID))
				fmt.Fprintf(out, "Season:     %s\n", idOrDash(clip.SeasonID))
				fmt.Fprintf(out, "Result:     %s\n", clipResultLabel(clip))
				fmt.Fprintf(out, "Length:     %s\n", formatClipDuration(clip.DurationSeconds))
				fmt.Fprintf(out, "Size:       %s\n", humanize.IBytes(uint64(clip.SizeBytes)))
				fmt.Fprintf(out, "Highlight:  %s\n", yesNo(clip.Highlight))
				fmt.Fprintf(out, "File:       %s\n", clip.FilePath)
				fmt.Fprintf(out, "Thumbnail:  %s\n", valueOrDash(clip.ThumbnailPath))
				fmt.Fprintf(out, "Added:      %s\n", formatScheduleTime(clip.CreatedAt))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw clip as JSON")
	return cmd
}

func newClipsHighlightCommand(ctx *commandContext) *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "highlight <id>",
		Short: "Flag a clip as a highlight (or clear the flag)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				if err := lib.SetClipHighlight(cmd.Context(), ids[0], !clear); err != nil {
					return err
				}
				if clear {
					fmt.Fprintf(cmd.OutOrStdout(), "Clip %d is no longer a highlight\n", ids[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Clip %d flagged as a highlight\n", ids[0])
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clear, "off", false, "clear the highlight flag instead of setting it")
	return cmd
}

func newClipsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id...>",
		Short: "Delete clips, their media files, and their thumbnails",
		Long: strings.TrimSpace(`
Delete clips, their media files, and their thumbnails.

Statistics recorded from a clip's play result are kept; run
"dugout stats recompute" to rebuild counters from the surviving
play results if that is not what you want.`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib *library.Store) error {
				var failures []string
				for _, id := range ids {
					if err := lib.DeleteClip(cmd.Context(), id); err != nil {
						failures = append(failures, fmt.Sprintf("%d: %v", id, err))
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Clip %d removed\n", id)
				}
				if len(failures) > 0 {
					return errors.New("remove clips: " + strings.Join(failures, "; "))
				}
				return nil
			})
		},
	}
}

func clipResultLabel(clip *library.VideoClip) string {
	if !clip.Result.Valid() {
		return "-"
	}
	label := clip.Result.DisplayName()
	if clip.SpeedMPH > 0 {
		label = fmt.Sprintf("%s (%.0f mph)", label, clip.SpeedMPH)
	}
	return label
}

func formatClipDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func idOrDash(id int64) string {
	if id <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", id)
}
