package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dugout/internal/api"
	"dugout/internal/ipc"
)

func newAnnotateCommand(ctx *commandContext) *cobra.Command {
	var (
		result      string
		speed       float64
		athlete     string
		releaseHold bool
	)
	cmd := &cobra.Command{
		Use:   "annotate <id>",
		Short: "Record the play result for a queued or cataloged clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			playResult, err := parsePlayResultFlag(result)
			if err != nil {
				return err
			}
			if playResult == "" && speed <= 0 && athlete == "" && !releaseHold {
				return errors.New("nothing to annotate; pass --result, --speed, --athlete, or --release-hold")
			}

			athleteID, err := resolveAthleteRef(cmd.Context(), ctx, athlete)
			if err != nil {
				return err
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Annotate(ipc.AnnotateRequest{
					ID:          ids[0],
					PlayResult:  playResult,
					SpeedMPH:    speed,
					AthleteID:   athleteID,
					ReleaseHold: releaseHold,
				})
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("empty response from daemon")
				}
				item := resp.Item
				out := cmd.OutOrStdout()
				summary := api.PlaySummary(item)
				if summary == "" {
					summary = "no play recorded"
				}
				fmt.Fprintf(out, "Item %d annotated: %s\n", item.ID, summary)
				if item.HoldForAnnotation {
					fmt.Fprintln(out, "Item is still holding for annotation")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&result, "result", "", playResultFlagHelp())
	cmd.Flags().Float64Var(&speed, "speed", 0, "measured speed in mph")
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	cmd.Flags().BoolVar(&releaseHold, "release-hold", false, "release the annotation hold so the clip can export")
	return cmd
}
