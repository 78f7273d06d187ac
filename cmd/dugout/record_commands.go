package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dugout/internal/capture"
	"dugout/internal/ipc"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Control camera recording sessions",
	}
	cmd.AddCommand(
		newRecordStartCommand(ctx),
		newRecordStopCommand(ctx),
		newRecordCancelCommand(ctx),
		newRecordStatusCommand(ctx),
	)
	return cmd
}

func newRecordStartCommand(ctx *commandContext) *cobra.Command {
	var (
		title       string
		athlete     string
		gameID      int64
		practice    int64
		preset      string
		maxDuration float64
		hold        bool
		force       bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start recording from the configured camera",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			athleteID, err := resolveAthleteRef(cmd.Context(), ctx, athlete)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if err := checkStorageHeadroom(client, force, "record"); err != nil {
					return err
				}
				resp, err := client.RecordStart(ipc.RecordStartRequest{
					ClipTitle:          title,
					AthleteID:          athleteID,
					GameID:             gameID,
					PracticeID:         practice,
					QualityPreset:      preset,
					MaxDurationSeconds: maxDuration,
					HoldForAnnotation:  hold,
				})
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("empty response from daemon")
				}
				out := cmd.OutOrStdout()
				session := resp.Session
				name := strings.TrimSpace(session.ClipTitle)
				if name == "" {
					name = session.SessionID
				}
				fmt.Fprintf(out, "Recording started: %s (preset %s)\n", name, session.Preset)
				fmt.Fprintln(out, "Run `dugout record stop` to finish or `dugout record cancel` to discard")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "clip title shown in the queue and library")
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	cmd.Flags().Int64Var(&gameID, "game", 0, "game ID the clip belongs to")
	cmd.Flags().Int64Var(&practice, "practice", 0, "practice ID the clip belongs to")
	cmd.Flags().StringVar(&preset, "preset", "", "quality preset ("+strings.Join(capture.PresetNames(), ", ")+")")
	cmd.Flags().Float64Var(&maxDuration, "max-duration", 0, "stop automatically after this many seconds")
	cmd.Flags().BoolVar(&hold, "hold", false, "hold the clip for annotation before export")
	cmd.Flags().BoolVar(&force, "force", false, "record even when staging storage is low")
	return cmd
}

func newRecordStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active recording and queue the clip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordStop()
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("empty response from daemon")
				}
				item := resp.Item
				fmt.Fprintf(cmd.OutOrStdout(), "Recording stopped; queued as item #%d (%s)\n", item.ID, displayTitle(item))
				return nil
			})
		},
	}
}

func newRecordCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active recording and discard the file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordCancel()
				if err != nil {
					return err
				}
				if resp != nil && resp.Cancelled {
					fmt.Fprintln(cmd.OutOrStdout(), "Recording cancelled")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "No recording in progress")
				return nil
			})
		},
	}
}

func newRecordStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active recording session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordStatus()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp == nil || !resp.Session.Active {
					fmt.Fprintln(out, "No recording in progress")
					return nil
				}
				session := resp.Session
				name := strings.TrimSpace(session.ClipTitle)
				if name == "" {
					name = session.SessionID
				}
				elapsed := time.Duration(session.ElapsedSeconds * float64(time.Second)).Round(time.Second)
				fmt.Fprintf(out, "Recording: %s\n", name)
				fmt.Fprintf(out, "Preset:    %s\n", session.Preset)
				fmt.Fprintf(out, "Elapsed:   %s\n", elapsed)
				fmt.Fprintf(out, "Output:    %s\n", session.OutputPath)
				return nil
			})
		},
	}
}
