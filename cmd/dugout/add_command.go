package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dugout/internal/ipc"
)

var addFileExtensions = map[string]struct{}{
	".mp4": {},
	".mov": {},
	".mkv": {},
	".avi": {},
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		title     string
		athlete   string
		gameID    int64
		practice  int64
		trimStart float64
		trimEnd   float64
		hold      bool
		result    string
		speed     float64
		highlight bool
		force     bool
	)
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Queue a video file for validation, trim, and export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}

			ext := strings.ToLower(filepath.Ext(info.Name()))
			if _, ok := addFileExtensions[ext]; !ok {
				return fmt.Errorf("unsupported file extension %q", ext)
			}

			playResult, err := parsePlayResultFlag(result)
			if err != nil {
				return err
			}

			athleteID, err := resolveAthleteRef(cmd.Context(), ctx, athlete)
			if err != nil {
				return err
			}

			return ctx.withClient(func(client *ipc.Client) error {
				if err := checkStorageHeadroom(client, force, "queue"); err != nil {
					return err
				}
				resp, err := client.Add(ipc.AddRequest{
					SourcePath:        absPath,
					ClipTitle:         title,
					AthleteID:         athleteID,
					GameID:            gameID,
					PracticeID:        practice,
					TrimStartSec:      trimStart,
					TrimEndSec:        trimEnd,
					HoldForAnnotation: hold,
					PlayResult:        playResult,
					SpeedMPH:          speed,
					Highlight:         highlight,
				})
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("empty response from daemon")
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued clip as item #%d (%s)\n", resp.Item.ID, filepath.Base(absPath))
				if resp.Item.HoldForAnnotation {
					fmt.Fprintln(out, "Item will wait for annotation before export")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "clip title shown in the queue and library")
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete ID or roster name")
	cmd.Flags().Int64Var(&gameID, "game", 0, "game ID the clip belongs to")
	cmd.Flags().Int64Var(&practice, "practice", 0, "practice ID the clip belongs to")
	cmd.Flags().Float64Var(&trimStart, "trim-start", 0, "trim start offset in seconds")
	cmd.Flags().Float64Var(&trimEnd, "trim-end", 0, "trim end offset in seconds")
	cmd.Flags().BoolVar(&hold, "hold", false, "hold the clip for annotation before export")
	cmd.Flags().StringVar(&result, "result", "", playResultFlagHelp())
	cmd.Flags().Float64Var(&speed, "speed", 0, "measured speed in mph")
	cmd.Flags().BoolVar(&highlight, "highlight", false, "flag the clip as a highlight")
	cmd.Flags().BoolVar(&force, "force", false, "queue even when staging storage is low")
	return cmd
}
