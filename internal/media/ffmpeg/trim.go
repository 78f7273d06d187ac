package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// TrimSpec describes one stream-copy trim.
type TrimSpec struct {
	Input        string
	Output       string
	StartSeconds float64
	EndSeconds   float64
}

func (s TrimSpec) window() float64 {
	if s.EndSeconds <= s.StartSeconds {
		return 0
	}
	return s.EndSeconds - s.StartSeconds
}

// Trim cuts [StartSeconds, EndSeconds) out of the input via stream copy. The
// output never survives a failure or cancellation: callers can rely on either
// a complete file or no file at all.
func (c *CLI) Trim(ctx context.Context, spec TrimSpec, progress func(ProgressUpdate)) error {
	if strings.TrimSpace(spec.Input) == "" {
		return errors.New("trim: input path required")
	}
	if strings.TrimSpace(spec.Output) == "" {
		return errors.New("trim: output path required")
	}
	window := spec.window()
	if window <= 0 {
		return fmt.Errorf("trim: window [%v, %v) is empty", spec.StartSeconds, spec.EndSeconds)
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y"}
	if spec.StartSeconds > 0 {
		args = append(args, "-ss", formatSeconds(spec.StartSeconds))
	}
	args = append(args,
		"-i", spec.Input,
		"-t", formatSeconds(window),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-progress", "pipe:1",
		spec.Output,
	)

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("trim stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	parseErr := parseProgress(stdout, window, progress)
	waitErr := cmd.Wait()
	if waitErr != nil {
		_ = os.Remove(spec.Output)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg trim failed: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
	}
	if parseErr != nil {
		return fmt.Errorf("read ffmpeg progress: %w", parseErr)
	}
	return nil
}

func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.3f", seconds)
}
