package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ThumbnailSpec describes a single-frame extraction.
type ThumbnailSpec struct {
	Input     string
	Output    string
	AtSeconds float64
	// Width bounds the thumbnail; height follows the aspect ratio.
	Width int
}

const defaultThumbnailWidth = 640

// Thumbnail grabs one frame as a JPEG.
func (c *CLI) Thumbnail(ctx context.Context, spec ThumbnailSpec) error {
	if strings.TrimSpace(spec.Input) == "" {
		return errors.New("thumbnail: input path required")
	}
	if strings.TrimSpace(spec.Output) == "" {
		return errors.New("thumbnail: output path required")
	}
	width := spec.Width
	if width <= 0 {
		width = defaultThumbnailWidth
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y"}
	if spec.AtSeconds > 0 {
		args = append(args, "-ss", formatSeconds(spec.AtSeconds))
	}
	args = append(args,
		"-i", spec.Input,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-q:v", "3",
		spec.Output,
	)

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg thumbnail failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
