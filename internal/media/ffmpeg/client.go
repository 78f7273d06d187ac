package ffmpeg

import (
	"context"
	"os/exec"
	"time"
)

var commandContext = exec.CommandContext

// ProgressUpdate captures one progress block emitted by ffmpeg.
type ProgressUpdate struct {
	// Percent is derived from the duration hint, or -1 when no hint exists.
	Percent   float64
	OutTime   time.Duration
	Speed     float64
	SizeBytes int64
}

// Client defines the ffmpeg operations stages rely on.
type Client interface {
	Trim(ctx context.Context, spec TrimSpec, progress func(ProgressUpdate)) error
	Thumbnail(ctx context.Context, spec ThumbnailSpec) error
	StartRecording(ctx context.Context, spec RecordSpec) (*Recording, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command-line tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

var _ Client = (*CLI)(nil)
