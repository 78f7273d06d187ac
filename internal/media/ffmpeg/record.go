package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// RecordSpec describes a live camera capture session.
type RecordSpec struct {
	Device      string
	InputFormat string // defaults to v4l2
	Output      string
	VideoSize   string // e.g. 1920x1080
	FrameRate   int
	VideoCodec  string // defaults to libx264
	Preset      string // x264 speed preset
	CRF         int
	// MaxDurationSeconds stops the capture from running away when a stop
	// never arrives. Zero means no limit.
	MaxDurationSeconds float64
}

// Recording is an in-flight capture session. Stop finalizes the file, Cancel
// discards it.
type Recording struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	output  string
	started time.Time
	done    chan struct{}

	mu      sync.Mutex
	waitErr error
	stderr  *bytes.Buffer
	latest  ProgressUpdate
}

// StartRecording launches ffmpeg against the capture device and returns the
// live session. The caller owns the session: every start must end in exactly
// one Stop or Cancel.
func (c *CLI) StartRecording(ctx context.Context, spec RecordSpec) (*Recording, error) {
	if strings.TrimSpace(spec.Device) == "" {
		return nil, errors.New("record: device required")
	}
	if strings.TrimSpace(spec.Output) == "" {
		return nil, errors.New("record: output path required")
	}
	inputFormat := spec.InputFormat
	if inputFormat == "" {
		inputFormat = "v4l2"
	}
	codec := spec.VideoCodec
	if codec == "" {
		codec = "libx264"
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-f", inputFormat}
	if spec.VideoSize != "" {
		args = append(args, "-video_size", spec.VideoSize)
	}
	if spec.FrameRate > 0 {
		args = append(args, "-framerate", fmt.Sprintf("%d", spec.FrameRate))
	}
	args = append(args, "-i", spec.Device, "-c:v", codec)
	if spec.Preset != "" {
		args = append(args, "-preset", spec.Preset)
	}
	if spec.CRF > 0 {
		args = append(args, "-crf", fmt.Sprintf("%d", spec.CRF))
	}
	if spec.MaxDurationSeconds > 0 {
		args = append(args, "-t", formatSeconds(spec.MaxDurationSeconds))
	}
	args = append(args, "-movflags", "+faststart", "-progress", "pipe:1", spec.Output)

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("record stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("record stdout pipe: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg capture: %w", err)
	}

	rec := &Recording{
		cmd:     cmd,
		stdin:   stdin,
		output:  spec.Output,
		started: time.Now(),
		done:    make(chan struct{}),
		stderr:  stderr,
	}

	go func() {
		_ = parseProgress(stdout, 0, func(update ProgressUpdate) {
			rec.mu.Lock()
			rec.latest = update
			rec.mu.Unlock()
		})
	}()
	go func() {
		err := cmd.Wait()
		rec.mu.Lock()
		rec.waitErr = err
		rec.mu.Unlock()
		close(rec.done)
	}()

	return rec, nil
}

// Output returns the capture file path.
func (r *Recording) Output() string {
	return r.output
}

// Done is closed once the ffmpeg process exits.
func (r *Recording) Done() <-chan struct{} {
	return r.done
}

// Elapsed reports the recorded duration, preferring ffmpeg's own progress
// clock over wall time.
func (r *Recording) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest.OutTime > 0 {
		return r.latest.OutTime
	}
	return time.Since(r.started)
}

// Stop asks ffmpeg to finalize the capture and waits for it to exit. A
// non-zero exit status is forgiven when the finalized file exists; interrupt
// deliveries can race the encoder's own shutdown.
func (r *Recording) Stop(ctx context.Context) error {
	if _, err := io.WriteString(r.stdin, "q"); err != nil {
		// stdin may already be closed if ffmpeg hit its duration cap.
		_ = r.signalInterrupt()
	}
	_ = r.stdin.Close()

	select {
	case <-r.done:
	case <-ctx.Done():
		_ = r.cmd.Process.Kill()
		<-r.done
		return ctx.Err()
	}

	r.mu.Lock()
	waitErr := r.waitErr
	stderrText := strings.TrimSpace(r.stderr.String())
	r.mu.Unlock()

	if waitErr != nil {
		if info, statErr := os.Stat(r.output); statErr == nil && info.Size() > 0 {
			return nil
		}
		return fmt.Errorf("ffmpeg capture failed: %w: %s", waitErr, stderrText)
	}
	return nil
}

// Cancel kills the capture and removes the partial file.
func (r *Recording) Cancel() error {
	_ = r.signalInterrupt()
	select {
	case <-r.done:
	case <-time.After(3 * time.Second):
		_ = r.cmd.Process.Kill()
		<-r.done
	}
	if err := os.Remove(r.output); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cancelled capture: %w", err)
	}
	return nil
}

func (r *Recording) signalInterrupt() error {
	if r.cmd.Process == nil {
		return errors.New("capture process not started")
	}
	return r.cmd.Process.Signal(os.Interrupt)
}
