package daemon

import (
	"context"
	"errors"

	"dugout/internal/capture"
	"dugout/internal/queue"
)

// StartRecording begins a camera capture session. The session is bound to the
// daemon's run context, not the caller's, so the encoder keeps running after
// the request returns.
func (d *Daemon) StartRecording(ctx context.Context, req capture.StartRequest) (capture.Status, error) {
	if !d.running.Load() || d.ctx == nil {
		return capture.Status{}, errors.New("daemon is not running")
	}
	return d.recorder.Start(d.ctx, req)
}

// StopRecording finalizes the active session and returns the queued item.
func (d *Daemon) StopRecording(ctx context.Context) (*queue.Item, error) {
	return d.recorder.Stop(ctx)
}

// CancelRecording aborts the active session and discards the partial file.
func (d *Daemon) CancelRecording(ctx context.Context) error {
	return d.recorder.Cancel(ctx)
}

// RecordingStatus reports the active capture session, if any.
func (d *Daemon) RecordingStatus() capture.Status {
	return d.recorder.Current()
}
