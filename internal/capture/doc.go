// Package capture manages live camera recording sessions. The daemon runs at
// most one session at a time: start spawns ffmpeg against the configured
// v4l2 device, stop finalizes the file and enqueues it for the pipeline, and
// cancel discards the partial file. Sessions bounded by a maximum duration
// finalize themselves when ffmpeg hits the cap.
package capture
