// Package ffmpeg wraps the ffmpeg binary for the three jobs dugout needs:
// stream-copy trims, single-frame thumbnails, and live camera capture.
//
// Trim and Thumbnail are one-shot calls. StartRecording returns a Recording
// session whose Stop finalizes the file and whose Cancel discards it; the
// capture stage layers start/stop semantics on top. Progress comes from
// ffmpeg's "-progress pipe:1" key=value stream, parsed into ProgressUpdate
// values.
//
// Failed or cancelled trims never leave partial output behind.
package ffmpeg
