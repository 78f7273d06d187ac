// Package validation implements the first pipeline stage. It confirms the
// source file exists and fits the configured size and duration ceilings,
// probes it with ffprobe to persist stream metadata for later stages, and
// checks the trim window against the real duration. Low storage is reported
// as a warning only; it never blocks a clip.
package validation
