package deps

// MediaToolRequirements returns the ffmpeg toolchain the pipeline shells
// out to: ffmpeg for recording, trims, and thumbnails; ffprobe for
// validation probes. The daemon and the CLI status command share this
// list so the two never disagree about what must be installed.
func MediaToolRequirements(ffmpegCommand, ffprobeCommand string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpegCommand,
			Description: "Required for recording, trims, and thumbnails",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobeCommand,
			Description: "Required for clip validation probes",
		},
	}
}
