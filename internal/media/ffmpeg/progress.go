package ffmpeg

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// parseProgress consumes "-progress pipe:1" output: key=value lines grouped
// into blocks terminated by a progress= line. fn runs once per block.
func parseProgress(r io.Reader, durationHint float64, fn func(ProgressUpdate)) error {
	scanner := bufio.NewScanner(r)
	var current ProgressUpdate
	current.Percent = -1
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "out_time_us", "out_time_ms":
			// Both report microseconds; out_time_ms is a historic misnomer.
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				current.OutTime = time.Duration(us) * time.Microsecond
			}
		case "out_time":
			if current.OutTime == 0 {
				current.OutTime = parseClockTime(value)
			}
		case "total_size":
			if size, err := strconv.ParseInt(value, 10, 64); err == nil {
				current.SizeBytes = size
			}
		case "speed":
			trimmed := strings.TrimSuffix(value, "x")
			if speed, err := strconv.ParseFloat(trimmed, 64); err == nil {
				current.Speed = speed
			}
		case "progress":
			if durationHint > 0 {
				percent := current.OutTime.Seconds() / durationHint * 100
				if percent > 100 {
					percent = 100
				}
				if percent < 0 {
					percent = 0
				}
				current.Percent = percent
			}
			if value == "end" && durationHint > 0 {
				current.Percent = 100
			}
			if fn != nil {
				fn(current)
			}
			current = ProgressUpdate{Percent: -1}
		}
	}
	return scanner.Err()
}

// parseClockTime parses ffmpeg's HH:MM:SS.micro representation.
func parseClockTime(value string) time.Duration {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	total += time.Duration(seconds * float64(time.Second))
	return total
}
