package stage

import (
	"strings"

	"dugout/internal/media/ffprobe"
	"dugout/internal/services"
)

// ParseMediaInfo decodes the ffprobe payload a prior stage stored on the
// queue item. An empty payload yields a zero result; a corrupt one returns a
// services.ErrValidation suitable for stage Execute methods.
func ParseMediaInfo(raw string) (ffprobe.Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ffprobe.Result{}, nil
	}
	result, err := ffprobe.Parse([]byte(raw))
	if err != nil {
		return ffprobe.Result{}, services.Wrap(
			services.ErrValidation, "stage", "parse media info",
			"Stored media info is invalid; rerun validation", err)
	}
	return result, nil
}
