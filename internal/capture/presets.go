package capture

import (
	"fmt"
	"sort"
	"strings"
)

// preset maps a quality name onto concrete encoder settings. Live capture
// favors fast x264 speed settings so a modest machine keeps up with the
// camera; quality is traded through CRF.
type preset struct {
	VideoSize string
	CRF       int
	X264Speed string
}

var presets = map[string]preset{
	"low":    {VideoSize: "1280x720", CRF: 28, X264Speed: "superfast"},
	"medium": {VideoSize: "1920x1080", CRF: 23, X264Speed: "veryfast"},
	"high":   {VideoSize: "1920x1080", CRF: 18, X264Speed: "fast"},
}

// PresetNames returns the known quality presets in stable order for CLI help.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resolvePreset(name string) (preset, string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	p, ok := presets[normalized]
	if !ok {
		return preset{}, "", fmt.Errorf("unknown quality preset %q (choose from %s)", name, strings.Join(PresetNames(), ", "))
	}
	return p, normalized, nil
}
