package preflight

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"dugout/internal/fileutil"
)

// StorageProbe is a free-space snapshot of the filesystem backing a path.
type StorageProbe struct {
	Path       string
	FreeBytes  uint64
	TotalBytes uint64
}

// ProbeStorage inspects the filesystem behind path. Missing paths resolve to
// the nearest existing parent so headroom can be measured before the staging
// tree is created.
func ProbeStorage(path string) (StorageProbe, error) {
	free, total, err := fileutil.Space(path)
	if err != nil {
		return StorageProbe{Path: path}, err
	}
	return StorageProbe{Path: path, FreeBytes: free, TotalBytes: total}, nil
}

// Low reports whether free space sits below the given floor in bytes.
func (p StorageProbe) Low(minFree uint64) bool {
	return p.FreeBytes < minFree
}

// Detail renders a display-friendly summary for status UIs.
func (p StorageProbe) Detail() string {
	return fmt.Sprintf("%s free of %s on %s", humanize.IBytes(p.FreeBytes), humanize.IBytes(p.TotalBytes), p.Path)
}
