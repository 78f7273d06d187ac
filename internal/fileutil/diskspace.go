package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Space reports the bytes available to unprivileged callers and the total
// size of the filesystem containing path. When path does not exist yet, the
// nearest existing parent is measured instead so callers can probe
// directories that are created lazily.
func Space(path string) (free, total uint64, err error) {
	probe := path
	for {
		if _, statErr := os.Stat(probe); statErr == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(probe, &stat); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", probe, err)
	}
	return stat.Bavail * uint64(stat.Bsize), stat.Blocks * uint64(stat.Bsize), nil
}

// FreeBytes reports only the available side of Space.
func FreeBytes(path string) (uint64, error) {
	free, _, err := Space(path)
	return free, err
}
