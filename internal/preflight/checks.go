package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"dugout/internal/config"
	"dugout/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is
// readable, writable, and traversable.
func CheckDirectoryAccess(name, path string) Capability {
	c := Capability{Name: name}
	if strings.TrimSpace(path) == "" {
		c.Decision = DecisionUnknown
		c.Detail = "not configured"
		c.Hint = "set the directory under [paths] in config.toml"
		return c
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Decision = DecisionDenied
			c.Detail = fmt.Sprintf("%s does not exist", path)
			c.Hint = "start the daemon once to create it, or mkdir it yourself"
			return c
		}
		c.Decision = DecisionUnknown
		c.Detail = fmt.Sprintf("%s (stat: %v)", path, err)
		return c
	}
	if !info.IsDir() {
		c.Decision = DecisionDenied
		c.Detail = fmt.Sprintf("%s is not a directory", path)
		c.Hint = "point the config at a directory"
		return c
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		c.Decision = DecisionDenied
		c.Detail = fmt.Sprintf("%s (insufficient permissions: %v)", path, err)
		c.Hint = "fix ownership or mode on the directory"
		return c
	}
	c.Decision = DecisionGranted
	c.Detail = fmt.Sprintf("%s (read/write ok)", path)
	return c
}

// checkLibraryDirectory reports library trouble as restricted rather than
// denied: the daemon keeps running while external storage is offline and
// cataloging retries once it returns.
func checkLibraryDirectory(path string) Capability {
	c := CheckDirectoryAccess("Library directory", path)
	if c.Decision == DecisionDenied {
		c.Decision = DecisionRestricted
		c.Hint = "bring the library volume back online; cataloging resumes on its own"
	}
	return c
}

// checkQueueDatabase verifies the queue database file is writable, or that
// its directory will accept the file the store creates on first open.
func checkQueueDatabase(path string) Capability {
	c := Capability{Name: "Queue database"}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.Decision = DecisionUnknown
			c.Detail = fmt.Sprintf("%s (stat: %v)", path, err)
			return c
		}
		if err := unix.Access(filepath.Dir(path), unix.W_OK); err != nil {
			c.Decision = DecisionDenied
			c.Detail = fmt.Sprintf("%s cannot be created (%v)", path, err)
			c.Hint = "fix ownership on the log directory"
			return c
		}
		c.Decision = DecisionGranted
		c.Detail = fmt.Sprintf("%s (created on first start)", path)
		return c
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		c.Decision = DecisionDenied
		c.Detail = fmt.Sprintf("%s (insufficient permissions: %v)", path, err)
		c.Hint = "fix ownership or mode on the queue database"
		return c
	}
	c.Decision = DecisionGranted
	c.Detail = fmt.Sprintf("%s (read/write ok)", path)
	return c
}

// checkCameraDevice reports whether the configured capture device is
// present and readable. Recording is optional, so an absent camera never
// blocks the daemon; the hotplug monitor reports when one attaches.
func checkCameraDevice(device string) Capability {
	c := Capability{Name: "Camera device", Optional: true}
	device = strings.TrimSpace(device)
	if device == "" {
		c.Decision = DecisionUnknown
		c.Detail = "no camera configured"
		c.Hint = "set capture.video_device to enable recording"
		return c
	}
	if _, err := os.Stat(device); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Decision = DecisionRestricted
			c.Detail = fmt.Sprintf("%s not present", device)
			c.Hint = "connect the camera; attach events are picked up automatically"
			return c
		}
		c.Decision = DecisionUnknown
		c.Detail = fmt.Sprintf("%s (stat: %v)", device, err)
		return c
	}
	if err := unix.Access(device, unix.R_OK|unix.W_OK); err != nil {
		c.Decision = DecisionDenied
		c.Detail = fmt.Sprintf("%s (insufficient permissions: %v)", device, err)
		c.Hint = "add your user to the video group and sign in again"
		return c
	}
	c.Decision = DecisionGranted
	c.Detail = device
	return c
}

// mediaToolCapabilities folds the external binary checks into the gate.
func mediaToolCapabilities(cfg *config.Config) []Capability {
	statuses := deps.CheckBinaries(deps.MediaToolRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
	caps := make([]Capability, 0, len(statuses))
	for _, status := range statuses {
		c := Capability{Name: status.Name, Optional: status.Optional}
		if status.Available {
			c.Decision = DecisionGranted
			c.Detail = status.Command
		} else {
			c.Decision = DecisionDenied
			c.Detail = status.Detail
			c.Hint = "install ffmpeg; it ships both binaries"
		}
		caps = append(caps, c)
	}
	return caps
}

// checkNotificationTopic reports whether push notifications are wired up.
func checkNotificationTopic(topic string) Capability {
	c := Capability{Name: "Notifications", Optional: true}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		c.Decision = DecisionUnknown
		c.Detail = "no ntfy topic configured"
		c.Hint = "set notifications.ntfy_topic to receive push alerts"
		return c
	}
	c.Decision = DecisionGranted
	c.Detail = fmt.Sprintf("ntfy topic %q", topic)
	return c
}

// checkStorageHeadroom reports free space on the staging filesystem.
// Low headroom is advisory: recordings and imports warn, queued items
// keep processing, so the decision is restricted rather than denied.
func checkStorageHeadroom(path string, minFree uint64) Capability {
	c := Capability{Name: "Storage headroom"}
	probe, err := ProbeStorage(path)
	if err != nil {
		c.Decision = DecisionUnknown
		c.Detail = fmt.Sprintf("%s (statfs: %v)", path, err)
		return c
	}
	if probe.Low(minFree) {
		c.Decision = DecisionRestricted
		c.Detail = fmt.Sprintf("%s free, below the %s floor", humanize.IBytes(probe.FreeBytes), humanize.IBytes(minFree))
		c.Hint = "free up disk space; new recordings and imports will warn until then"
		return c
	}
	c.Decision = DecisionGranted
	c.Detail = fmt.Sprintf("%s free", humanize.IBytes(probe.FreeBytes))
	return c
}
