package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeValidation()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ImportDir) != "" {
		if c.Paths.ImportDir, err = expandPath(c.Paths.ImportDir); err != nil {
			return fmt.Errorf("paths.import_dir: %w", err)
		}
	} else {
		c.Paths.ImportDir = ""
	}
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.VideoDevice = strings.TrimSpace(c.Capture.VideoDevice)
	if c.Capture.VideoDevice == "" {
		if value, ok := os.LookupEnv("DUGOUT_VIDEO_DEVICE"); ok && strings.TrimSpace(value) != "" {
			c.Capture.VideoDevice = strings.TrimSpace(value)
		} else {
			c.Capture.VideoDevice = defaultVideoDevice
		}
	}
	c.Capture.QualityPreset = strings.ToLower(strings.TrimSpace(c.Capture.QualityPreset))
	if c.Capture.QualityPreset == "" {
		c.Capture.QualityPreset = defaultQualityPreset
	}
	if c.Capture.Framerate <= 0 {
		c.Capture.Framerate = defaultFramerate
	}
	c.Capture.Container = strings.ToLower(strings.TrimSpace(c.Capture.Container))
	if c.Capture.Container == "" {
		c.Capture.Container = defaultContainer
	}
	if c.Capture.MaxClipSeconds <= 0 {
		c.Capture.MaxClipSeconds = defaultMaxClipSeconds
	}
}

func (c *Config) normalizeValidation() {
	if c.Validation.MaxFileSizeMB <= 0 {
		c.Validation.MaxFileSizeMB = defaultMaxFileSizeMB
	}
	if c.Validation.MaxDurationSeconds <= 0 {
		c.Validation.MaxDurationSeconds = defaultMaxDurationSeconds
	}
	if c.Validation.MinFreeSpaceMB < 0 {
		c.Validation.MinFreeSpaceMB = defaultMinFreeSpaceMB
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("DUGOUT_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		c.Notifications.DedupWindowSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if len(c.Logging.StageOverrides) > 0 {
		normalized := make(map[string]string, len(c.Logging.StageOverrides))
		for stage, level := range c.Logging.StageOverrides {
			stage = strings.ToLower(strings.TrimSpace(stage))
			level = strings.ToLower(strings.TrimSpace(level))
			if stage == "" || level == "" {
				continue
			}
			normalized[stage] = level
		}
		c.Logging.StageOverrides = normalized
	}
}
