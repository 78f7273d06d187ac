package config

import (
	"errors"
	"fmt"
)

var validQualityPresets = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
}

var validContainers = map[string]struct{}{
	"mp4": {},
	"mkv": {},
	"mov": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.ImportDir != "" && c.Paths.ImportDir == c.Paths.StagingDir {
		return errors.New("paths.import_dir must differ from paths.staging_dir")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if _, ok := validQualityPresets[c.Capture.QualityPreset]; !ok {
		return fmt.Errorf("capture.quality_preset must be one of low, medium, high (got %q)", c.Capture.QualityPreset)
	}
	if _, ok := validContainers[c.Capture.Container]; !ok {
		return fmt.Errorf("capture.container must be one of mp4, mkv, mov (got %q)", c.Capture.Container)
	}
	if c.Capture.MaxClipSeconds > c.Validation.MaxDurationSeconds {
		return errors.New("capture.max_clip_seconds must not exceed validation.max_duration_seconds")
	}
	return nil
}

func (c *Config) validateValidation() error {
	return ensurePositiveMap(map[string]int{
		"validation.max_file_size_mb":     c.Validation.MaxFileSizeMB,
		"validation.max_duration_seconds": c.Validation.MaxDurationSeconds,
		"capture.framerate":               c.Capture.Framerate,
		"capture.max_clip_seconds":        c.Capture.MaxClipSeconds,
	})
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":   c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval":  c.Workflow.ErrorRetryInterval,
		"workflow.import_poll_interval":  c.Workflow.ImportPollInterval,
		"workflow.staging_max_age_hours": c.Workflow.StagingMaxAgeHours,
		"workflow.cleanup_sweep_minutes": c.Workflow.CleanupSweepMinutes,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
