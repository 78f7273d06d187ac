package config

const (
	defaultStagingDir       = "~/.local/share/dugout/staging"
	defaultLibraryDir       = "~/clips"
	defaultLogDir           = "~/.local/share/dugout/logs"
	defaultLogRetentionDays = 60
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	defaultVideoDevice    = "/dev/video0"
	defaultQualityPreset  = "medium"
	defaultFramerate      = 30
	defaultContainer      = "mp4"
	defaultMaxClipSeconds = 600

	defaultMaxFileSizeMB      = 500
	defaultMaxDurationSeconds = 600
	defaultMinFreeSpaceMB     = 500

	defaultNotifyRequestTimeout     = 10
	defaultNotifyDedupWindowSeconds = 600

	defaultWorkflowQueuePollInterval   = 5
	defaultWorkflowErrorRetryInterval  = 10
	defaultWorkflowHeartbeatInterval   = 15
	defaultWorkflowHeartbeatTimeout    = 120
	defaultWorkflowImportPollInterval  = 5
	defaultWorkflowStagingMaxAgeHours  = 48
	defaultWorkflowCleanupSweepMinutes = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Capture: Capture{
			VideoDevice:    defaultVideoDevice,
			QualityPreset:  defaultQualityPreset,
			Framerate:      defaultFramerate,
			Container:      defaultContainer,
			MaxClipSeconds: defaultMaxClipSeconds,
		},
		Validation: Validation{
			MaxFileSizeMB:      defaultMaxFileSizeMB,
			MaxDurationSeconds: defaultMaxDurationSeconds,
			MinFreeSpaceMB:     defaultMinFreeSpaceMB,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestTimeout,
			Queue:              true,
			Catalog:            true,
			Review:             true,
			Storage:            true,
			Errors:             true,
			DedupWindowSeconds: defaultNotifyDedupWindowSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:   defaultWorkflowQueuePollInterval,
			ErrorRetryInterval:  defaultWorkflowErrorRetryInterval,
			HeartbeatInterval:   defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:    defaultWorkflowHeartbeatTimeout,
			ImportPollInterval:  defaultWorkflowImportPollInterval,
			StagingMaxAgeHours:  defaultWorkflowStagingMaxAgeHours,
			CleanupSweepMinutes: defaultWorkflowCleanupSweepMinutes,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
