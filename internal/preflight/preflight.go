package preflight

import (
	"dugout/internal/config"
)

// Decision is the outcome of a single capability check.
type Decision string

const (
	DecisionGranted    Decision = "granted"
	DecisionDenied     Decision = "denied"
	DecisionRestricted Decision = "restricted"
	DecisionUnknown    Decision = "unknown"
)

// Capability reports the decision for one gate check. Hint is only set
// when there is a concrete remediation the operator can take.
type Capability struct {
	Name     string
	Decision Decision
	Detail   string
	Hint     string
	Optional bool
}

// Report holds a full gate evaluation in display order.
type Report struct {
	Capabilities []Capability
}

// Blockers returns the required capabilities that were denied.
func (r Report) Blockers() []Capability {
	var blocked []Capability
	for _, c := range r.Capabilities {
		if c.Decision == DecisionDenied && !c.Optional {
			blocked = append(blocked, c)
		}
	}
	return blocked
}

// Ready reports whether the daemon may start. Restricted and unknown
// capabilities never block startup; only a denied required one does.
func (r Report) Ready() bool {
	return len(r.Blockers()) == 0
}

// Find returns the named capability from the report.
func (r Report) Find(name string) (Capability, bool) {
	for _, c := range r.Capabilities {
		if c.Name == name {
			return c, true
		}
	}
	return Capability{}, false
}

// Gate evaluates capability checks against a single configuration. It is
// constructed once and handed to whoever needs the report; it keeps no
// state between evaluations.
type Gate struct {
	cfg *config.Config
}

// NewGate returns a gate bound to cfg.
func NewGate(cfg *config.Config) *Gate {
	return &Gate{cfg: cfg}
}

// Evaluate runs every capability check and returns the report in display
// order. Directory checks expect the directories to already exist; the
// daemon calls EnsureDirectories before evaluating.
func (g *Gate) Evaluate() Report {
	if g == nil || g.cfg == nil {
		return Report{}
	}
	cfg := g.cfg

	caps := []Capability{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		checkLibraryDirectory(cfg.Paths.LibraryDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		checkQueueDatabase(cfg.QueueDatabasePath()),
	}
	caps = append(caps, mediaToolCapabilities(cfg)...)
	caps = append(caps,
		checkCameraDevice(cfg.Capture.VideoDevice),
		checkNotificationTopic(cfg.Notifications.NtfyTopic),
		checkStorageHeadroom(cfg.Paths.StagingDir, cfg.MinFreeSpaceBytes()),
	)
	return Report{Capabilities: caps}
}
