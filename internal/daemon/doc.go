// Package daemon coordinates the long-running Dugout process and system
// integration points.
//
// It wires configuration, the queue and library stores, the workflow manager,
// the camera and import monitors, and the staging sweeper into a single
// lifecycle with flock-based locking to prevent multiple instances. The daemon
// exposes queue maintenance helpers, manages manual file ingestion and
// annotations, owns the recording session, and emits capability and storage
// summaries for status displays.
//
// Keep orchestration logic here: individual workflow steps should live in
// their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
