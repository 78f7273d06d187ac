// Package api defines wire-format types and converters for the IPC layer. It
// translates internal queue, capture, and preflight models into
// transport-friendly DTOs so the CLI can render daemon state without coupling
// to internal types.
//
// # Key Types
//
// QueueItem: transport representation of a queue entry with progress,
// annotation fields, and produced artifact paths.
//
// WorkflowStatus: daemon running state, queue stats, stage health, last item.
//
// DaemonStatus: aggregated runtime information including the permission gate
// and external tool availability.
//
// # Converters
//
// FromQueueItem: queue.Item -> QueueItem with lane derivation and timestamp
// formatting. FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
// FromGateReport / FromDependencyStatuses / FromCaptureStatus /
// FromStorageProbe cover the remaining daemon surfaces.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (queue.Status, queue.Origin,
// queue.ProcessingLane, preflight.Decision) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds.
package api
