// Package workflow advances queue items through the configured processing
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (validator, exporter, cataloger,
// thumbnailer) while capturing progress and failure metadata. It also
// aggregates queue stats, calls stage health checks, and emits queue-level
// notifications when processing starts or completes.
//
// The workflow runs two independent lanes: foreground (validation, export,
// cataloging) and background (thumbnailing). Each lane polls for items
// matching its statuses and processes them independently, so a freshly
// captured clip can validate while an earlier one waits on its thumbnail.
// Thumbnailing sits in the background lane precisely because it is
// best-effort: the clip is already permanent when the lane picks it up.
//
// Failures route by kind: user-fixable problems (validation, configuration,
// not-found, permission) park the item in review with a reason; tool and
// persistence failures mark it failed for retry. Add new lifecycle stages by
// extending StageSet, updating the queue status enums, and teaching the
// manager how to transition items; this package is the authoritative home
// for that coordination logic.
package workflow
