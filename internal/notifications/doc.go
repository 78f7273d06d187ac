// Package notifications publishes typed workflow events to subscribers.
//
// Components fire events through a single Publish entry point instead of
// formatting messages themselves. The default implementation renders each
// event for ntfy using the topic configured in config.toml, applies the
// per-category preferences and dedup window, and degrades to a no-op when no
// topic is set. Pipeline-internal events (clip detected, capture lifecycle)
// are accepted but never pushed; they exist for the daemon log and future
// in-process subscribers.
//
// Extend this package if you need alternative transports; all workflow code
// depends only on the Service interface.
package notifications
