// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs for every
// daemon operation: queue inspection and maintenance, manual file ingestion,
// play annotation, recording control, storage and health probes, and log
// tailing. The server wraps a daemon instance; the client dials with a short
// timeout so CLI commands fail fast when the daemon is offline.
//
// Reuse these types when adding new RPC endpoints to keep the protocol stable
// and compatible with existing command implementations.
package ipc
