// Package logs provides file tailing and offset helpers shared by the CLI and
// daemon diagnostics.
//
// It reads log files with bounded memory, supports negative offsets for
// "last N lines" requests, and powers follow mode for `dugout logs --follow`.
// Callers keep the returned offset and pass it back on the next call, so a
// follow loop never re-reads what it already delivered. Context deadlines
// bound the polling so the CLI exits cleanly.
package logs
