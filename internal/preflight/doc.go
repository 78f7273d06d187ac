// Package preflight evaluates the capabilities Dugout needs before it
// records, imports, or processes clips.
//
// Every check resolves to one of four decisions: granted, denied,
// restricted, or unknown. Denied means the capability is affirmatively
// blocked and carries a remediation hint; restricted means the daemon can
// run but the capability is degraded (library storage offline, low disk
// headroom); unknown means the capability is unconfigured or could not be
// determined.
//
// The gate runs in two contexts:
//   - The daemon evaluates it at startup, logs every capability, and
//     refuses to start only when a required capability is denied.
//   - The CLI "dugout status" command renders the same report so an
//     operator sees exactly what the daemon saw.
package preflight
