// Package fallback implements the degraded-mode poller.
//
// The poller:
//   - Activates when the realtime session gives up reconnecting
//   - Bumps the refresh signal immediately, then on a fixed interval
//   - Optionally probes the REST API before each bump
//   - Is idempotent: repeated Activate calls keep a single loop
package fallback
