// Package notify implements the notification presenter.
//
// The presenter:
//   - Subscribes to the wildcard channel
//   - Renders human-readable text per kind, with a generic fallback
//   - Keeps a bounded history (oldest evicted first)
//   - Expires each notice after a fixed display duration
//   - Bumps the shared refresh signal for refresh-triggering kinds
package notify
