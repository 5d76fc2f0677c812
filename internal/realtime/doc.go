// Package realtime implements the persistent-channel connection core.
//
// The connection core:
//   - Maintains one WebSocket connection per subscriber session
//   - Sends a bare-text keepalive ping on a fixed interval
//   - Recovers abnormal closures with linear backoff, bounded at five attempts
//   - Feeds wire frames and synthesized connection-status frames into a
//     single bounded channel drained by one dispatcher
package realtime
