// Package dispatch implements the listener registry and message dispatcher.
//
// The dispatcher:
//   - Drains the session frame channel with a single goroutine
//   - Swallows the bare ping/pong control frames before classification
//   - Drops undecodable frames with a log line, never fatally
//   - Invokes specific-kind listeners before wildcard listeners, both in
//     registration order
//   - Isolates listener panics so one consumer cannot break another
package dispatch
