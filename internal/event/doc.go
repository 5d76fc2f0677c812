// Package event defines the typed event model for the realtime channel.
//
// The event model:
//   - Enumerates the fixed set of change-notification kinds
//   - Decodes the wire envelope {type, data, user_name, timestamp}
//   - Carries kind-specific payloads as a closed union
//   - Marks which kinds require consumers to refetch from the REST API
//   - Synthesizes local connection-status events never seen on the wire
package event
