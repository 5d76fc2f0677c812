package event

import (
	"encoding/json"
	"time"
)

// Connection status values carried by ConnectionPayload.
const (
	StatusConnecting   = "connecting"
	StatusOpen         = "open"
	StatusReconnecting = "reconnecting"
	StatusFailed       = "failed"
	StatusClosed       = "closed"
)

// ReasonMaxAttempts is the failure reason reported after exhausting
// the reconnect budget.
const ReasonMaxAttempts = "max reconnect attempts exceeded"

// EncodeConnectionFrame builds a wire-shaped frame for a local connection
// status change. The connection manager injects these into the same frame
// stream as server events so listeners observe them in arrival order.
func EncodeConnectionFrame(status, reason string, at time.Time) []byte {
	data, _ := json.Marshal(ConnectionPayload{Status: status, Reason: reason})
	frame, _ := json.Marshal(envelope{
		Type:      string(KindConnection),
		Data:      data,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
	return frame
}
