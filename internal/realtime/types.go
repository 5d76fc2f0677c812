package realtime

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotOpen       = errors.New("transport not open")
	ErrAlreadyClosed = errors.New("already closed")
	ErrSessionClosed = errors.New("session closed")
)

// Frame is a raw frame handed to the dispatcher, either received from the
// wire or synthesized locally for connection status changes.
type Frame struct {
	Data       []byte    // Raw frame bytes
	ReceivedAt time.Time // Local timestamp when the frame arrived
}

// State is the connection session state.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateOpen         State = "open"
	StateReconnecting State = "reconnecting"
	StateFailed       State = "failed" // terminal: reconnect budget exhausted
	StateClosed       State = "closed" // terminal: deliberate disconnect
)

// TransportConfig configures a single WebSocket transport.
type TransportConfig struct {
	URL               string        // Realtime endpoint including subscriber path
	KeepaliveInterval time.Duration // Interval between bare "ping" frames
	SendTimeout       time.Duration // Write deadline for sends
	HandshakeTimeout  time.Duration // Dial handshake timeout
	BufferSize        int           // Frame channel buffer size
}

// Config configures a connection Manager.
type Config struct {
	BaseURL      string // REST base address the channel scheme derives from
	RealtimePath string // Channel path prefix, subscriber id is appended

	KeepaliveInterval    time.Duration
	ReconnectBaseDelay   time.Duration // Delay for attempt N is base × N
	MaxReconnectAttempts int
	FrameBufferSize      int
	SendTimeout          time.Duration
	HandshakeTimeout     time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RealtimePath:         "/live",
		KeepaliveInterval:    30 * time.Second,
		ReconnectBaseDelay:   3 * time.Second,
		MaxReconnectAttempts: 5,
		FrameBufferSize:      256,
		SendTimeout:          5 * time.Second,
		HandshakeTimeout:     10 * time.Second,
	}
}
