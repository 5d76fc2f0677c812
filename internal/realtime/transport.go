package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ivylane/studio-live/internal/event"
)

// Transport is a single WebSocket connection to the studio server.
type Transport interface {
	// Connect establishes the WebSocket connection.
	Connect(ctx context.Context) error

	// Close gracefully closes the connection.
	Close() error

	// Send writes raw bytes to the connection.
	Send(data []byte) error

	// Frames returns a channel of raw inbound frames, each stamped with a
	// local receive timestamp.
	Frames() <-chan Frame

	// Errors returns a channel of transport errors. An error here means the
	// connection is gone.
	Errors() <-chan error

	// IsOpen returns current connection state.
	IsOpen() bool
}

// transport implements the Transport interface.
type transport struct {
	cfg    TransportConfig
	logger *slog.Logger

	conn *websocket.Conn

	// Output channels
	frames chan Frame
	errors chan error
	done   chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// State
	mu     sync.RWMutex
	open   bool
	closed bool
}

// NewTransport creates a new WebSocket transport.
func NewTransport(cfg TransportConfig, logger *slog.Logger) Transport {
	if logger == nil {
		logger = slog.Default()
	}

	return &transport{
		cfg:    cfg,
		logger: logger,
		frames: make(chan Frame, cfg.BufferSize),
		errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection.
func (t *transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrAlreadyClosed
	}
	t.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: t.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, t.cfg.URL, nil)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.open = true
	t.mu.Unlock()

	go t.readLoop()
	go t.keepaliveLoop()

	t.logger.Debug("websocket connected", "url", t.cfg.URL)

	return nil
}

// Close gracefully closes the connection.
func (t *transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.open = false
	conn := t.conn
	t.mu.Unlock()

	// Signal goroutines to stop
	close(t.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}

	return nil
}

// Send writes raw bytes to the connection.
func (t *transport) Send(data []byte) error {
	t.mu.RLock()
	if !t.open {
		t.mu.RUnlock()
		return ErrNotOpen
	}
	conn := t.conn
	t.mu.RUnlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(t.cfg.SendTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Frames returns the frames channel.
func (t *transport) Frames() <-chan Frame {
	return t.frames
}

// Errors returns the errors channel.
func (t *transport) Errors() <-chan error {
	return t.errors
}

// IsOpen returns the current connection state.
func (t *transport) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.open
}

// readLoop reads frames from the WebSocket and sends them to the frames
// channel. The channel is closed when the loop exits so consumers see EOF.
func (t *transport) readLoop() {
	defer func() {
		t.mu.Lock()
		t.open = false
		t.mu.Unlock()
		close(t.frames)
	}()

	for {
		select {
		case <-t.done:
			return
		default:
		}

		_, data, err := t.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			// Ignore errors after Close() is called
			select {
			case <-t.done:
				return
			default:
				select {
				case t.errors <- err:
				default:
				}
				return
			}
		}

		select {
		case t.frames <- Frame{Data: data, ReceivedAt: receivedAt}:
		case <-t.done:
			return
		default:
			t.logger.Warn("frame buffer full, dropping frame")
		}
	}
}

// keepaliveLoop sends the protocol's bare "ping" text frame on a fixed
// interval while the connection is open. The server's "pong" reply is
// swallowed by the dispatcher; a missing reply is not treated as a failure
// signal, only transport-level closure is.
func (t *transport) keepaliveLoop() {
	ticker := time.NewTicker(t.cfg.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if err := t.Send([]byte(event.PingFrame)); err != nil {
				t.logger.Debug("failed to send keepalive ping", "error", err)
			}
		}
	}
}
