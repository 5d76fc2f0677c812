package realtime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ivylane/studio-live/internal/event"
)

func testManagerConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.ReconnectBaseDelay = 5 * time.Millisecond
	cfg.KeepaliveInterval = time.Minute
	return cfg
}

// waitForState polls until the manager reaches want or the deadline passes.
func waitForState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", m.State(), want)
}

// drainStatuses consumes frames until the deadline, returning the connection
// statuses seen and any wire frames as raw bytes.
func drainStatuses(m *Manager, d time.Duration) (statuses []string, wire [][]byte) {
	deadline := time.After(d)
	for {
		select {
		case fr := <-m.Frames():
			msg, err := event.Parse(fr.Data, fr.ReceivedAt)
			if err != nil {
				continue
			}
			if p, ok := msg.Payload.(event.ConnectionPayload); ok {
				statuses = append(statuses, p.Status)
			} else {
				wire = append(wire, fr.Data)
			}
		case <-deadline:
			return statuses, wire
		}
	}
}

func TestManager_ConnectDeliversWireFrames(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"student_created","data":{"student":{"name":"Ana"}},"user_name":"Bob","timestamp":"2024-01-01T00:00:00Z"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	m := NewManager(testManagerConfig(server.URL), nil)
	if err := m.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer m.Disconnect()

	statuses, wire := drainStatuses(m, 500*time.Millisecond)

	if len(wire) != 1 {
		t.Fatalf("wire frames = %d, want 1", len(wire))
	}
	msg, err := event.Parse(wire[0], time.Now())
	if err != nil {
		t.Fatalf("parse wire frame: %v", err)
	}
	if msg.Kind != event.KindStudentCreated {
		t.Errorf("kind = %s, want %s", msg.Kind, event.KindStudentCreated)
	}

	// Session statuses precede the wire frame: connecting, then open.
	if len(statuses) < 2 || statuses[0] != event.StatusConnecting || statuses[1] != event.StatusOpen {
		t.Errorf("statuses = %v, want [connecting open ...]", statuses)
	}
}

func TestManager_SendLifecycle(t *testing.T) {
	received := make(chan string, 8)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(data)
		}
	})
	defer server.Close()

	m := NewManager(testManagerConfig(server.URL), nil)

	if ok := m.Send(map[string]string{"hello": "world"}); ok {
		t.Error("Send before Connect should return false")
	}

	if err := m.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if ok := m.Send(map[string]string{"hello": "world"}); !ok {
		t.Error("Send while Open should return true")
	}

	select {
	case got := <-received:
		if got != `{"hello":"world"}` {
			t.Errorf("server received %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the message")
	}

	m.Disconnect()

	if ok := m.Send(map[string]string{"hello": "again"}); ok {
		t.Error("Send after Disconnect should return false")
	}
}

func TestManager_DisconnectIsTerminal(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	m := NewManager(testManagerConfig(server.URL), nil)
	if err := m.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	m.Disconnect()
	if m.State() != StateClosed {
		t.Errorf("state = %s, want closed", m.State())
	}

	if err := m.Connect(context.Background(), "u1"); err != ErrSessionClosed {
		t.Errorf("Connect after Disconnect = %v, want ErrSessionClosed", err)
	}

	// Closed is quiet: no reconnect fires later.
	time.Sleep(50 * time.Millisecond)
	if m.State() != StateClosed {
		t.Errorf("state drifted to %s after Disconnect", m.State())
	}
}

func TestManager_ConnectIsIdempotent(t *testing.T) {
	var conns atomic.Int32
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conns.Add(1)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	m := NewManager(testManagerConfig(server.URL), nil)
	defer m.Disconnect()

	if err := m.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("first Connect failed: %v", err)
	}
	if err := m.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("second Connect failed: %v", err)
	}

	waitForState(t, m, StateOpen)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && conns.Load() < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	if got := conns.Load(); got != 2 {
		t.Errorf("server connections = %d, want 2 (old transport torn down, new one dialed)", got)
	}
}

func TestManager_ReconnectsAfterAbnormalClose(t *testing.T) {
	var conns atomic.Int32
	server := mockWSServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)
		if n <= 3 {
			// First three sessions drop without a close handshake.
			conn.UnderlyingConn().Close()
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	m := NewManager(testManagerConfig(server.URL), nil)
	defer m.Disconnect()

	if err := m.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	waitForState(t, m, StateOpen)

	// Attempt 4 succeeded, so the consecutive-failure counter is reset.
	if got := m.Attempts(); got != 0 {
		t.Errorf("attempts = %d, want 0 after successful reconnect", got)
	}
	if got := conns.Load(); got != 4 {
		t.Errorf("server connections = %d, want 4", got)
	}
}

// failingTransport always fails to connect. It lets tests count dial
// attempts without a network.
type failingTransport struct {
	dials  *atomic.Int32
	frames chan Frame
	errors chan error
}

func (f *failingTransport) Connect(ctx context.Context) error {
	f.dials.Add(1)
	return context.DeadlineExceeded
}
func (f *failingTransport) Close() error         { return nil }
func (f *failingTransport) Send(b []byte) error  { return ErrNotOpen }
func (f *failingTransport) Frames() <-chan Frame { return f.frames }
func (f *failingTransport) Errors() <-chan error { return f.errors }
func (f *failingTransport) IsOpen() bool         { return false }

func TestManager_FailsAfterMaxAttempts(t *testing.T) {
	cfg := testManagerConfig("https://studio.example.com")
	cfg.ReconnectBaseDelay = time.Millisecond

	m := NewManager(cfg, nil)

	var dials atomic.Int32
	m.newTransport = func(TransportConfig) Transport {
		return &failingTransport{dials: &dials, frames: make(chan Frame), errors: make(chan error, 1)}
	}

	if err := m.Connect(context.Background(), "u1"); err == nil {
		t.Fatal("Connect should surface the first dial error")
	}

	waitForState(t, m, StateFailed)

	// Give a would-be sixth attempt time to fire; it must not.
	time.Sleep(50 * time.Millisecond)

	if got := dials.Load(); got != 5 {
		t.Errorf("dial attempts = %d, want exactly 5", got)
	}
	if m.State() != StateFailed {
		t.Errorf("state = %s, want failed", m.State())
	}

	statuses, _ := drainStatuses(m, 50*time.Millisecond)
	failed := 0
	for _, s := range statuses {
		if s == event.StatusFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("failed status events = %d, want exactly 1 (statuses: %v)", failed, statuses)
	}
}

func TestManager_FirstDialFailureRecovers(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	cfg := testManagerConfig(server.URL)
	m := NewManager(cfg, nil)

	// First dial fails, every later dial reaches the real server.
	var dials atomic.Int32
	var ignored atomic.Int32
	m.newTransport = func(tc TransportConfig) Transport {
		if dials.Add(1) == 1 {
			return &failingTransport{dials: &ignored, frames: make(chan Frame), errors: make(chan error, 1)}
		}
		return NewTransport(tc, nil)
	}

	// The error surfaces for visibility, but the session is not dead.
	if err := m.Connect(context.Background(), "u1"); err == nil {
		t.Fatal("first dial error should surface from Connect")
	}
	defer m.Disconnect()

	waitForState(t, m, StateOpen)

	if got := m.Attempts(); got != 0 {
		t.Errorf("attempts = %d, want 0 after recovery", got)
	}
	if got := dials.Load(); got != 2 {
		t.Errorf("dials = %d, want 2 (failed first, recovered second)", got)
	}
}

func TestManager_FailedStatusSurvivesFullBuffer(t *testing.T) {
	cfg := testManagerConfig("https://studio.example.com")
	cfg.ReconnectBaseDelay = time.Millisecond
	cfg.FrameBufferSize = 2 // too small for the full status sequence

	m := NewManager(cfg, nil)

	var dials atomic.Int32
	m.newTransport = func(TransportConfig) Transport {
		return &failingTransport{dials: &dials, frames: make(chan Frame), errors: make(chan error, 1)}
	}

	m.Connect(context.Background(), "u1")

	// Nobody drains the frame channel until the session is terminal, so
	// intermediate statuses overflow the buffer along the way.
	waitForState(t, m, StateFailed)

	statuses, _ := drainStatuses(m, 50*time.Millisecond)
	failed := 0
	for _, s := range statuses {
		if s == event.StatusFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("failed status events = %d, want exactly 1 (statuses: %v)", failed, statuses)
	}
	if len(statuses) == 0 || statuses[len(statuses)-1] != event.StatusFailed {
		t.Errorf("last status = %v, want failed", statuses)
	}
}

func TestManager_DisconnectCancelsPendingReconnect(t *testing.T) {
	cfg := testManagerConfig("https://studio.example.com")
	cfg.ReconnectBaseDelay = time.Hour // pending timer must be cancelled, not fired

	m := NewManager(cfg, nil)

	var dials atomic.Int32
	m.newTransport = func(TransportConfig) Transport {
		return &failingTransport{dials: &dials, frames: make(chan Frame), errors: make(chan error, 1)}
	}

	m.Connect(context.Background(), "u1")
	waitForState(t, m, StateReconnecting)

	m.Disconnect()
	if m.State() != StateClosed {
		t.Errorf("state = %s, want closed", m.State())
	}
	if got := dials.Load(); got != 1 {
		t.Errorf("dial attempts = %d, want 1 (reconnect cancelled)", got)
	}
}

func TestManager_BackoffDelayIsLinear(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReconnectBaseDelay = 3000 * time.Millisecond
	m := NewManager(cfg, nil)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 3000 * time.Millisecond},
		{2, 6000 * time.Millisecond},
		{3, 9000 * time.Millisecond},
		{4, 12000 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := m.backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
