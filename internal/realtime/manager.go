package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ivylane/studio-live/internal/event"
)

// Manager owns one subscriber's session with the realtime channel: connect,
// keepalive, bounded reconnect, clean shutdown.
//
// The Manager only manages the transport. Listener registrations live in the
// dispatch registry, which survives reconnect cycles untouched.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	// newTransport is swappable in tests.
	newTransport func(TransportConfig) Transport

	// frames carries wire frames and synthesized connection-status frames
	// to the single dispatcher, in arrival order. It stays open for the
	// lifetime of the Manager so the registry survives reconnects.
	frames chan Frame

	mu             sync.Mutex
	state          State
	attempts       int // consecutive abnormal closures since last Open
	gen            int // session generation, invalidates stale callbacks
	subscriberID   string
	endpoint       string
	transport      Transport
	reconnectTimer *time.Timer
	dialCtx        context.Context
}

// NewManager creates a Manager for the given configuration.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		cfg:          cfg,
		logger:       logger,
		newTransport: func(tc TransportConfig) Transport { return NewTransport(tc, logger) },
		frames:       make(chan Frame, cfg.FrameBufferSize),
		state:        StateIdle,
	}
}

// Frames returns the channel the dispatcher drains. One consumer only;
// dispatch of a frame completes before the next is read.
func (m *Manager) Frames() <-chan Frame {
	return m.frames
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the count of consecutive abnormal closures.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Connect opens the channel for the given subscriber. It is idempotent: an
// existing transport is torn down first and a fresh one dialed. ctx governs
// dials for the whole session, including reconnect attempts.
//
// A dial error is returned for visibility only; the reconnect schedule is
// already running and the session recovers (or fails terminally) on its own.
// Callers must not treat the error as the end of the session.
func (m *Manager) Connect(ctx context.Context, subscriberID string) error {
	endpoint, err := EndpointURL(m.cfg.BaseURL, m.cfg.RealtimePath, subscriberID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return ErrSessionClosed
	}

	// Tear down any live session state before dialing fresh.
	m.gen++
	gen := m.gen
	m.stopReconnectTimerLocked()
	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
	}

	m.subscriberID = subscriberID
	m.endpoint = endpoint
	m.dialCtx = ctx
	m.attempts = 0
	m.setStateLocked(StateConnecting, "")
	m.mu.Unlock()

	return m.dial(gen)
}

// Disconnect deliberately closes the session. All timers are cancelled and
// no reconnect is attempted. The state is terminal; listener registrations
// are left to their owner.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}

	m.gen++
	m.stopReconnectTimerLocked()
	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
	}
	m.setStateLocked(StateClosed, "")
	m.mu.Unlock()

	m.logger.Info("realtime session closed", "subscriber", m.subscriberID)
}

// Send marshals v and writes it to the channel, best-effort. It returns
// false (and logs) when the transport is not open; it never panics and
// never surfaces an error to the caller.
func (m *Manager) Send(v any) bool {
	m.mu.Lock()
	t := m.transport
	state := m.state
	m.mu.Unlock()

	if state != StateOpen || t == nil {
		m.logger.Debug("send dropped, channel not open", "state", state)
		return false
	}

	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Warn("send dropped, marshal failed", "error", err)
		return false
	}

	if err := t.Send(data); err != nil {
		m.logger.Debug("send failed", "error", err)
		return false
	}
	return true
}

// dial opens a transport for the current session generation.
func (m *Manager) dial(gen int) error {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return nil
	}
	tc := TransportConfig{
		URL:               m.endpoint,
		KeepaliveInterval: m.cfg.KeepaliveInterval,
		SendTimeout:       m.cfg.SendTimeout,
		HandshakeTimeout:  m.cfg.HandshakeTimeout,
		BufferSize:        m.cfg.FrameBufferSize,
	}
	t := m.newTransport(tc)
	m.transport = t
	ctx := m.dialCtx
	m.mu.Unlock()

	if err := t.Connect(ctx); err != nil {
		m.logger.Warn("dial failed",
			"endpoint", m.endpoint,
			"error", err,
		)
		m.transportLost(gen)
		return err
	}

	m.mu.Lock()
	if gen != m.gen {
		// A newer Connect or Disconnect won the race.
		m.mu.Unlock()
		t.Close()
		return nil
	}
	m.attempts = 0
	m.setStateLocked(StateOpen, "")
	m.mu.Unlock()

	m.logger.Info("realtime channel open", "endpoint", m.endpoint)

	go m.watch(t, gen)
	return nil
}

// watch forwards transport frames into the session stream and reacts to
// transport loss. One watch goroutine exists per live transport.
func (m *Manager) watch(t Transport, gen int) {
	for {
		select {
		case fr, ok := <-t.Frames():
			if !ok {
				// Read loop ended without an error we saw; treat as loss.
				m.transportLost(gen)
				return
			}
			m.deliver(fr)
		case err := <-t.Errors():
			m.logger.Warn("transport error", "error", err)
			m.transportLost(gen)
			return
		}
	}
}

// transportLost handles an abnormal closure: schedule a linear-backoff
// reconnect, or give up after the attempt budget is spent.
func (m *Manager) transportLost(gen int) {
	m.mu.Lock()

	if gen != m.gen || m.state == StateClosed || m.state == StateFailed {
		m.mu.Unlock()
		return
	}

	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
	}

	m.attempts++
	if m.attempts >= m.cfg.MaxReconnectAttempts {
		// Terminal. Exactly one failed status event, no further retries.
		m.setStateLocked(StateFailed, event.ReasonMaxAttempts)
		m.mu.Unlock()
		m.logger.Error("reconnect budget exhausted",
			"attempts", m.cfg.MaxReconnectAttempts,
		)
		return
	}

	attempt := m.attempts
	delay := m.backoffDelay(attempt)
	m.setStateLocked(StateReconnecting, "")
	m.reconnectTimer = time.AfterFunc(delay, func() {
		m.redial(gen)
	})
	m.mu.Unlock()

	m.logger.Info("scheduling reconnect",
		"attempt", attempt,
		"delay", delay,
	)
}

// redial runs when a reconnect timer fires.
func (m *Manager) redial(gen int) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateReconnecting {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateConnecting, "")
	m.mu.Unlock()

	m.dial(gen)
}

// backoffDelay computes the wait before reconnect attempt n. The schedule
// is linear: base × n.
func (m *Manager) backoffDelay(attempt int) time.Duration {
	return m.cfg.ReconnectBaseDelay * time.Duration(attempt)
}

// deliver pushes a wire frame into the session stream without blocking the
// transport reader. Delivery is best-effort; the channel bound is the
// backpressure limit.
func (m *Manager) deliver(fr Frame) {
	select {
	case m.frames <- fr:
	default:
		m.logger.Warn("session frame buffer full, dropping frame")
	}
}

// deliverStatus pushes a synthesized connection-status frame. Unlike wire
// frames, status frames are control signals hosts key degraded mode off, so
// a full buffer evicts the oldest queued frame instead of dropping the
// status. State transitions are deduplicated, so this path carries at most
// a handful of frames per session.
func (m *Manager) deliverStatus(fr Frame) {
	for {
		select {
		case m.frames <- fr:
			return
		default:
		}
		select {
		case <-m.frames:
			m.logger.Warn("session frame buffer full, evicting frame for status event")
		default:
		}
	}
}

// setStateLocked transitions the session state and emits the synthesized
// connection-status frame. Callers hold m.mu; the eviction in deliverStatus
// always makes progress so this never stalls under the lock.
func (m *Manager) setStateLocked(s State, reason string) {
	if m.state == s {
		return
	}
	m.state = s
	m.deliverStatus(Frame{
		Data:       event.EncodeConnectionFrame(string(s), reason, time.Now()),
		ReceivedAt: time.Now(),
	})
}

// stopReconnectTimerLocked cancels a pending reconnect, if any.
func (m *Manager) stopReconnectTimerLocked() {
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
}
