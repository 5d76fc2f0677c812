package dispatch

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/ivylane/studio-live/internal/event"
	"github.com/ivylane/studio-live/internal/realtime"
)

// Dispatcher decodes inbound frames, classifies them by kind, and fans out
// to the registry with per-listener failure isolation.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger

	// Input from the connection manager. Single consumer: one frame's full
	// dispatch completes before the next is read.
	frames <-chan realtime.Frame

	metrics *Metrics

	mu    sync.RWMutex
	stats Stats
}

// Stats contains runtime dispatch statistics.
type Stats struct {
	FramesReceived int64
	Dispatched     int64
	ControlFrames  int64
	ParseErrors    int64
	ListenerPanics int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics attaches prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher draining frames into registry.
func NewDispatcher(registry *Registry, frames <-chan realtime.Frame, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		registry: registry,
		logger:   logger,
		frames:   frames,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run drains the frame channel until ctx is cancelled or the channel
// closes. It is the single consumer; callers run it in one goroutine.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fr, ok := <-d.frames:
			if !ok {
				d.logger.Info("frame channel closed")
				return nil
			}
			d.dispatch(fr)
		}
	}
}

// Stats returns a snapshot of dispatch statistics.
func (d *Dispatcher) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// dispatch classifies and fans out a single frame.
func (d *Dispatcher) dispatch(fr realtime.Frame) {
	d.count(func(s *Stats) { s.FramesReceived++ })
	if d.metrics != nil {
		d.metrics.FramesReceived.Inc()
	}

	// Reserved control literals bypass the envelope and never reach
	// listeners, wildcard included.
	trimmed := bytes.TrimSpace(fr.Data)
	if string(trimmed) == event.PingFrame || string(trimmed) == event.PongFrame {
		d.count(func(s *Stats) { s.ControlFrames++ })
		if d.metrics != nil {
			d.metrics.ControlFrames.Inc()
		}
		return
	}

	msg, err := event.Parse(fr.Data, fr.ReceivedAt)
	if err != nil {
		// Malformed frames are dropped locally, never surfaced.
		d.logger.Warn("dropping undecodable frame", "error", err)
		d.count(func(s *Stats) { s.ParseErrors++ })
		if d.metrics != nil {
			d.metrics.ParseErrors.Inc()
		}
		return
	}

	for _, fn := range d.registry.listenersFor(msg.Kind) {
		d.invoke(fn, msg)
	}

	d.count(func(s *Stats) { s.Dispatched++ })
	if d.metrics != nil {
		d.metrics.Dispatched.Inc()
	}
}

// invoke runs one listener with panic isolation: a panicking consumer is
// logged and the remaining listeners still run.
func (d *Dispatcher) invoke(fn Listener, msg event.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("listener panicked",
				"kind", msg.Kind,
				"panic", r,
			)
			d.count(func(s *Stats) { s.ListenerPanics++ })
			if d.metrics != nil {
				d.metrics.ListenerPanics.Inc()
			}
		}
	}()

	fn(msg)
}

func (d *Dispatcher) count(f func(*Stats)) {
	d.mu.Lock()
	f(&d.stats)
	d.mu.Unlock()
}
