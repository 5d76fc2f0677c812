package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dispatcher's prometheus counters.
type Metrics struct {
	FramesReceived prometheus.Counter
	Dispatched     prometheus.Counter
	ControlFrames  prometheus.Counter
	ParseErrors    prometheus.Counter
	ListenerPanics prometheus.Counter
}

// NewMetrics registers dispatch counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_live_frames_received_total",
			Help: "Raw frames read from the realtime channel.",
		}),
		Dispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_live_messages_dispatched_total",
			Help: "Messages fanned out to listeners.",
		}),
		ControlFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_live_control_frames_total",
			Help: "Bare ping/pong frames swallowed before dispatch.",
		}),
		ParseErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_live_parse_errors_total",
			Help: "Frames dropped because they could not be decoded.",
		}),
		ListenerPanics: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_live_listener_panics_total",
			Help: "Listener invocations recovered from a panic.",
		}),
	}
}
