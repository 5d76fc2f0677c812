package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRealtimePath         = "/live"
	DefaultKeepaliveInterval    = 30 * time.Second
	DefaultReconnectBaseDelay   = 3 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultFrameBufferSize      = 256
	DefaultSendTimeout          = 5 * time.Second
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultPollInterval         = 30 * time.Second
	DefaultProbeTimeout         = 10 * time.Second
	DefaultHistoryLimit         = 10
	DefaultDisplayDuration      = 6 * time.Second
	DefaultDiagPort             = 9090
)

func (c *Config) applyDefaults() {
	if c.Server.RealtimePath == "" {
		c.Server.RealtimePath = DefaultRealtimePath
	}

	if c.Realtime.KeepaliveInterval == 0 {
		c.Realtime.KeepaliveInterval = DefaultKeepaliveInterval
	}
	if c.Realtime.ReconnectBaseDelay == 0 {
		c.Realtime.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Realtime.MaxReconnectAttempts == 0 {
		c.Realtime.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Realtime.FrameBufferSize == 0 {
		c.Realtime.FrameBufferSize = DefaultFrameBufferSize
	}
	if c.Realtime.SendTimeout == 0 {
		c.Realtime.SendTimeout = DefaultSendTimeout
	}
	if c.Realtime.HandshakeTimeout == 0 {
		c.Realtime.HandshakeTimeout = DefaultHandshakeTimeout
	}

	if c.Polling.Interval == 0 {
		c.Polling.Interval = DefaultPollInterval
	}
	if c.Polling.ProbeTimeout == 0 {
		c.Polling.ProbeTimeout = DefaultProbeTimeout
	}

	if c.Notify.HistoryLimit == 0 {
		c.Notify.HistoryLimit = DefaultHistoryLimit
	}
	if c.Notify.DisplayDuration == 0 {
		c.Notify.DisplayDuration = DefaultDisplayDuration
	}

	if c.Diag.Port == 0 {
		c.Diag.Port = DefaultDiagPort
	}
}
