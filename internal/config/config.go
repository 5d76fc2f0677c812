package config

import "time"

// Config is the full configuration for the studio realtime client.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Polling  PollingConfig  `yaml:"polling"`
	Notify   NotifyConfig   `yaml:"notify"`
	Diag     DiagConfig     `yaml:"diag"`
}

// ServerConfig locates the studio REST API. The realtime channel address is
// derived from BaseURL: https maps to wss, http maps to ws.
type ServerConfig struct {
	BaseURL      string `yaml:"base_url"`
	RealtimePath string `yaml:"realtime_path"`
}

// RealtimeConfig tunes the persistent channel.
type RealtimeConfig struct {
	KeepaliveInterval    time.Duration `yaml:"keepalive_interval"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	FrameBufferSize      int           `yaml:"frame_buffer_size"`
	SendTimeout          time.Duration `yaml:"send_timeout"`
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
}

// PollingConfig tunes the degraded-mode polling loop.
type PollingConfig struct {
	Interval     time.Duration `yaml:"interval"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// NotifyConfig tunes the notification presenter.
type NotifyConfig struct {
	HistoryLimit    int           `yaml:"history_limit"`
	DisplayDuration time.Duration `yaml:"display_duration"`
}

// DiagConfig configures the diagnostics HTTP server.
type DiagConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}
