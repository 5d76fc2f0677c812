package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return errors.New("server.base_url is required")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url scheme must be http or https, got %q", u.Scheme)
	}
	if !strings.HasPrefix(c.Server.RealtimePath, "/") {
		return fmt.Errorf("server.realtime_path must start with /, got %q", c.Server.RealtimePath)
	}

	if c.Realtime.KeepaliveInterval <= 0 {
		return errors.New("realtime.keepalive_interval must be > 0")
	}
	if c.Realtime.ReconnectBaseDelay <= 0 {
		return errors.New("realtime.reconnect_base_delay must be > 0")
	}
	if c.Realtime.MaxReconnectAttempts < 1 {
		return errors.New("realtime.max_reconnect_attempts must be >= 1")
	}
	if c.Realtime.FrameBufferSize < 1 {
		return errors.New("realtime.frame_buffer_size must be >= 1")
	}

	if c.Polling.Interval <= 0 {
		return errors.New("polling.interval must be > 0")
	}

	if c.Notify.HistoryLimit < 1 {
		return errors.New("notify.history_limit must be >= 1")
	}
	if c.Notify.DisplayDuration <= 0 {
		return errors.New("notify.display_duration must be > 0")
	}

	if c.Diag.Port < 1 || c.Diag.Port > 65535 {
		return fmt.Errorf("diag.port must be between 1 and 65535, got %d", c.Diag.Port)
	}

	return nil
}
