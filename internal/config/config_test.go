package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
server:
  base_url: https://studio.example.com/api
realtime:
  keepalive_interval: 10s
  max_reconnect_attempts: 3
notify:
  history_limit: 5
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.BaseURL != "https://studio.example.com/api" {
		t.Errorf("Server.BaseURL = %q, want %q", cfg.Server.BaseURL, "https://studio.example.com/api")
	}
	if cfg.Realtime.KeepaliveInterval != 10*time.Second {
		t.Errorf("Realtime.KeepaliveInterval = %v, want 10s", cfg.Realtime.KeepaliveInterval)
	}
	if cfg.Realtime.MaxReconnectAttempts != 3 {
		t.Errorf("Realtime.MaxReconnectAttempts = %d, want 3", cfg.Realtime.MaxReconnectAttempts)
	}
	if cfg.Notify.HistoryLimit != 5 {
		t.Errorf("Notify.HistoryLimit = %d, want 5", cfg.Notify.HistoryLimit)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_STUDIO_URL", "https://studio.internal:8443")

	yaml := `
server:
  base_url: ${TEST_STUDIO_URL}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.BaseURL != "https://studio.internal:8443" {
		t.Errorf("Server.BaseURL = %q, want %q", cfg.Server.BaseURL, "https://studio.internal:8443")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
server:
  base_url: http://localhost:8000
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Server.RealtimePath != DefaultRealtimePath {
		t.Errorf("Server.RealtimePath = %q, want default %q", cfg.Server.RealtimePath, DefaultRealtimePath)
	}
	if cfg.Realtime.KeepaliveInterval != DefaultKeepaliveInterval {
		t.Errorf("Realtime.KeepaliveInterval = %v, want default %v", cfg.Realtime.KeepaliveInterval, DefaultKeepaliveInterval)
	}
	if cfg.Realtime.ReconnectBaseDelay != DefaultReconnectBaseDelay {
		t.Errorf("Realtime.ReconnectBaseDelay = %v, want default %v", cfg.Realtime.ReconnectBaseDelay, DefaultReconnectBaseDelay)
	}
	if cfg.Realtime.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Errorf("Realtime.MaxReconnectAttempts = %d, want default %d", cfg.Realtime.MaxReconnectAttempts, DefaultMaxReconnectAttempts)
	}
	if cfg.Polling.Interval != DefaultPollInterval {
		t.Errorf("Polling.Interval = %v, want default %v", cfg.Polling.Interval, DefaultPollInterval)
	}
	if cfg.Notify.HistoryLimit != DefaultHistoryLimit {
		t.Errorf("Notify.HistoryLimit = %d, want default %d", cfg.Notify.HistoryLimit, DefaultHistoryLimit)
	}
	if cfg.Diag.Port != DefaultDiagPort {
		t.Errorf("Diag.Port = %d, want default %d", cfg.Diag.Port, DefaultDiagPort)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{Server: ServerConfig{BaseURL: "https://studio.example.com"}}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Server.BaseURL = "" },
			wantErr: "server.base_url is required",
		},
		{
			name:    "bad scheme",
			mutate:  func(c *Config) { c.Server.BaseURL = "ftp://studio.example.com" },
			wantErr: `server.base_url scheme must be http or https, got "ftp"`,
		},
		{
			name:    "relative realtime path",
			mutate:  func(c *Config) { c.Server.RealtimePath = "live" },
			wantErr: `server.realtime_path must start with /, got "live"`,
		},
		{
			name:    "zero max attempts",
			mutate:  func(c *Config) { c.Realtime.MaxReconnectAttempts = 0 },
			wantErr: "realtime.max_reconnect_attempts must be >= 1",
		},
		{
			name:    "negative poll interval",
			mutate:  func(c *Config) { c.Polling.Interval = -time.Second },
			wantErr: "polling.interval must be > 0",
		},
		{
			name:    "zero history limit",
			mutate:  func(c *Config) { c.Notify.HistoryLimit = 0 },
			wantErr: "notify.history_limit must be >= 1",
		},
		{
			name:    "diag port out of range",
			mutate:  func(c *Config) { c.Diag.Port = 70000 },
			wantErr: "diag.port must be between 1 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
