package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
site:
  id: "test-site"
api:
  host: "0.0.0.0"
  port: 8080
broadcast:
  interval: 5
history:
  enabled: true
  max_per_device: 25
client:
  server_url: "ws://example.test/api/v1/ws"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
	}

	if cfg.Broadcast.Interval != 5 {
		t.Errorf("Broadcast.Interval = %d, want 5", cfg.Broadcast.Interval)
	}

	if cfg.History.MaxPerDevice != 25 {
		t.Errorf("History.MaxPerDevice = %d, want 25", cfg.History.MaxPerDevice)
	}

	if cfg.Client.ServerURL != "ws://example.test/api/v1/ws" {
		t.Errorf("Client.ServerURL = %q", cfg.Client.ServerURL)
	}

	// Unset sections keep their defaults
	if cfg.Topology.MinSeparation != 120 {
		t.Errorf("Topology.MinSeparation = %v, want default 120", cfg.Topology.MinSeparation)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "default config is valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing site ID",
			mutate:  func(cfg *Config) { cfg.Site.ID = "" },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(cfg *Config) { cfg.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(cfg *Config) { cfg.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero broadcast interval",
			mutate:  func(cfg *Config) { cfg.Broadcast.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "history enabled without window",
			mutate:  func(cfg *Config) { cfg.History.MaxPerDevice = 0 },
			wantErr: true,
		},
		{
			name: "invalid QoS when MQTT enabled",
			mutate: func(cfg *Config) {
				cfg.MQTT.Enabled = true
				cfg.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "invalid QoS ignored when MQTT disabled",
			mutate: func(cfg *Config) {
				cfg.MQTT.QoS = 3
			},
			wantErr: false,
		},
		{
			name: "influxdb enabled without URL",
			mutate: func(cfg *Config) {
				cfg.InfluxDB.Enabled = true
				cfg.InfluxDB.Bucket = "readings"
			},
			wantErr: true,
		},
		{
			name:    "zero reconnect base delay",
			mutate:  func(cfg *Config) { cfg.Client.Reconnect.BaseDelayMs = 0 },
			wantErr: true,
		},
		{
			name:    "negative reconnect attempts",
			mutate:  func(cfg *Config) { cfg.Client.Reconnect.MaxAttempts = -1 },
			wantErr: true,
		},
		{
			name: "empty canvas",
			mutate: func(cfg *Config) {
				cfg.Topology.Canvas.MaxX = cfg.Topology.Canvas.MinX
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Broadcast: BroadcastConfig{Interval: 3},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.GetBroadcastInterval().Seconds(); got != 3 {
		t.Errorf("GetBroadcastInterval() = %v, want 3", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("NODEX_API_HOST", "192.168.1.1")
	t.Setenv("NODEX_API_PORT", "9090")
	t.Setenv("NODEX_MQTT_HOST", "mqtt.example.com")
	t.Setenv("NODEX_MQTT_USERNAME", "testuser")
	t.Setenv("NODEX_MQTT_PASSWORD", "testpass")
	t.Setenv("NODEX_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("NODEX_CLIENT_SERVER_URL", "ws://override.test/ws")

	applyEnvOverrides(cfg)

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Client.ServerURL != "ws://override.test/ws" {
		t.Errorf("Client.ServerURL = %q, want override", cfg.Client.ServerURL)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Site.ID == "" {
		t.Error("Default should have non-empty Site.ID")
	}

	if cfg.API.Port != 4000 {
		t.Errorf("Default API.Port = %d, want 4000", cfg.API.Port)
	}

	if cfg.Broadcast.Interval != 3 {
		t.Errorf("Default Broadcast.Interval = %d, want 3", cfg.Broadcast.Interval)
	}

	if cfg.Client.Reconnect.MaxAttempts != 5 {
		t.Errorf("Default Client.Reconnect.MaxAttempts = %d, want 5", cfg.Client.Reconnect.MaxAttempts)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}
