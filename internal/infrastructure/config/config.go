package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for NodeX Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	History   HistoryConfig   `yaml:"history"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Client    ClientConfig    `yaml:"client"`
	Topology  TopologyConfig  `yaml:"topology"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains deployment-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains broadcast channel settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// BroadcastConfig contains snapshot broadcast settings.
type BroadcastConfig struct {
	// Interval is the broadcast tick period in seconds. Every tick regenerates
	// readings for online devices and pushes a full snapshot to all observers.
	Interval int `yaml:"interval"`
}

// HistoryConfig contains the bounded reading-history window settings.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// MaxPerDevice caps retained readings per device; older rows are pruned.
	MaxPerDevice int `yaml:"max_per_device"`
}

// MQTTConfig contains optional MQTT snapshot export settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains optional reading-telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// ClientConfig contains observer-side connection settings.
type ClientConfig struct {
	// ServerURL is the WebSocket endpoint of the broadcast channel.
	ServerURL string `yaml:"server_url"`
	// APIBaseURL is the base URL of the registration API.
	APIBaseURL string `yaml:"api_base_url"`
	// RequestTimeout bounds registration API calls (seconds).
	RequestTimeout int                   `yaml:"request_timeout"`
	Reconnect      ClientReconnectConfig `yaml:"reconnect"`
}

// ClientReconnectConfig contains reconnection backoff settings.
type ClientReconnectConfig struct {
	// BaseDelayMs is the first retry delay; each subsequent retry doubles it.
	BaseDelayMs int `yaml:"base_delay_ms"`
	// MaxAttempts is the number of reconnect attempts before giving up.
	MaxAttempts int `yaml:"max_attempts"`
}

// TopologyConfig contains client-side topology derivation settings.
type TopologyConfig struct {
	// MinSeparation is the minimum distance between node placements.
	MinSeparation float64 `yaml:"min_separation"`
	// MaxPlacementAttempts bounds rejection sampling; placement is best-effort.
	MaxPlacementAttempts int          `yaml:"max_placement_attempts"`
	Canvas               CanvasConfig `yaml:"canvas"`
	// EvictMissing removes nodes whose device vanished from a snapshot.
	// The default (false) retains them: the reference behaviour never removed
	// nodes and it is unclear whether that was intentional, so both policies
	// are supported rather than hardcoding either.
	EvictMissing bool `yaml:"evict_missing"`
}

// CanvasConfig bounds the coordinate space nodes are placed in.
type CanvasConfig struct {
	MinX float64 `yaml:"min_x"`
	MaxX float64 `yaml:"max_x"`
	MinY float64 `yaml:"min_y"`
	MaxY float64 `yaml:"max_y"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: NODEX_SECTION_KEY
// For example: NODEX_API_HOST, NODEX_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults. The defaults are a complete
// working configuration for a local single-process deployment.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "nodex-001",
			Name: "NodeX",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 4000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 65536,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Broadcast: BroadcastConfig{
			Interval: 3,
		},
		History: HistoryConfig{
			Enabled:      true,
			MaxPerDevice: 50,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "nodex-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Client: ClientConfig{
			ServerURL:      "ws://localhost:4000/api/v1/ws",
			APIBaseURL:     "http://localhost:4000/api/v1",
			RequestTimeout: 10,
			Reconnect: ClientReconnectConfig{
				BaseDelayMs: 1000,
				MaxAttempts: 5,
			},
		},
		Topology: TopologyConfig{
			MinSeparation:        120,
			MaxPlacementAttempts: 100,
			Canvas: CanvasConfig{
				MinX: 100,
				MaxX: 900,
				MinY: 100,
				MaxY: 600,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: NODEX_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("NODEX_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("NODEX_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("NODEX_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NODEX_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NODEX_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("NODEX_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Client
	if v := os.Getenv("NODEX_CLIENT_SERVER_URL"); v != "" {
		cfg.Client.ServerURL = v
	}
	if v := os.Getenv("NODEX_CLIENT_API_BASE_URL"); v != "" {
		cfg.Client.APIBaseURL = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Broadcast.Interval < 1 {
		errs = append(errs, "broadcast.interval must be at least 1 second")
	}

	if c.History.Enabled && c.History.MaxPerDevice < 1 {
		errs = append(errs, "history.max_per_device must be at least 1 when history is enabled")
	}

	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if c.Client.Reconnect.MaxAttempts < 0 {
		errs = append(errs, "client.reconnect.max_attempts must not be negative")
	}
	if c.Client.Reconnect.BaseDelayMs < 1 {
		errs = append(errs, "client.reconnect.base_delay_ms must be at least 1")
	}

	if c.Topology.MinSeparation < 0 {
		errs = append(errs, "topology.min_separation must not be negative")
	}
	if c.Topology.Canvas.MaxX <= c.Topology.Canvas.MinX || c.Topology.Canvas.MaxY <= c.Topology.Canvas.MinY {
		errs = append(errs, "topology.canvas bounds must describe a non-empty area")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetBroadcastInterval returns the snapshot broadcast period as a Duration.
func (c *Config) GetBroadcastInterval() time.Duration {
	return c.Broadcast.GetInterval()
}

// GetInterval returns the broadcast tick period as a Duration.
func (c BroadcastConfig) GetInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// GetRequestTimeout returns the registration API request timeout as a Duration.
func (c *ClientConfig) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetBaseDelay returns the reconnect base delay as a Duration.
func (c *ClientReconnectConfig) GetBaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}
