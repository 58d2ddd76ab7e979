package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ring      RingConfig      `yaml:"ring"`
	Sampling  SamplingConfig  `yaml:"sampling"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Source    SourceConfig    `yaml:"source"`
	LED       LEDConfig       `yaml:"led"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Mock      MockConfig      `yaml:"mock"`
}

// ServerConfig contains the remote collector endpoints.
type ServerConfig struct {
	URL            string        `yaml:"url"`
	DeviceEndpoint string        `yaml:"device_endpoint"` // registration exchange
	DataEndpoint   string        `yaml:"data_endpoint"`   // telemetry chunks
	UserAgent      string        `yaml:"user_agent"`      // prefix, short id is appended
	Timeout        time.Duration `yaml:"timeout"`
}

// RingConfig describes the LED ring and its animation cadence.
type RingConfig struct {
	Pixels            int           `yaml:"pixels"`
	AnimationInterval time.Duration `yaml:"animation_interval"`
	UpdateInterval    time.Duration `yaml:"update_interval"` // 0 = pixels * animation_interval
}

// SamplingConfig contains the analog sampling cadence.
type SamplingConfig struct {
	Interval time.Duration `yaml:"interval"`
	Window   time.Duration `yaml:"window"`
}

// TelemetryConfig contains the telemetry buffering and delivery parameters.
type TelemetryConfig struct {
	Transport      string        `yaml:"transport"`        // "http" or "mqtt"
	BufferCapacity int           `yaml:"buffer_capacity"`  // ring buffer size in samples
	ChunkSize      int           `yaml:"chunk_size"`       // max samples per message
	MaxChunks      int           `yaml:"max_chunks"`       // max messages per report (0 = until empty)
	MQTT           MQTTConfig    `yaml:"mqtt"`
	PollInterval   time.Duration `yaml:"poll_interval"`    // scheduler idle sleep
}

// MQTTConfig contains the MQTT transport parameters.
type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"` // "%s" is replaced by the short id
	QoS    byte   `yaml:"qos"`
}

// SourceConfig selects the analog input.
type SourceConfig struct {
	Kind     string `yaml:"kind"` // "mock", "serial" or "mic"
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// LEDConfig selects the LED driver.
type LEDConfig struct {
	Kind     string `yaml:"kind"` // "terminal", "serial", "gui" or "none"
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// StoreConfig locates the persisted device settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging parameters.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MockConfig contains mock analog source configuration.
type MockConfig struct {
	Baseline      float64       `yaml:"baseline"`       // DC level (ADC counts)
	NoiseLevel    float64       `yaml:"noise_level"`    // ambient amplitude (ADC counts)
	BurstLevel    float64       `yaml:"burst_level"`    // amplitude during a burst (ADC counts)
	BurstDuration time.Duration `yaml:"burst_duration"` // length of a loud burst
	BurstPeriod   time.Duration `yaml:"burst_period"`   // time between bursts
	Seed          int64         `yaml:"seed"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "http://localhost:3000",
			DeviceEndpoint: "/api/device",
			DataEndpoint:   "/api/data/",
			UserAgent:      "Noisey",
			Timeout:        5 * time.Second,
		},
		Ring: RingConfig{
			Pixels:            24,
			AnimationInterval: 80 * time.Millisecond,
			UpdateInterval:    0, // derived: 24 * 80ms
		},
		Sampling: SamplingConfig{
			Interval: 80 * time.Millisecond,
			Window:   20 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			Transport:      "http",
			BufferCapacity: 64,
			ChunkSize:      20,
			MaxChunks:      0,
			MQTT: MQTTConfig{
				Broker: "tcp://localhost:1883",
				Topic:  "noisey/%s/noise",
				QoS:    0,
			},
			PollInterval: time.Millisecond,
		},
		Source: SourceConfig{
			Kind:     "mock",
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		LED: LEDConfig{
			Kind:     "terminal",
			Port:     "/dev/ttyUSB0",
			BaudRate: 115200,
		},
		Store: StoreConfig{
			Path: "settings.yaml",
		},
		Log: LogConfig{
			Level: "info",
		},
		Mock: MockConfig{
			Baseline:      512,
			NoiseLevel:    20,
			BurstLevel:    300,
			BurstDuration: 3 * time.Second,
			BurstPeriod:   15 * time.Second,
			Seed:          1,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// UpdateInterval returns the retarget cadence. When not configured it spans
// one full wheel revolution: pixels * animation interval.
func (c *Config) UpdateInterval() time.Duration {
	if c.Ring.UpdateInterval > 0 {
		return c.Ring.UpdateInterval
	}
	return time.Duration(c.Ring.Pixels) * c.Ring.AnimationInterval
}

// TicksPerUpdate returns how many animation ticks fit in one update interval.
func (c *Config) TicksPerUpdate() int {
	n := int(c.UpdateInterval() / c.Ring.AnimationInterval)
	if n < 1 {
		n = 1
	}
	return n
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Server.URL == "" {
		c.Server.URL = def.Server.URL
	}
	if c.Server.DeviceEndpoint == "" {
		c.Server.DeviceEndpoint = def.Server.DeviceEndpoint
	}
	if c.Server.DataEndpoint == "" {
		c.Server.DataEndpoint = def.Server.DataEndpoint
	}
	if c.Server.UserAgent == "" {
		c.Server.UserAgent = def.Server.UserAgent
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = def.Server.Timeout
	}

	// a ring needs at least two pixels for the wheel to move
	if c.Ring.Pixels < 2 {
		c.Ring.Pixels = def.Ring.Pixels
	}
	if c.Ring.AnimationInterval == 0 {
		c.Ring.AnimationInterval = def.Ring.AnimationInterval
	}

	if c.Sampling.Interval == 0 {
		c.Sampling.Interval = def.Sampling.Interval
	}
	if c.Sampling.Window == 0 {
		c.Sampling.Window = def.Sampling.Window
	}

	if c.Telemetry.Transport == "" {
		c.Telemetry.Transport = def.Telemetry.Transport
	}
	if c.Telemetry.BufferCapacity == 0 {
		c.Telemetry.BufferCapacity = def.Telemetry.BufferCapacity
	}
	if c.Telemetry.ChunkSize == 0 {
		c.Telemetry.ChunkSize = def.Telemetry.ChunkSize
	}
	if c.Telemetry.MQTT.Broker == "" {
		c.Telemetry.MQTT.Broker = def.Telemetry.MQTT.Broker
	}
	if c.Telemetry.MQTT.Topic == "" {
		c.Telemetry.MQTT.Topic = def.Telemetry.MQTT.Topic
	}
	if c.Telemetry.PollInterval == 0 {
		c.Telemetry.PollInterval = def.Telemetry.PollInterval
	}

	if c.Source.Kind == "" {
		c.Source.Kind = def.Source.Kind
	}
	if c.Source.BaudRate == 0 {
		c.Source.BaudRate = def.Source.BaudRate
	}
	if c.LED.Kind == "" {
		c.LED.Kind = def.LED.Kind
	}
	if c.LED.BaudRate == 0 {
		c.LED.BaudRate = def.LED.BaudRate
	}

	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}

	if c.Mock.Baseline == 0 {
		c.Mock.Baseline = def.Mock.Baseline
	}
	if c.Mock.BurstDuration == 0 {
		c.Mock.BurstDuration = def.Mock.BurstDuration
	}
	if c.Mock.BurstPeriod == 0 {
		c.Mock.BurstPeriod = def.Mock.BurstPeriod
	}
}
