package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete facesense configuration
type Config struct {
	InstanceID       string         `yaml:"instance_id"`
	RoomID           string         `yaml:"room_id"`
	ShutdownTimeoutS int            `yaml:"shutdown_timeout_s"` // Graceful shutdown timeout in seconds (default: 5)
	Session          SessionConfig  `yaml:"session"`
	Analysis         AnalysisConfig `yaml:"analysis"`
	Distance         DistanceConfig `yaml:"distance"`
	Metrics          MetricsConfig  `yaml:"metrics"`
	Source           SourceConfig   `yaml:"source"`
	MQTT             MQTTConfig     `yaml:"mqtt"`
}

// SessionConfig contains session lifecycle settings
type SessionConfig struct {
	DurationS    int `yaml:"duration_s"`     // 0 = run until stopped
	ProcessEvery int `yaml:"process_every"`  // analyze every Nth observed frame (default: 1)
}

// AnalysisConfig contains blink and frown detection thresholds
type AnalysisConfig struct {
	EARThreshold   float64 `yaml:"ear_threshold"`   // eye closes below this ratio
	BlinkCooldown  int     `yaml:"blink_cooldown"`  // frames before the next blink can be counted
	MARThreshold   float64 `yaml:"mar_threshold"`   // frown begins above this ratio
}

// DistanceConfig contains the triangle-similarity calibration constants
type DistanceConfig struct {
	KnownDistanceCM  float64 `yaml:"known_distance_cm"`
	KnownWidthCM     float64 `yaml:"known_width_cm"`
	KnownWidthPixels float64 `yaml:"known_width_pixels"`
	MinCM            float64 `yaml:"min_cm"`
	MaxCM            float64 `yaml:"max_cm"`
	AlertThresholdCM float64 `yaml:"alert_threshold_cm"`
}

// MetricsConfig contains performance monitoring settings
type MetricsConfig struct {
	LatencyWindow   int `yaml:"latency_window"`    // ring buffer capacity (default: 30)
	SampleIntervalS int `yaml:"sample_interval_s"` // periodic sampling interval (default: 5)
}

// SourceConfig selects and configures the observation source
type SourceConfig struct {
	Kind    string        `yaml:"kind"` // "worker" or "mock"
	FPS     int           `yaml:"fps"`
	Worker  WorkerConfig  `yaml:"worker"`
}

// WorkerConfig configures the external landmark worker subprocess
type WorkerConfig struct {
	Command    string   `yaml:"command"`
	Args       []string `yaml:"args"`
	ModelPath  string   `yaml:"model_path"`
	CameraIdx  int      `yaml:"camera_index"`
}

// MQTTConfig contains MQTT broker settings
type MQTTConfig struct {
	Broker string          `yaml:"broker"`
	Topics MQTTTopics      `yaml:"topics"`
	QoS    map[string]byte `yaml:"qos"`
}

// MQTTTopics contains topic templates
type MQTTTopics struct {
	Control string `yaml:"control"`
	Events  string `yaml:"events"`
	Metrics string `yaml:"metrics"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with the canonical calibration and
// thresholds, suitable for tests and the mock source.
func Default() *Config {
	cfg := &Config{
		InstanceID: "facesense-dev",
		RoomID:     "dev",
		MQTT:       MQTTConfig{Broker: "localhost:1883"},
	}
	applyDefaults(cfg)
	return cfg
}
