package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks if the configuration is valid and fills in defaults
func Validate(cfg *Config) error {
	// Validate instance_id
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	// Validate room_id
	if cfg.RoomID == "" {
		return fmt.Errorf("room_id is required")
	}

	// Validate MQTT broker
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}

	applyDefaults(cfg)

	if cfg.Analysis.EARThreshold <= 0 || cfg.Analysis.EARThreshold >= 1 {
		return fmt.Errorf("analysis.ear_threshold must be in (0, 1), got %v", cfg.Analysis.EARThreshold)
	}
	if cfg.Analysis.MARThreshold <= 0 {
		return fmt.Errorf("analysis.mar_threshold must be > 0, got %v", cfg.Analysis.MARThreshold)
	}
	if cfg.Analysis.BlinkCooldown < 0 {
		return fmt.Errorf("analysis.blink_cooldown must be >= 0, got %d", cfg.Analysis.BlinkCooldown)
	}
	if cfg.Distance.MinCM >= cfg.Distance.MaxCM {
		return fmt.Errorf("distance.min_cm (%v) must be < distance.max_cm (%v)",
			cfg.Distance.MinCM, cfg.Distance.MaxCM)
	}
	if cfg.Distance.KnownDistanceCM <= 0 || cfg.Distance.KnownWidthPixels <= 0 {
		return fmt.Errorf("distance calibration constants must be > 0")
	}
	if cfg.Source.Kind != "mock" && cfg.Source.Kind != "worker" {
		return fmt.Errorf("source.kind must be 'mock' or 'worker', got %q", cfg.Source.Kind)
	}
	if cfg.Source.Kind == "worker" && cfg.Source.Worker.Command == "" {
		return fmt.Errorf("source.worker.command is required when source.kind is 'worker'")
	}

	return nil
}

// applyDefaults fills zero-valued fields with the canonical defaults.
func applyDefaults(cfg *Config) {
	if cfg.Session.ProcessEvery <= 0 {
		cfg.Session.ProcessEvery = 1
	}
	if cfg.Analysis.EARThreshold == 0 {
		cfg.Analysis.EARThreshold = 0.25
	}
	if cfg.Analysis.BlinkCooldown == 0 {
		cfg.Analysis.BlinkCooldown = 10
	}
	if cfg.Analysis.MARThreshold == 0 {
		cfg.Analysis.MARThreshold = 0.20
	}
	if cfg.Distance.KnownDistanceCM == 0 {
		cfg.Distance.KnownDistanceCM = 50.0
	}
	if cfg.Distance.KnownWidthCM == 0 {
		cfg.Distance.KnownWidthCM = 16.0
	}
	if cfg.Distance.KnownWidthPixels == 0 {
		cfg.Distance.KnownWidthPixels = 300.0
	}
	if cfg.Distance.MaxCM == 0 {
		cfg.Distance.MinCM = 10.0
		cfg.Distance.MaxCM = 150.0
	}
	if cfg.Distance.AlertThresholdCM == 0 {
		cfg.Distance.AlertThresholdCM = 40.0
	}
	if cfg.Metrics.LatencyWindow <= 0 {
		cfg.Metrics.LatencyWindow = 30
	}
	if cfg.Metrics.SampleIntervalS <= 0 {
		cfg.Metrics.SampleIntervalS = 5
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "mock"
	}
	if cfg.Source.FPS <= 0 {
		cfg.Source.FPS = 30
	}

	// Derive topics from instance id, same scheme as the rest of the fleet
	if cfg.MQTT.Topics.Control == "" {
		cfg.MQTT.Topics.Control = fmt.Sprintf("care/control/%s", cfg.InstanceID)
	}
	if cfg.MQTT.Topics.Events == "" {
		cfg.MQTT.Topics.Events = fmt.Sprintf("care/events/%s", cfg.InstanceID)
	}
	if cfg.MQTT.Topics.Metrics == "" {
		cfg.MQTT.Topics.Metrics = fmt.Sprintf("care/metrics/%s", cfg.InstanceID)
	}

	if cfg.MQTT.QoS == nil {
		cfg.MQTT.QoS = map[string]byte{
			"control":         1,
			"blink":           1,
			"frown":           1,
			"proximity_alert": 1,
			"metrics_sample":  0,
			"session_summary": 1,
		}
	}
}
