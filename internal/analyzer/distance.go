package analyzer

import (
	"github.com/care/facesense/internal/config"
	"github.com/care/facesense/internal/types"
)

// DistanceEstimator converts an observed face width in pixels into an
// estimated camera-to-face distance using triangle similarity: distance
// scales inversely with pixel width, calibrated so that a face of
// knownWidthPixels reads exactly knownDistanceCM.
type DistanceEstimator struct {
	knownDistanceCM  float64
	knownWidthPixels float64
	minCM            float64
	maxCM            float64
	alertThresholdCM float64
}

// NewDistanceEstimator creates an estimator from the calibration config.
func NewDistanceEstimator(cfg config.DistanceConfig) *DistanceEstimator {
	return &DistanceEstimator{
		knownDistanceCM:  cfg.KnownDistanceCM,
		knownWidthPixels: cfg.KnownWidthPixels,
		minCM:            cfg.MinCM,
		maxCM:            cfg.MaxCM,
		alertThresholdCM: cfg.AlertThresholdCM,
	}
}

// Estimate returns the clamped distance reading for a face width in
// pixels. Zero or negative widths (detector noise at frame edges) read
// as the clamped maximum.
func (e *DistanceEstimator) Estimate(faceWidthPixels int) types.DistanceReading {
	distance := e.maxCM
	if faceWidthPixels > 0 {
		// known_width_cm cancels out of the similarity formula
		distance = e.knownDistanceCM * e.knownWidthPixels / float64(faceWidthPixels)
	}

	if distance < e.minCM {
		distance = e.minCM
	}
	if distance > e.maxCM {
		distance = e.maxCM
	}

	return types.DistanceReading{
		DistanceCM: distance,
		TooClose:   distance < e.alertThresholdCM,
	}
}

// AlertThresholdCM returns the configured proximity alert threshold.
func (e *DistanceEstimator) AlertThresholdCM() float64 {
	return e.alertThresholdCM
}
