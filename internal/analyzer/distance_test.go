package analyzer

import (
	"math"
	"testing"

	"github.com/care/facesense/internal/config"
)

func testDistanceConfig() config.DistanceConfig {
	return config.DistanceConfig{
		KnownDistanceCM:  50.0,
		KnownWidthCM:     16.0,
		KnownWidthPixels: 300.0,
		MinCM:            10.0,
		MaxCM:            150.0,
		AlertThresholdCM: 40.0,
	}
}

func TestDistanceEstimator_Estimate(t *testing.T) {
	e := NewDistanceEstimator(testDistanceConfig())

	tests := []struct {
		name        string
		widthPixels int
		wantCM      float64
		wantClose   bool
	}{
		{"calibration point", 300, 50.0, false},
		{"half width doubles distance", 150, 100.0, false},
		{"close face", 500, 30.0, true},
		{"at alert threshold", 375, 40.0, false}, // not strictly below
		{"tiny face clamps to max", 1, 150.0, false},
		{"huge face clamps to min", 5000, 10.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Estimate(tt.widthPixels)
			if math.Abs(got.DistanceCM-tt.wantCM) > 1e-9 {
				t.Errorf("Estimate(%d).DistanceCM = %v, want %v", tt.widthPixels, got.DistanceCM, tt.wantCM)
			}
			if got.TooClose != tt.wantClose {
				t.Errorf("Estimate(%d).TooClose = %v, want %v", tt.widthPixels, got.TooClose, tt.wantClose)
			}
		})
	}
}

func TestDistanceEstimator_NonPositiveWidth(t *testing.T) {
	e := NewDistanceEstimator(testDistanceConfig())

	for _, w := range []int{0, -5} {
		got := e.Estimate(w)
		if got.DistanceCM != 150.0 {
			t.Errorf("Estimate(%d).DistanceCM = %v, want clamped max 150", w, got.DistanceCM)
		}
		if got.TooClose {
			t.Errorf("Estimate(%d) flagged too close at max distance", w)
		}
	}
}
