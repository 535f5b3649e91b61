// Package analyzer holds the per-session behavioral state machines and
// the per-frame orchestrator that drives them.
//
// One Analyzer instance exists per active session. All of its state
// (blink/frown counters, cooldowns, last distance) is confined to the
// frame-processing loop; nothing here needs locking.
package analyzer

import (
	"log/slog"

	"github.com/care/facesense/internal/config"
	"github.com/care/facesense/internal/geometry"
	"github.com/care/facesense/internal/types"
)

// Analyzer is the per-frame driver: it selects the dominant face, runs
// the geometry extractor, and feeds the blink, frown and distance
// components.
type Analyzer struct {
	blink    *BlinkDetector
	frown    *FrownDetector
	distance *DistanceEstimator

	lastDistance types.DistanceReading
	frames       uint64
}

// New creates an analyzer session from configuration.
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{
		blink:    NewBlinkDetector(cfg.Analysis.EARThreshold, cfg.Analysis.BlinkCooldown),
		frown:    NewFrownDetector(cfg.Analysis.MARThreshold),
		distance: NewDistanceEstimator(cfg.Distance),
	}
}

// Process analyzes one frame observation and returns the report bundle.
//
// A frame with no faces yields a neutral report: detector state and
// counters are untouched and the previous distance reading is carried.
func (a *Analyzer) Process(obs types.FrameObservation) types.FrameReport {
	a.frames++

	report := types.FrameReport{
		Seq:         obs.Seq,
		Timestamp:   obs.Timestamp,
		TraceID:     obs.TraceID,
		FrameWidth:  obs.Width,
		FrameHeight: obs.Height,
		Distance:    a.lastDistance,
		BlinkCount:  a.blink.Count(),
		FrownCount:  a.frown.Count(),
	}

	face, ok := dominantFace(obs.Faces)
	if !ok {
		return report
	}
	if !face.Landmarks.Valid() {
		slog.Warn("discarding face with incomplete landmark set",
			"frame_seq", obs.Seq,
			"trace_id", obs.TraceID,
			"points", len(face.Landmarks),
		)
		return report
	}

	ratios := geometry.Extract(face.Landmarks)

	report.FaceDetected = true
	report.EAR = ratios.EAR
	report.MAR = ratios.MAR
	report.Box = face.Box
	report.Landmarks = face.Landmarks
	report.RightEye = ratios.RightEye
	report.LeftEye = ratios.LeftEye
	report.Mouth = ratios.Mouth

	report.BlinkTriggered = a.blink.Observe(ratios.EAR)
	report.FrownTriggered = a.frown.Observe(ratios.MAR)

	report.Distance = a.distance.Estimate(face.Box.Width())
	a.lastDistance = report.Distance

	report.BlinkCount = a.blink.Count()
	report.FrownCount = a.frown.Count()

	return report
}

// Counters returns the running session counters.
func (a *Analyzer) Counters() (blinks, frowns, frames uint64) {
	return a.blink.Count(), a.frown.Count(), a.frames
}

// AlertThresholdCM returns the configured proximity alert threshold.
func (a *Analyzer) AlertThresholdCM() float64 {
	return a.distance.AlertThresholdCM()
}

// ResetCounters clears the blink/frown counters and detector state.
func (a *Analyzer) ResetCounters() {
	a.blink.Reset()
	a.frown.Reset()
}

// UpdateThresholds changes the detection thresholds mid-session. A value
// of 0 leaves the corresponding threshold unchanged. Must be called from
// the frame loop, like every other analyzer method.
func (a *Analyzer) UpdateThresholds(earThreshold, marThreshold float64) {
	if earThreshold > 0 {
		a.blink.SetThreshold(earThreshold)
	}
	if marThreshold > 0 {
		a.frown.SetThreshold(marThreshold)
	}
}

// dominantFace selects the detection with the largest box area; ties go
// to the first encountered.
func dominantFace(faces []types.FaceObservation) (types.FaceObservation, bool) {
	if len(faces) == 0 {
		return types.FaceObservation{}, false
	}

	best := faces[0]
	for _, f := range faces[1:] {
		if f.Box.Area() > best.Box.Area() {
			best = f
		}
	}
	return best, true
}
