package types

import "time"

// FaceObservation pairs one detected face box with its landmark set.
type FaceObservation struct {
	Box       FaceBox
	Landmarks LandmarkSet
}

// FrameObservation is the per-frame output of the external face pipeline:
// zero or more detected faces with landmarks, plus frame metadata.
type FrameObservation struct {
	// Seq is the monotonic frame sequence number
	Seq uint64
	// Timestamp is when the frame was captured/decoded
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Faces holds every detection in this frame (may be empty)
	Faces []FaceObservation
	// TraceID is a unique identifier for tracing a frame across the pipeline
	TraceID string
}

// DistanceReading is the current camera-to-face distance estimate.
type DistanceReading struct {
	DistanceCM float64 `json:"distance_cm"`
	TooClose   bool    `json:"too_close"`
}

// FrameReport is the per-frame analysis bundle. It carries the
// edge-triggered signals for this frame, the running session counters,
// and everything an overlay renderer would need (box, points, ratios).
type FrameReport struct {
	Seq         uint64
	Timestamp   time.Time
	TraceID     string
	FrameWidth  int
	FrameHeight int

	// FaceDetected is false when the frame had no faces; all detector
	// state is then carried over unchanged from the previous frame.
	FaceDetected bool

	BlinkTriggered bool
	FrownTriggered bool
	Distance       DistanceReading

	EAR float64
	MAR float64

	BlinkCount uint64
	FrownCount uint64

	// Overlay inputs (valid only when FaceDetected)
	Box       FaceBox
	Landmarks LandmarkSet
	RightEye  []Point
	LeftEye   []Point
	Mouth     []Point
}
