// Package geometry derives scalar shape ratios from facial landmarks.
//
// The two ratios are the standard aspect-ratio heuristics: EAR (eye
// aspect ratio) drops toward zero as the eyelid closes, MAR (mouth
// aspect ratio) rises as the mouth opens or pulls into a frown.
package geometry

import (
	"math"

	"github.com/care/facesense/internal/types"
)

// degenerateWidth is the horizontal-distance floor below which a shape is
// considered collapsed (corner points coincident, detector noise).
const degenerateWidth = 1e-6

// Sentinel ratios reported for collapsed shapes. Chosen so they can never
// cross the detection thresholds: an EAR of 1.0 never reads as a closed
// eye, a MAR of 0.0 never reads as a frown.
const (
	EARSentinel = 1.0
	MARSentinel = 0.0
)

// Ratios is the per-face output of the geometry extractor.
type Ratios struct {
	EAR float64
	MAR float64

	// Point subsets for downstream overlay rendering
	RightEye []types.Point
	LeftEye  []types.Point
	Mouth    []types.Point
}

// Extract computes EAR and MAR for a full landmark set.
func Extract(landmarks types.LandmarkSet) Ratios {
	rightEye := landmarks.RightEye()
	leftEye := landmarks.LeftEye()
	mouth := landmarks.Mouth()

	return Ratios{
		EAR:      (EyeAspectRatio(rightEye) + EyeAspectRatio(leftEye)) / 2.0,
		MAR:      MouthAspectRatio(mouth),
		RightEye: rightEye,
		LeftEye:  leftEye,
		Mouth:    mouth,
	}
}

// EyeAspectRatio computes the aspect ratio of one eye from its six
// landmarks in anatomical order: (|p2-p6| + |p3-p5|) / (2 * |p1-p4|).
func EyeAspectRatio(eye []types.Point) float64 {
	a := euclidean(eye[1], eye[5])
	b := euclidean(eye[2], eye[4])
	c := euclidean(eye[0], eye[3])

	if c < degenerateWidth {
		return EARSentinel
	}
	return (a + b) / (2.0 * c)
}

// MouthAspectRatio computes the mouth aspect ratio from the twelve outer
// mouth landmarks: vertical distance between the upper and lower middle
// points over the corner-to-corner width.
func MouthAspectRatio(mouth []types.Point) float64 {
	a := euclidean(mouth[3], mouth[9])
	c := euclidean(mouth[0], mouth[6])

	if c < degenerateWidth {
		return MARSentinel
	}
	return a / c
}

func euclidean(p, q types.Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}
