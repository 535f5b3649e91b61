package geometry

import (
	"math"
	"testing"

	"github.com/care/facesense/internal/types"
)

// makeEye builds six eye landmarks whose aspect ratio is height/width.
func makeEye(cx, cy, width, height float64) []types.Point {
	return []types.Point{
		{X: cx - width/2, Y: cy},
		{X: cx - width/4, Y: cy - height/2},
		{X: cx + width/4, Y: cy - height/2},
		{X: cx + width/2, Y: cy},
		{X: cx + width/4, Y: cy + height/2},
		{X: cx - width/4, Y: cy + height/2},
	}
}

// makeMouth builds twelve outer mouth landmarks whose aspect ratio is
// height/width.
func makeMouth(cx, cy, width, height float64) []types.Point {
	mouth := make([]types.Point, 12)
	for i := range mouth {
		mouth[i] = types.Point{X: cx, Y: cy}
	}
	mouth[0] = types.Point{X: cx - width/2, Y: cy}
	mouth[3] = types.Point{X: cx, Y: cy - height/2}
	mouth[6] = types.Point{X: cx + width/2, Y: cy}
	mouth[9] = types.Point{X: cx, Y: cy + height/2}
	return mouth
}

func TestEyeAspectRatio(t *testing.T) {
	tests := []struct {
		name   string
		width  float64
		height float64
		want   float64
	}{
		{"open eye", 60, 18, 0.30},
		{"closed eye", 60, 6, 0.10},
		{"half open", 100, 25, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eye := makeEye(100, 100, tt.width, tt.height)
			got := EyeAspectRatio(eye)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EyeAspectRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEyeAspectRatio_DegenerateWidth(t *testing.T) {
	// All six points coincident: corner distance is zero
	eye := make([]types.Point, 6)
	for i := range eye {
		eye[i] = types.Point{X: 50, Y: 50}
	}

	got := EyeAspectRatio(eye)
	if got != EARSentinel {
		t.Errorf("EyeAspectRatio() on collapsed eye = %v, want sentinel %v", got, EARSentinel)
	}
	// The sentinel must never read as a closed eye
	if got < 0.25 {
		t.Errorf("sentinel %v would cross a typical closure threshold", got)
	}
}

func TestMouthAspectRatio(t *testing.T) {
	mouth := makeMouth(100, 200, 80, 24)
	got := MouthAspectRatio(mouth)
	if math.Abs(got-0.30) > 1e-9 {
		t.Errorf("MouthAspectRatio() = %v, want 0.30", got)
	}
}

func TestMouthAspectRatio_DegenerateWidth(t *testing.T) {
	mouth := make([]types.Point, 12)
	for i := range mouth {
		mouth[i] = types.Point{X: 10, Y: 10}
	}

	got := MouthAspectRatio(mouth)
	if got != MARSentinel {
		t.Errorf("MouthAspectRatio() on collapsed mouth = %v, want sentinel %v", got, MARSentinel)
	}
	// The sentinel must never read as a frown
	if got > 0.20 {
		t.Errorf("sentinel %v would cross a typical frown threshold", got)
	}
}

func TestExtract(t *testing.T) {
	landmarks := make(types.LandmarkSet, types.LandmarkCount)
	for i := range landmarks {
		landmarks[i] = types.Point{X: 500, Y: 500}
	}

	rightEye := makeEye(400, 300, 60, 18) // EAR 0.30
	leftEye := makeEye(600, 300, 60, 12)  // EAR 0.20
	mouth := makeMouth(500, 450, 100, 25) // MAR 0.25

	copy(landmarks[types.RightEyeStart:types.RightEyeEnd], rightEye)
	copy(landmarks[types.LeftEyeStart:types.LeftEyeEnd], leftEye)
	copy(landmarks[types.MouthStart:types.MouthEnd], mouth)

	r := Extract(landmarks)

	if math.Abs(r.EAR-0.25) > 1e-9 {
		t.Errorf("overall EAR = %v, want mean 0.25", r.EAR)
	}
	if math.Abs(r.MAR-0.25) > 1e-9 {
		t.Errorf("MAR = %v, want 0.25", r.MAR)
	}
	if len(r.RightEye) != 6 || len(r.LeftEye) != 6 {
		t.Errorf("eye subsets sized %d/%d, want 6/6", len(r.RightEye), len(r.LeftEye))
	}
	if len(r.Mouth) != 12 {
		t.Errorf("mouth subset sized %d, want 12", len(r.Mouth))
	}
}
