package types

// LandmarkCount is the number of points in a full facial landmark set
// (68-point annotation scheme, same indexing as the upstream predictor).
const LandmarkCount = 68

// Fixed landmark index ranges per facial region.
const (
	RightEyeStart = 36
	RightEyeEnd   = 42 // exclusive
	LeftEyeStart  = 42
	LeftEyeEnd    = 48 // exclusive
	MouthStart    = 48
	MouthEnd      = 60 // exclusive, outer mouth contour
)

// Point is a single 2-D landmark coordinate in frame pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LandmarkSet is an ordered sequence of 68 facial landmark points.
// It is owned by the frame being processed and must not be mutated.
type LandmarkSet []Point

// Valid reports whether the set carries a full 68-point annotation.
func (l LandmarkSet) Valid() bool {
	return len(l) == LandmarkCount
}

// RightEye returns the six right-eye landmarks (indices 36-41).
func (l LandmarkSet) RightEye() []Point {
	return l[RightEyeStart:RightEyeEnd]
}

// LeftEye returns the six left-eye landmarks (indices 42-47).
func (l LandmarkSet) LeftEye() []Point {
	return l[LeftEyeStart:LeftEyeEnd]
}

// Mouth returns the twelve outer mouth landmarks (indices 48-59).
func (l LandmarkSet) Mouth() []Point {
	return l[MouthStart:MouthEnd]
}

// FaceBox is an axis-aligned face bounding rectangle in pixel coordinates.
type FaceBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the box width in pixels.
func (b FaceBox) Width() int {
	return b.Right - b.Left
}

// Height returns the box height in pixels.
func (b FaceBox) Height() int {
	return b.Bottom - b.Top
}

// Area returns the pixel area of the box.
func (b FaceBox) Area() int {
	return b.Width() * b.Height()
}
