package source

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/care/facesense/internal/types"
)

// MockSource generates synthetic observations for development without a
// camera or detector: a single face that blinks every few seconds,
// frowns occasionally and slowly drifts toward and away from the camera.
type MockSource struct {
	width  int
	height int
	fps    int

	observations chan types.FrameObservation
	stopCh       chan struct{}
	wg           sync.WaitGroup

	mu        sync.Mutex
	seq       uint64
	emitted   uint64
	isRunning bool
	startTime time.Time
}

// NewMockSource creates a mock observation source.
func NewMockSource(width, height, fps int) *MockSource {
	return &MockSource{
		width:        width,
		height:       height,
		fps:          fps,
		observations: make(chan types.FrameObservation, 10),
		stopCh:       make(chan struct{}),
	}
}

// Start begins generating observations
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return fmt.Errorf("source already running")
	}
	m.isRunning = true
	m.startTime = time.Now()
	m.mu.Unlock()

	slog.Info("mock source starting",
		"width", m.width,
		"height", m.height,
		"fps", m.fps,
	)

	m.wg.Add(1)
	go m.generate(ctx)

	return nil
}

// Observations implements Source
func (m *MockSource) Observations() <-chan types.FrameObservation {
	return m.observations
}

// Stop stops the source
func (m *MockSource) Stop() error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	slog.Info("mock source stopping")

	close(m.stopCh)
	m.wg.Wait()
	close(m.observations)

	m.mu.Lock()
	m.isRunning = false
	emitted := m.emitted
	m.mu.Unlock()

	slog.Info("mock source stopped", "observations_emitted", emitted)

	return nil
}

// generate emits observations at the target FPS.
func (m *MockSource) generate(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(m.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			obs := m.createObservation()
			select {
			case m.observations <- obs:
				m.mu.Lock()
				m.emitted++
				m.mu.Unlock()
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			}
		}
	}
}

// createObservation builds one scripted frame: blink episodes of 3
// frames every 3 seconds, a frown burst every 5 seconds, and a face
// width drifting sinusoidally between near and far.
func (m *MockSource) createObservation() types.FrameObservation {
	m.mu.Lock()
	seq := m.seq
	m.seq++
	m.mu.Unlock()

	fps := uint64(m.fps)

	ear := 0.30
	if seq%(3*fps) < 3 {
		ear = 0.12
	}

	mar := 0.10
	if seq%(5*fps) < 10 {
		mar = 0.35
	}

	// Face width sweeps 200..400 px over a ~20 second cycle
	phase := float64(seq) / float64(20*fps) * 2 * math.Pi
	faceWidth := 300.0 + 100.0*math.Sin(phase)

	face := syntheticFace(m.width/2, m.height/2, faceWidth, ear, mar)

	return types.FrameObservation{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     m.width,
		Height:    m.height,
		Faces:     []types.FaceObservation{face},
		TraceID:   uuid.New().String(),
	}
}

// syntheticFace builds a face observation centered at (cx, cy) whose
// landmark geometry yields exactly the requested EAR and MAR.
func syntheticFace(cx, cy int, faceWidth, ear, mar float64) types.FaceObservation {
	landmarks := make(types.LandmarkSet, types.LandmarkCount)

	fx, fy := float64(cx), float64(cy)
	half := faceWidth / 2

	// Filler points (jaw, brows, nose, inner mouth) on the box outline;
	// nothing downstream reads them individually.
	for i := range landmarks {
		landmarks[i] = types.Point{X: fx, Y: fy}
	}

	eyeWidth := faceWidth / 5
	eyeHeight := ear * eyeWidth
	placeEye(landmarks, types.RightEyeStart, fx-faceWidth/4, fy-faceWidth/8, eyeWidth, eyeHeight)
	placeEye(landmarks, types.LeftEyeStart, fx+faceWidth/4, fy-faceWidth/8, eyeWidth, eyeHeight)

	mouthWidth := faceWidth / 3
	mouthHeight := mar * mouthWidth
	placeMouth(landmarks, fx, fy+faceWidth/4, mouthWidth, mouthHeight)

	return types.FaceObservation{
		Box: types.FaceBox{
			Left:   int(fx - half),
			Top:    int(fy - half),
			Right:  int(fx + half),
			Bottom: int(fy + half),
		},
		Landmarks: landmarks,
	}
}

// placeEye writes six eye landmarks in anatomical order so that
// (|p2-p6|+|p3-p5|)/(2|p1-p4|) == height/width.
func placeEye(l types.LandmarkSet, start int, cx, cy, width, height float64) {
	l[start+0] = types.Point{X: cx - width/2, Y: cy}              // p1 outer corner
	l[start+1] = types.Point{X: cx - width/4, Y: cy - height/2}   // p2 upper
	l[start+2] = types.Point{X: cx + width/4, Y: cy - height/2}   // p3 upper
	l[start+3] = types.Point{X: cx + width/2, Y: cy}              // p4 inner corner
	l[start+4] = types.Point{X: cx + width/4, Y: cy + height/2}   // p5 lower
	l[start+5] = types.Point{X: cx - width/4, Y: cy + height/2}   // p6 lower
}

// placeMouth writes twelve outer mouth landmarks so that
// |m3-m9|/|m0-m6| == height/width.
func placeMouth(l types.LandmarkSet, cx, cy, width, height float64) {
	for i := 0; i < 12; i++ {
		l[types.MouthStart+i] = types.Point{X: cx, Y: cy}
	}
	l[types.MouthStart+0] = types.Point{X: cx - width/2, Y: cy}  // left corner
	l[types.MouthStart+3] = types.Point{X: cx, Y: cy - height/2} // upper mid
	l[types.MouthStart+6] = types.Point{X: cx + width/2, Y: cy}  // right corner
	l[types.MouthStart+9] = types.Point{X: cx, Y: cy + height/2} // lower mid
}
