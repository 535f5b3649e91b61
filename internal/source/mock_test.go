package source

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/care/facesense/internal/geometry"
)

func TestSyntheticFace_GeometryMatchesRequestedRatios(t *testing.T) {
	tests := []struct {
		name string
		ear  float64
		mar  float64
	}{
		{"open face", 0.30, 0.10},
		{"blinking", 0.12, 0.10},
		{"frowning", 0.30, 0.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face := syntheticFace(320, 240, 300, tt.ear, tt.mar)

			if !face.Landmarks.Valid() {
				t.Fatalf("landmark set invalid: %d points", len(face.Landmarks))
			}
			if got := face.Box.Width(); got != 300 {
				t.Errorf("box width = %d, want 300", got)
			}

			r := geometry.Extract(face.Landmarks)
			if math.Abs(r.EAR-tt.ear) > 1e-9 {
				t.Errorf("extracted EAR = %v, want %v", r.EAR, tt.ear)
			}
			if math.Abs(r.MAR-tt.mar) > 1e-9 {
				t.Errorf("extracted MAR = %v, want %v", r.MAR, tt.mar)
			}
		})
	}
}

func TestMockSource_BlinkAndFrownSchedule(t *testing.T) {
	m := NewMockSource(640, 480, 30)

	var blinkFrames, frownFrames int
	total := 30 * 15 // 15 seconds of frames
	for i := 0; i < total; i++ {
		obs := m.createObservation()
		if len(obs.Faces) != 1 {
			t.Fatalf("frame %d: faces = %d, want 1", i, len(obs.Faces))
		}
		r := geometry.Extract(obs.Faces[0].Landmarks)
		if r.EAR < 0.25 {
			blinkFrames++
		}
		if r.MAR > 0.20 {
			frownFrames++
		}
		if obs.TraceID == "" {
			t.Fatalf("frame %d: missing trace id", i)
		}
	}

	// 3 closed frames per 3-second cycle, 10 frown frames per 5-second cycle
	if blinkFrames != 15 {
		t.Errorf("closed-eye frames = %d over 15s, want 15", blinkFrames)
	}
	if frownFrames != 30 {
		t.Errorf("frown frames = %d over 15s, want 30", frownFrames)
	}
}

func TestMockSource_StartStopLifecycle(t *testing.T) {
	m := NewMockSource(640, 480, 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := m.Start(ctx); err == nil {
		t.Error("second Start() must fail while running")
	}

	select {
	case obs := <-m.Observations():
		if obs.Width != 640 || obs.Height != 480 {
			t.Errorf("frame = %dx%d, want 640x480", obs.Width, obs.Height)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no observation produced within 2s")
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	// Channel closure is the terminal condition consumers key on
	for range m.Observations() {
	}
	if _, open := <-m.Observations(); open {
		t.Error("observation channel still open after Stop()")
	}

	if err := m.Stop(); err != nil {
		t.Errorf("repeated Stop() error: %v", err)
	}
}
