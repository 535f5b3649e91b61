package source

import (
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/care/facesense/internal/types"
)

func encodeWire(t *testing.T, w observationWire) []byte {
	t.Helper()
	data, err := msgpack.Marshal(w)
	if err != nil {
		t.Fatalf("marshal wire record: %v", err)
	}
	return data
}

func fullWireFace() faceWire {
	landmarks := make([][2]float64, types.LandmarkCount)
	for i := range landmarks {
		landmarks[i] = [2]float64{float64(i), float64(i * 2)}
	}
	return faceWire{
		Box:       [4]int{100, 120, 400, 420},
		Landmarks: landmarks,
	}
}

func TestDecodeObservation(t *testing.T) {
	ts := time.Date(2026, 8, 26, 10, 30, 0, 123456789, time.UTC)
	data := encodeWire(t, observationWire{
		Seq:       42,
		Timestamp: ts.Format(time.RFC3339Nano),
		Width:     640,
		Height:    480,
		Faces:     []faceWire{fullWireFace()},
	})

	obs, err := decodeObservation(data)
	if err != nil {
		t.Fatalf("decodeObservation() error: %v", err)
	}

	if obs.Seq != 42 || obs.Width != 640 || obs.Height != 480 {
		t.Errorf("frame metadata = seq %d %dx%d, want seq 42 640x480", obs.Seq, obs.Width, obs.Height)
	}
	if !obs.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", obs.Timestamp, ts)
	}
	if len(obs.Faces) != 1 {
		t.Fatalf("faces = %d, want 1", len(obs.Faces))
	}

	face := obs.Faces[0]
	if face.Box.Width() != 300 || face.Box.Height() != 300 {
		t.Errorf("box = %dx%d, want 300x300", face.Box.Width(), face.Box.Height())
	}
	if !face.Landmarks.Valid() {
		t.Fatalf("landmark set invalid: %d points", len(face.Landmarks))
	}
	if got := face.Landmarks[10]; got.X != 10 || got.Y != 20 {
		t.Errorf("landmark 10 = %+v, want {10 20}", got)
	}
}

func TestDecodeObservation_NoFaces(t *testing.T) {
	data := encodeWire(t, observationWire{Seq: 7, Width: 640, Height: 480})

	obs, err := decodeObservation(data)
	if err != nil {
		t.Fatalf("decodeObservation() error: %v", err)
	}
	if len(obs.Faces) != 0 {
		t.Errorf("faces = %d, want 0", len(obs.Faces))
	}
	// Missing timestamp falls back to receive time
	if obs.Timestamp.IsZero() {
		t.Error("fallback timestamp not set")
	}
}

func TestDecodeObservation_Rejects(t *testing.T) {
	short := fullWireFace()
	short.Landmarks = short.Landmarks[:30]

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage bytes", []byte{0xc1, 0xff, 0x00}},
		{"wrong landmark count", encodeWire(t, observationWire{
			Seq: 1, Faces: []faceWire{short},
		})},
		{"bad timestamp", encodeWire(t, observationWire{
			Seq: 1, Timestamp: "yesterday-ish",
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeObservation(tt.data); err == nil {
				t.Error("decodeObservation() accepted a malformed record")
			}
		})
	}
}
