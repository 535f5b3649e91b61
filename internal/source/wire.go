package source

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/care/facesense/internal/types"
)

// Wire format spoken by the landmark worker subprocess: length-prefixed
// (4 bytes big-endian) MsgPack records on stdout, one per frame.

type faceWire struct {
	Box       [4]int       `msgpack:"box"` // left, top, right, bottom
	Landmarks [][2]float64 `msgpack:"landmarks"`
}

type observationWire struct {
	Seq       uint64     `msgpack:"seq"`
	Timestamp string     `msgpack:"timestamp"` // RFC3339Nano
	Width     int        `msgpack:"width"`
	Height    int        `msgpack:"height"`
	Faces     []faceWire `msgpack:"faces"`
}

// decodeObservation unmarshals one MsgPack record into a frame
// observation. Faces with a wrong landmark count are rejected here, not
// downstream: a malformed record is a worker bug worth surfacing.
func decodeObservation(data []byte) (types.FrameObservation, error) {
	var wire observationWire
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return types.FrameObservation{}, fmt.Errorf("failed to unmarshal observation: %w", err)
	}

	obs := types.FrameObservation{
		Seq:    wire.Seq,
		Width:  wire.Width,
		Height: wire.Height,
	}

	if wire.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, wire.Timestamp)
		if err != nil {
			return types.FrameObservation{}, fmt.Errorf("bad observation timestamp %q: %w", wire.Timestamp, err)
		}
		obs.Timestamp = ts
	} else {
		obs.Timestamp = time.Now()
	}

	for i, face := range wire.Faces {
		if len(face.Landmarks) != types.LandmarkCount {
			return types.FrameObservation{}, fmt.Errorf(
				"face %d: expected %d landmarks, got %d", i, types.LandmarkCount, len(face.Landmarks))
		}

		landmarks := make(types.LandmarkSet, len(face.Landmarks))
		for j, p := range face.Landmarks {
			landmarks[j] = types.Point{X: p[0], Y: p[1]}
		}

		obs.Faces = append(obs.Faces, types.FaceObservation{
			Box: types.FaceBox{
				Left:   face.Box[0],
				Top:    face.Box[1],
				Right:  face.Box[2],
				Bottom: face.Box[3],
			},
			Landmarks: landmarks,
		})
	}

	return obs, nil
}
