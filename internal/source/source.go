// Package source provides observation sources for the analyzer: the
// landmark worker bridge to the external face pipeline, and a mock
// generator for development without a camera.
package source

import (
	"context"

	"github.com/care/facesense/internal/types"
)

// Source produces a stream of frame observations. The face detector and
// landmark predictor live behind this seam; the analyzer only ever sees
// their output.
//
// Lifecycle: New* → Start(ctx) → range Observations() → Stop(). The
// observations channel is closed when the source terminates; a closed
// channel is the terminal capture-failure condition for the session.
type Source interface {
	// Start begins producing observations.
	Start(ctx context.Context) error
	// Observations returns the observation channel.
	Observations() <-chan types.FrameObservation
	// Stop stops the source and closes the observation channel.
	Stop() error
}
