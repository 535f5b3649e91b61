package analyzer

// FrownDetector is a binary threshold state machine over the mouth
// aspect ratio. Counting is edge-triggered on the threshold crossing,
// with no debounce: rapid MAR oscillation near the threshold can
// over-count. That is the upstream counting policy, kept as-is.
type FrownDetector struct {
	threshold float64

	frowning   bool
	frownCount uint64
}

// NewFrownDetector creates a frown detector with the given MAR threshold.
func NewFrownDetector(threshold float64) *FrownDetector {
	return &FrownDetector{threshold: threshold}
}

// Observe feeds one frame's MAR to the state machine and reports whether
// a frown was counted on this frame.
func (d *FrownDetector) Observe(mar float64) bool {
	if mar > d.threshold {
		if !d.frowning {
			d.frowning = true
			d.frownCount++
			return true
		}
		return false
	}

	d.frowning = false
	return false
}

// Count returns the total frowns counted this session.
func (d *FrownDetector) Count() uint64 {
	return d.frownCount
}

// Frowning reports whether the face is currently in the frowning state.
func (d *FrownDetector) Frowning() bool {
	return d.frowning
}

// SetThreshold updates the MAR threshold, effective from the next
// observation.
func (d *FrownDetector) SetThreshold(threshold float64) {
	d.threshold = threshold
}

// Reset clears the counter and transient state.
func (d *FrownDetector) Reset() {
	d.frowning = false
	d.frownCount = 0
}
