package analyzer

// BlinkDetector is a hysteresis state machine over the eye aspect ratio.
//
// A blink is counted once per closed-eye episode, on the open-to-closed
// edge. After a counted blink a cooldown of N observed frames suppresses
// re-triggers from EAR jitter, even if the eye briefly appears to
// re-close. Reopening is never gated.
type BlinkDetector struct {
	threshold float64
	cooldown  int

	eyeClosed         bool
	cooldownRemaining int
	blinkCount        uint64
}

// NewBlinkDetector creates a blink detector with the given EAR threshold
// and cooldown length in frames.
func NewBlinkDetector(threshold float64, cooldown int) *BlinkDetector {
	return &BlinkDetector{
		threshold: threshold,
		cooldown:  cooldown,
	}
}

// Observe feeds one frame's EAR to the state machine and reports whether
// a blink was counted on this frame.
func (d *BlinkDetector) Observe(ear float64) bool {
	if d.cooldownRemaining > 0 {
		d.cooldownRemaining--
	}

	switch {
	case ear < d.threshold && !d.eyeClosed && d.cooldownRemaining == 0:
		d.eyeClosed = true
		d.blinkCount++
		d.cooldownRemaining = d.cooldown
		return true
	case ear >= d.threshold:
		d.eyeClosed = false
	}

	return false
}

// Count returns the total blinks counted this session.
func (d *BlinkDetector) Count() uint64 {
	return d.blinkCount
}

// EyeClosed reports whether the eye is currently in the closed state.
func (d *BlinkDetector) EyeClosed() bool {
	return d.eyeClosed
}

// CooldownRemaining returns the frames left before a new blink can fire.
func (d *BlinkDetector) CooldownRemaining() int {
	return d.cooldownRemaining
}

// SetThreshold updates the EAR threshold. Counters and transient state
// are kept; the new threshold applies from the next observation.
func (d *BlinkDetector) SetThreshold(threshold float64) {
	d.threshold = threshold
}

// Reset clears the counter and transient state.
func (d *BlinkDetector) Reset() {
	d.eyeClosed = false
	d.cooldownRemaining = 0
	d.blinkCount = 0
}
