package analyzer

import "testing"

func TestFrownDetector_EdgeTriggeredCounting(t *testing.T) {
	// Two separate crossings of the threshold yield two increments, at
	// the crossing frames only.
	d := NewFrownDetector(0.2)

	seq := []float64{0.1, 0.1, 0.3, 0.3, 0.1, 0.3}
	wantEdges := []bool{false, false, true, false, false, true}

	for i, mar := range seq {
		edge := d.Observe(mar)
		if edge != wantEdges[i] {
			t.Errorf("frame %d (mar=%v): edge = %v, want %v", i, seq[i], edge, wantEdges[i])
		}
	}

	if got := d.Count(); got != 2 {
		t.Errorf("frown count = %d, want 2", got)
	}
}

func TestFrownDetector_HeldFrownCountsOnce(t *testing.T) {
	d := NewFrownDetector(0.2)
	for i := 0; i < 30; i++ {
		d.Observe(0.4)
	}
	if got := d.Count(); got != 1 {
		t.Errorf("frown count = %d after held frown, want 1", got)
	}
	if !d.Frowning() {
		t.Error("detector should report the frowning state")
	}
}

func TestFrownDetector_ThresholdIsExclusive(t *testing.T) {
	// MAR exactly at the threshold does not count as frowning
	d := NewFrownDetector(0.2)
	if d.Observe(0.2) {
		t.Error("mar == threshold must not trigger")
	}
	if d.Frowning() {
		t.Error("mar == threshold must leave the not-frowning state")
	}
}

func TestFrownDetector_OscillationOverCounts(t *testing.T) {
	// Rapid oscillation around the threshold counts every crossing.
	// There is deliberately no debounce here.
	d := NewFrownDetector(0.2)
	for i := 0; i < 10; i++ {
		d.Observe(0.3)
		d.Observe(0.1)
	}
	if got := d.Count(); got != 10 {
		t.Errorf("frown count = %d, want 10 (one per crossing)", got)
	}
}
