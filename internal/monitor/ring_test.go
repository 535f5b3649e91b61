package monitor

import (
	"testing"
	"testing/quick"
	"time"
)

func TestLatencyRing_FillAndEvict(t *testing.T) {
	r := newLatencyRing(3)

	if r.len() != 0 {
		t.Fatalf("fresh ring len = %d, want 0", r.len())
	}
	if r.mean() != 0 {
		t.Fatalf("empty ring mean = %v, want 0", r.mean())
	}

	r.push(10 * time.Millisecond)
	r.push(20 * time.Millisecond)
	if got := r.mean(); got != 15*time.Millisecond {
		t.Errorf("partial ring mean = %v, want 15ms", got)
	}

	r.push(30 * time.Millisecond)
	r.push(40 * time.Millisecond) // evicts the 10ms sample

	if r.len() != 3 {
		t.Errorf("ring len = %d after overflow, want capacity 3", r.len())
	}
	if got := r.mean(); got != 30*time.Millisecond {
		t.Errorf("ring mean = %v after eviction, want 30ms", got)
	}
}

func TestLatencyRing_SamplesOldestFirst(t *testing.T) {
	r := newLatencyRing(3)
	for i := 1; i <= 5; i++ {
		r.push(time.Duration(i) * time.Millisecond)
	}

	got := r.samples()
	want := []time.Duration{3 * time.Millisecond, 4 * time.Millisecond, 5 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("samples len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("samples[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// Property: size never exceeds capacity, and the mean always lies within
// the min/max of the retained window.
func TestLatencyRing_Properties(t *testing.T) {
	f := func(raw []uint16) bool {
		r := newLatencyRing(8)
		for _, v := range raw {
			r.push(time.Duration(v) * time.Microsecond)
		}

		if r.len() > 8 {
			t.Logf("size %d exceeded capacity", r.len())
			return false
		}
		if r.len() == 0 {
			return r.mean() == 0
		}

		samples := r.samples()
		min, max := samples[0], samples[0]
		for _, s := range samples[1:] {
			if s < min {
				min = s
			}
			if s > max {
				max = s
			}
		}
		m := r.mean()
		if m < min || m > max {
			t.Logf("mean %v outside window [%v, %v]", m, min, max)
			return false
		}
		return true
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Errorf("property violated: %v", err)
	}
}
