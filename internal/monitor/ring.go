package monitor

import "time"

// latencyRing is a fixed-capacity ring buffer of frame-processing
// durations. On overflow the oldest entry is evicted. Not goroutine-safe;
// the Monitor serializes access.
type latencyRing struct {
	buf  []time.Duration
	head int
	size int
}

func newLatencyRing(capacity int) *latencyRing {
	return &latencyRing{buf: make([]time.Duration, capacity)}
}

// push appends a sample, evicting the oldest when full.
func (r *latencyRing) push(d time.Duration) {
	r.buf[r.head] = d
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

func (r *latencyRing) len() int {
	return r.size
}

// mean returns the average of the retained samples, zero when empty.
func (r *latencyRing) mean() time.Duration {
	if r.size == 0 {
		return 0
	}

	var total time.Duration
	for i := 0; i < r.size; i++ {
		total += r.buf[i]
	}
	return total / time.Duration(r.size)
}

// samples returns the retained samples, oldest first.
func (r *latencyRing) samples() []time.Duration {
	out := make([]time.Duration, 0, r.size)
	start := 0
	if r.size == len(r.buf) {
		start = r.head
	}
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}
