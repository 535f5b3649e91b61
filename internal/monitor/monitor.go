// Package monitor aggregates process performance metrics: a rolling
// window of per-frame processing latencies and periodically sampled host
// load, feeding live samples and a final session summary.
//
// The frame loop and the periodic sampler both touch the aggregator, so
// every access to the ring and the accumulated series goes through one
// mutex. Snapshots are consistent but may be slightly stale, which is
// acceptable for monitoring.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/care/facesense/internal/config"
	"github.com/care/facesense/internal/telemetry"
	"github.com/care/facesense/internal/types"
)

// SampleSink receives each periodic metrics sample (for MQTT emission).
type SampleSink func(types.MetricsSample)

// Monitor owns the latency ring buffer and the accumulated per-session
// metric series. One instance per session.
type Monitor struct {
	sampler  telemetry.Sampler
	interval time.Duration
	sink     SampleSink

	mu      sync.Mutex
	ring    *latencyRing
	cpu     []float64
	mem     []float64
	fps     []float64
	latency []float64 // milliseconds
	started time.Time
}

// New creates a monitor. sink may be nil.
func New(cfg config.MetricsConfig, sampler telemetry.Sampler, sink SampleSink) *Monitor {
	return &Monitor{
		sampler:  sampler,
		interval: time.Duration(cfg.SampleIntervalS) * time.Second,
		sink:     sink,
		ring:     newLatencyRing(cfg.LatencyWindow),
		started:  time.Now(),
	}
}

// RecordLatency pushes one frame's processing duration into the rolling
// window. Called from the frame loop.
func (m *Monitor) RecordLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ring.push(d)
}

// FPS derives the current frame rate from the rolling window: the
// inverse of the mean processing latency, 0 when the window is empty.
func (m *Monitor) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fpsLocked()
}

// MeanLatencyMS returns the mean of the rolling window in milliseconds.
func (m *Monitor) MeanLatencyMS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meanLatencyMSLocked()
}

func (m *Monitor) fpsLocked() float64 {
	mean := m.ring.mean()
	if mean <= 0 {
		return 0
	}
	return 1.0 / mean.Seconds()
}

func (m *Monitor) meanLatencyMSLocked() float64 {
	return float64(m.ring.mean()) / float64(time.Millisecond)
}

// Run samples host load on the configured interval until the context is
// cancelled. Sampling failures are logged and the sample skipped; they
// never end the session.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("metrics sampler started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("metrics sampler stopped")
			return
		case <-ticker.C:
			m.sampleOnce()
		}
	}
}

// sampleOnce takes one periodic sample, appends it to the session series
// and logs it.
func (m *Monitor) sampleOnce() {
	cpu, err := m.sampler.CPUPercent()
	if err != nil {
		slog.Warn("cpu sample failed, skipping", "error", err)
		return
	}
	mem, err := m.sampler.ProcessMemoryPercent()
	if err != nil {
		slog.Warn("memory sample failed, skipping", "error", err)
		return
	}

	m.mu.Lock()
	fps := m.fpsLocked()
	latencyMS := m.meanLatencyMSLocked()
	m.cpu = append(m.cpu, cpu)
	m.mem = append(m.mem, mem)
	m.fps = append(m.fps, fps)
	m.latency = append(m.latency, latencyMS)
	m.mu.Unlock()

	slog.Info("performance sample",
		"cpu_pct", round1(cpu),
		"memory_pct", round1(mem),
		"fps", round1(fps),
		"latency_ms", round1(latencyMS),
	)

	if m.sink != nil {
		sample := types.MetricsSample{
			CPUPercent: cpu,
			MemPercent: mem,
			FPS:        fps,
			LatencyMS:  latencyMS,
		}
		types.StampMetricsSample(&sample, time.Now())
		m.sink(sample)
	}
}

// Summary contains the aggregated session statistics.
type Summary struct {
	Runtime        time.Duration
	AvgCPUPercent  float64
	PeakCPUPercent float64
	AvgMemPercent  float64
	PeakMemPercent float64
	AvgFPS         float64
	AvgLatencyMS   float64
	Samples        int
}

// Summarize computes averages and peaks over the accumulated series. A
// session that never produced a sample reports zeros, not an error: each
// empty series is seeded with a single zero before reduction.
func (m *Monitor) Summarize() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	cpu := seeded(m.cpu)
	mem := seeded(m.mem)
	fps := seeded(m.fps)
	latency := seeded(m.latency)

	return Summary{
		Runtime:        time.Since(m.started),
		AvgCPUPercent:  mean(cpu),
		PeakCPUPercent: peak(cpu),
		AvgMemPercent:  mean(mem),
		PeakMemPercent: peak(mem),
		AvgFPS:         mean(fps),
		AvgLatencyMS:   mean(latency),
		Samples:        len(m.cpu),
	}
}

// LatencyWindow returns the retained latency samples, oldest first.
func (m *Monitor) LatencyWindow() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.samples()
}

// seeded returns the series itself, or a single zero element when empty,
// so reductions never run over an empty sequence.
func seeded(s []float64) []float64 {
	if len(s) == 0 {
		return []float64{0}
	}
	return s
}

func mean(s []float64) float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total / float64(len(s))
}

func peak(s []float64) float64 {
	max := s[0]
	for _, v := range s[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
