// Package core wires the observation source, the analyzer, the metrics
// monitor and the MQTT surface into one session-scoped service.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/care/facesense/internal/analyzer"
	"github.com/care/facesense/internal/config"
	"github.com/care/facesense/internal/control"
	"github.com/care/facesense/internal/emitter"
	"github.com/care/facesense/internal/monitor"
	"github.com/care/facesense/internal/source"
	"github.com/care/facesense/internal/telemetry"
	"github.com/care/facesense/internal/types"
)

// Service is the main facesense orchestrator. One instance per session.
type Service struct {
	cfg *config.Config

	src            source.Source
	analyzer       *analyzer.Analyzer
	monitor        *monitor.Monitor
	emitter        *emitter.MQTTEmitter
	controlHandler *control.Handler

	// Lifecycle management
	started   time.Time
	mu        sync.RWMutex
	wg        sync.WaitGroup
	isRunning bool
	isPaused  bool
	cancelRun context.CancelFunc

	// Counter snapshots readable outside the frame loop
	blinks         atomic.Uint64
	frowns         atomic.Uint64
	framesAnalyzed atomic.Uint64

	// reset requested from the control plane, honored by the frame loop
	// at the next safe point
	resetRequested atomic.Bool

	// threshold update pending from the control plane; values guarded by
	// mu, the flag consumed by the frame loop
	thresholdUpdate atomic.Bool
	pendingEAR      float64
	pendingMAR      float64

	// wasTooClose tracks the proximity alert edge across frames
	wasTooClose bool

	summaryOnce  sync.Once
	finalSummary types.SessionSummary
}

// NewService creates a service instance from a configuration file.
func NewService(configPath string) (*Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newService(cfg)
}

func newService(cfg *config.Config) (*Service, error) {
	slog.Info("configuration loaded",
		"instance_id", cfg.InstanceID,
		"room_id", cfg.RoomID,
		"source", cfg.Source.Kind,
	)

	s := &Service{
		cfg:      cfg,
		analyzer: analyzer.New(cfg),
		emitter:  emitter.NewMQTTEmitter(cfg),
	}
	s.monitor = monitor.New(cfg.Metrics, telemetry.NewProcSampler(), s.publishSample)

	switch cfg.Source.Kind {
	case "worker":
		worker, err := source.NewLandmarkWorker(cfg.Source.Worker)
		if err != nil {
			return nil, fmt.Errorf("failed to create landmark worker: %w", err)
		}
		s.src = worker
	default:
		s.src = source.NewMockSource(1280, 720, cfg.Source.FPS)
		slog.Info("using mock observation source")
	}

	return s, nil
}

// Run starts the service and blocks until the session ends: the context
// is cancelled, the configured duration elapses, or the observation
// source terminates.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("service is already running")
	}
	s.isRunning = true
	s.started = time.Now()
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.cfg.Session.DurationS > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Session.DurationS)*time.Second)
		defer cancel()
	}

	s.mu.Lock()
	s.cancelRun = cancel // for the shutdown control command
	s.mu.Unlock()

	slog.Info("facesense session starting",
		"instance_id", s.cfg.InstanceID,
		"duration_s", s.cfg.Session.DurationS,
		"process_every", s.cfg.Session.ProcessEvery,
	)

	if err := s.emitter.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect mqtt: %w", err)
	}

	s.controlHandler = control.NewHandler(s.cfg, s.emitter.Client, control.CommandCallbacks{
		OnGetStatus:        s.getStatus,
		OnGetSummary:       s.getSummary,
		OnPause:            s.pause,
		OnResume:           s.resume,
		OnResetCounters:    s.requestReset,
		OnUpdateThresholds: s.requestThresholdUpdate,
		OnShutdown:         s.shutdownViaControl,
	})
	if err := s.controlHandler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start control plane: %w", err)
	}

	if err := s.src.Start(ctx); err != nil {
		return fmt.Errorf("failed to start observation source: %w", err)
	}

	// Periodic performance sampler runs alongside the frame loop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.monitor.Run(ctx)
	}()

	slog.Info("facesense session running")

	s.consumeObservations(ctx)

	slog.Info("facesense session run loop exiting")
	return nil
}

// consumeObservations is the strictly sequential frame loop.
func (s *Service) consumeObservations(ctx context.Context) {
	var framesSeen uint64
	processEvery := uint64(s.cfg.Session.ProcessEvery)

	for {
		select {
		case <-ctx.Done():
			return

		case obs, ok := <-s.src.Observations():
			if !ok {
				// Upstream stopped producing frames: terminal condition,
				// the session shuts down and the summary is emitted.
				slog.Info("observation source exhausted, ending session",
					"frames_seen", framesSeen,
				)
				return
			}

			framesSeen++
			if framesSeen%processEvery != 0 {
				continue
			}
			if s.isPausedCheck() {
				continue
			}

			if s.resetRequested.CompareAndSwap(true, false) {
				s.analyzer.ResetCounters()
				slog.Info("session counters reset")
			}
			if s.thresholdUpdate.CompareAndSwap(true, false) {
				s.mu.RLock()
				ear, mar := s.pendingEAR, s.pendingMAR
				s.mu.RUnlock()
				s.analyzer.UpdateThresholds(ear, mar)
				slog.Info("detection thresholds updated",
					"ear_threshold", ear,
					"mar_threshold", mar,
				)
			}

			frameStart := time.Now()
			report := s.analyzer.Process(obs)
			s.monitor.RecordLatency(time.Since(frameStart))

			blinks, frowns, frames := s.analyzer.Counters()
			s.blinks.Store(blinks)
			s.frowns.Store(frowns)
			s.framesAnalyzed.Store(frames)

			s.emitSignals(report)
		}
	}
}

// emitSignals publishes the edge-triggered events of one frame report.
func (s *Service) emitSignals(report types.FrameReport) {
	if report.BlinkTriggered {
		s.publishEvent(types.NewBlinkEvent(s.cfg.InstanceID, s.cfg.RoomID, report))
	}
	if report.FrownTriggered {
		s.publishEvent(types.NewFrownEvent(s.cfg.InstanceID, s.cfg.RoomID, report))
	}

	// Proximity alert fires on the edge into the too-close range. Frames
	// without a face carry the previous reading, so they cannot re-fire.
	if report.Distance.TooClose && !s.wasTooClose {
		s.publishEvent(types.NewProximityAlert(
			s.cfg.InstanceID, s.cfg.RoomID, s.analyzer.AlertThresholdCM(), report))
	}
	s.wasTooClose = report.Distance.TooClose
}

func (s *Service) publishEvent(event types.Event) {
	if err := s.emitter.Publish(event); err != nil {
		slog.Error("failed to publish event",
			"type", event.Type(),
			"error", err,
		)
	}
}

// publishSample forwards a periodic metrics sample to MQTT.
func (s *Service) publishSample(sample types.MetricsSample) {
	sample.InstanceID = s.cfg.InstanceID
	sample.RoomID = s.cfg.RoomID
	s.publishEvent(&sample)
}

// Shutdown performs graceful shutdown and emits the final summary.
// Safe to call after Run returned for any reason; the summary is
// computed exactly once.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	slog.Info("shutting down facesense service")

	// 1. Stop the source first: no more observations
	if s.src != nil {
		if err := s.src.Stop(); err != nil {
			slog.Error("failed to stop observation source", "error", err)
		}
	}

	// 2. Stop the control plane
	if s.controlHandler != nil {
		if err := s.controlHandler.Stop(); err != nil {
			slog.Error("failed to stop control handler", "error", err)
		}
	}

	// 3. Cancel the run context and wait for the sampler
	s.mu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.mu.Unlock()
	s.wg.Wait()

	// 4. Final summary: computed once, logged, published
	summary := s.Summary()
	s.publishEvent(&summary)

	// 5. Disconnect MQTT
	if s.emitter != nil {
		if err := s.emitter.Disconnect(); err != nil {
			slog.Error("failed to disconnect mqtt", "error", err)
		}
	}

	s.mu.Lock()
	uptime := time.Since(s.started)
	s.isRunning = false
	s.mu.Unlock()

	slog.Info("facesense service shutdown complete", "uptime", uptime)

	return nil
}

// Summary returns the session summary. The first call fixes the final
// statistics; later calls return the same snapshot.
func (s *Service) Summary() types.SessionSummary {
	s.summaryOnce.Do(func() {
		s.finalSummary = s.buildSummary()
		logSummary(s.finalSummary)
	})
	return s.finalSummary
}

// LiveSummary returns current statistics without fixing the final
// summary; used by the control plane while the session is running.
func (s *Service) LiveSummary() types.SessionSummary {
	return s.buildSummary()
}

func (s *Service) buildSummary() types.SessionSummary {
	m := s.monitor.Summarize()

	summary := types.SessionSummary{
		InstanceID:     s.cfg.InstanceID,
		RoomID:         s.cfg.RoomID,
		RuntimeSeconds: m.Runtime.Seconds(),
		AvgCPUPercent:  m.AvgCPUPercent,
		PeakCPUPercent: m.PeakCPUPercent,
		AvgMemPercent:  m.AvgMemPercent,
		PeakMemPercent: m.PeakMemPercent,
		AvgFPS:         m.AvgFPS,
		AvgLatencyMS:   m.AvgLatencyMS,
		FramesAnalyzed: s.framesAnalyzed.Load(),
		TotalBlinks:    s.blinks.Load(),
		TotalFrowns:    s.frowns.Load(),
	}
	types.StampSessionSummary(&summary, time.Now())
	return summary
}

func logSummary(sum types.SessionSummary) {
	slog.Info("final session statistics",
		"runtime_s", int(sum.RuntimeSeconds),
		"avg_cpu_pct", sum.AvgCPUPercent,
		"peak_cpu_pct", sum.PeakCPUPercent,
		"avg_memory_pct", sum.AvgMemPercent,
		"peak_memory_pct", sum.PeakMemPercent,
		"avg_fps", sum.AvgFPS,
		"avg_latency_ms", sum.AvgLatencyMS,
		"frames_analyzed", sum.FramesAnalyzed,
		"total_blinks", sum.TotalBlinks,
		"total_frowns", sum.TotalFrowns,
	)
}

// ShutdownTimeout returns the configured graceful shutdown timeout.
func (s *Service) ShutdownTimeout() time.Duration {
	timeout := time.Duration(s.cfg.ShutdownTimeoutS) * time.Second
	if timeout == 0 {
		return 5 * time.Second
	}
	return timeout
}

func (s *Service) isPausedCheck() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isPaused
}

// Control plane callbacks

func (s *Service) getStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"instance_id":     s.cfg.InstanceID,
		"room_id":         s.cfg.RoomID,
		"uptime_s":        time.Since(s.started).Seconds(),
		"running":         s.isRunning,
		"paused":          s.isPaused,
		"blinks":          s.blinks.Load(),
		"frowns":          s.frowns.Load(),
		"frames_analyzed": s.framesAnalyzed.Load(),
		"fps":             s.monitor.FPS(),
		"latency_ms":      s.monitor.MeanLatencyMS(),
	}
}

func (s *Service) getSummary() map[string]interface{} {
	sum := s.LiveSummary()
	return map[string]interface{}{
		"runtime_s":       sum.RuntimeSeconds,
		"avg_cpu_pct":     sum.AvgCPUPercent,
		"peak_cpu_pct":    sum.PeakCPUPercent,
		"avg_memory_pct":  sum.AvgMemPercent,
		"peak_memory_pct": sum.PeakMemPercent,
		"avg_fps":         sum.AvgFPS,
		"avg_latency_ms":  sum.AvgLatencyMS,
		"frames_analyzed": sum.FramesAnalyzed,
		"total_blinks":    sum.TotalBlinks,
		"total_frowns":    sum.TotalFrowns,
	}
}

func (s *Service) pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isPaused = true
	slog.Info("analysis paused")
	return nil
}

func (s *Service) resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isPaused = false
	slog.Info("analysis resumed")
	return nil
}

func (s *Service) requestReset() error {
	s.resetRequested.Store(true)
	return nil
}

// requestThresholdUpdate validates and stages new detection thresholds;
// the frame loop applies them at its next safe point.
func (s *Service) requestThresholdUpdate(params map[string]interface{}) error {
	ear, earOK := floatParam(params, "ear_threshold")
	mar, marOK := floatParam(params, "mar_threshold")
	if !earOK && !marOK {
		return fmt.Errorf("update_thresholds requires ear_threshold and/or mar_threshold")
	}
	if earOK && (ear <= 0 || ear >= 1) {
		return fmt.Errorf("ear_threshold must be in (0, 1), got %v", ear)
	}
	if marOK && mar <= 0 {
		return fmt.Errorf("mar_threshold must be > 0, got %v", mar)
	}

	s.mu.Lock()
	s.pendingEAR, s.pendingMAR = 0, 0
	if earOK {
		s.pendingEAR = ear
	}
	if marOK {
		s.pendingMAR = mar
	}
	s.mu.Unlock()
	s.thresholdUpdate.Store(true)
	return nil
}

func floatParam(params map[string]interface{}, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	return f, ok
}

func (s *Service) shutdownViaControl() error {
	slog.Info("shutdown requested via control plane")
	s.mu.RLock()
	cancel := s.cancelRun
	s.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	return nil
}
