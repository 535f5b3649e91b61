package source

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/care/facesense/internal/config"
	"github.com/care/facesense/internal/types"
)

// LandmarkWorker wraps the external face-detection/landmark subprocess.
// The worker owns the camera and the models; this side only decodes the
// length-prefixed MsgPack observation records it writes to stdout.
type LandmarkWorker struct {
	cfg config.WorkerConfig

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	observations chan types.FrameObservation

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	isActive atomic.Bool

	framesRead   uint64
	decodeErrors uint64
}

// NewLandmarkWorker creates a landmark worker source from configuration.
func NewLandmarkWorker(cfg config.WorkerConfig) (*LandmarkWorker, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("worker command is required")
	}

	return &LandmarkWorker{
		cfg:          cfg,
		observations: make(chan types.FrameObservation, 10),
	}, nil
}

// Start spawns the worker subprocess and begins decoding observations.
func (w *LandmarkWorker) Start(ctx context.Context) error {
	if w.isActive.Load() {
		return fmt.Errorf("worker already started")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)

	args := append([]string{}, w.cfg.Args...)
	if w.cfg.ModelPath != "" {
		args = append(args, "--model", w.cfg.ModelPath)
	}
	args = append(args, "--camera", strconv.Itoa(w.cfg.CameraIdx))

	w.cmd = exec.CommandContext(w.ctx, w.cfg.Command, args...)

	stdout, err := w.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	w.stdout = stdout

	stderr, err := w.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	w.stderr = stderr

	if err := w.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start landmark worker: %w", err)
	}

	w.isActive.Store(true)

	slog.Info("landmark worker spawned",
		"command", w.cfg.Command,
		"pid", w.cmd.Process.Pid,
	)

	w.wg.Add(1)
	go w.readObservations()

	w.wg.Add(1)
	go w.logStderr()

	w.wg.Add(1)
	go w.waitProcess()

	return nil
}

// Observations implements Source.
func (w *LandmarkWorker) Observations() <-chan types.FrameObservation {
	return w.observations
}

// readObservations reads length-prefixed MsgPack records from the worker
// stdout and forwards decoded observations.
func (w *LandmarkWorker) readObservations() {
	defer w.wg.Done()
	defer close(w.observations)

	lengthBuf := make([]byte, 4)

	for {
		if _, err := io.ReadFull(w.stdout, lengthBuf); err != nil {
			if err == io.EOF {
				// Worker exited; channel close signals the terminal
				// condition to the session loop.
				slog.Info("landmark worker stdout closed",
					"frames_read", atomic.LoadUint64(&w.framesRead),
				)
				return
			}
			slog.Error("failed to read length prefix from landmark worker", "error", err)
			return
		}

		msgLength := binary.BigEndian.Uint32(lengthBuf)
		record := make([]byte, msgLength)
		if _, err := io.ReadFull(w.stdout, record); err != nil {
			slog.Error("failed to read observation record",
				"error", err,
				"expected_length", msgLength,
			)
			return
		}

		obs, err := decodeObservation(record)
		if err != nil {
			atomic.AddUint64(&w.decodeErrors, 1)
			slog.Error("failed to decode observation, skipping record",
				"error", err,
				"record_length", len(record),
			)
			continue
		}
		obs.TraceID = uuid.New().String()

		atomic.AddUint64(&w.framesRead, 1)

		select {
		case w.observations <- obs:
		case <-w.ctx.Done():
			return
		}
	}
}

// logStderr maps the worker's stderr log lines onto slog levels.
func (w *LandmarkWorker) logStderr() {
	defer w.wg.Done()

	scanner := bufio.NewScanner(w.stderr)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case containsAny(line, "[ERROR]", "[CRITICAL]"):
			slog.Error("landmark worker error", "log", line)
		case containsAny(line, "[WARNING]", "[WARN]"):
			slog.Warn("landmark worker warning", "log", line)
		default:
			slog.Debug("landmark worker log", "log", line)
		}
	}

	if err := scanner.Err(); err != nil {
		slog.Error("error reading landmark worker stderr", "error", err)
	}
}

// waitProcess reaps the subprocess to prevent zombies.
func (w *LandmarkWorker) waitProcess() {
	defer w.wg.Done()

	if w.cmd == nil || w.cmd.Process == nil {
		return
	}

	err := w.cmd.Wait()
	if err != nil {
		select {
		case <-w.ctx.Done():
			slog.Debug("landmark worker exited (shutdown)", "pid", w.cmd.Process.Pid)
		default:
			slog.Error("landmark worker exited unexpectedly",
				"pid", w.cmd.Process.Pid,
				"error", err,
			)
		}
		return
	}

	slog.Info("landmark worker exited cleanly", "pid", w.cmd.Process.Pid)
}

// Stop terminates the worker. Waits briefly for a clean exit, then kills.
func (w *LandmarkWorker) Stop() error {
	if !w.isActive.Load() {
		return nil
	}
	w.isActive.Store(false)

	slog.Info("stopping landmark worker")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("landmark worker stopped cleanly")
	case <-time.After(2 * time.Second):
		slog.Warn("landmark worker stop timeout, force killing")
		if w.cmd != nil && w.cmd.Process != nil {
			if err := w.cmd.Process.Kill(); err != nil {
				slog.Error("failed to kill landmark worker", "error", err)
			}
		}
		<-done
	}

	return nil
}

// containsAny checks if s contains any of the given substrings
func containsAny(s string, substrs ...string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
