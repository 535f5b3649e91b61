// Package telemetry samples host CPU utilization and process memory
// utilization for the performance monitor.
//
// The implementation reads procfs directly: /proc/stat for aggregate CPU
// time, /proc/self/status and /proc/meminfo for process RSS against total
// memory. CPU utilization is computed as the busy share of the delta
// between consecutive samples, so the first reading after creation covers
// the interval since the sampler was created.
package telemetry

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Sampler provides host telemetry readings. Implementations may fail on
// any call; callers treat a failed reading as a skipped sample.
type Sampler interface {
	// CPUPercent returns aggregate CPU utilization since the previous
	// call, in [0, 100].
	CPUPercent() (float64, error)
	// ProcessMemoryPercent returns this process's resident memory as a
	// percentage of total host memory.
	ProcessMemoryPercent() (float64, error)
}

// ProcSampler reads CPU and memory utilization from procfs.
type ProcSampler struct {
	statPath    string
	statusPath  string
	meminfoPath string

	prevBusy  uint64
	prevTotal uint64
}

// NewProcSampler creates a sampler over the standard procfs paths and
// primes the CPU baseline.
func NewProcSampler() *ProcSampler {
	s := &ProcSampler{
		statPath:    "/proc/stat",
		statusPath:  "/proc/self/status",
		meminfoPath: "/proc/meminfo",
	}
	// Prime the baseline; a failure here just means the first CPUPercent
	// call reads against a zero baseline and reports the boot average.
	if busy, total, err := s.readCPUTimes(); err == nil {
		s.prevBusy, s.prevTotal = busy, total
	}
	return s
}

// CPUPercent implements Sampler.
func (s *ProcSampler) CPUPercent() (float64, error) {
	busy, total, err := s.readCPUTimes()
	if err != nil {
		return 0, err
	}

	deltaBusy := busy - s.prevBusy
	deltaTotal := total - s.prevTotal
	s.prevBusy, s.prevTotal = busy, total

	if deltaTotal == 0 {
		return 0, nil
	}
	return 100.0 * float64(deltaBusy) / float64(deltaTotal), nil
}

// ProcessMemoryPercent implements Sampler.
func (s *ProcSampler) ProcessMemoryPercent() (float64, error) {
	rssKB, err := readKBField(s.statusPath, "VmRSS:")
	if err != nil {
		return 0, fmt.Errorf("failed to read process rss: %w", err)
	}
	totalKB, err := readKBField(s.meminfoPath, "MemTotal:")
	if err != nil {
		return 0, fmt.Errorf("failed to read host memory total: %w", err)
	}
	if totalKB == 0 {
		return 0, fmt.Errorf("meminfo reports zero total memory")
	}
	return 100.0 * float64(rssKB) / float64(totalKB), nil
}

// readCPUTimes parses the aggregate "cpu" line of /proc/stat and returns
// busy and total jiffies.
func (s *ProcSampler) readCPUTimes() (busy, total uint64, err error) {
	f, err := os.Open(s.statPath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open %s: %w", s.statPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, 0, fmt.Errorf("empty %s", s.statPath)
	}

	fields := strings.Fields(scanner.Text())
	if len(fields) < 5 || fields[0] != "cpu" {
		return 0, 0, fmt.Errorf("unexpected %s format: %q", s.statPath, scanner.Text())
	}

	// cpu user nice system idle iowait irq softirq steal ...
	var values []uint64
	for _, field := range fields[1:] {
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad cpu time field %q: %w", field, err)
		}
		values = append(values, v)
	}

	for i, v := range values {
		total += v
		// idle (3) and iowait (4) count as not busy
		if i != 3 && i != 4 {
			busy += v
		}
	}
	return busy, total, nil
}

// readKBField scans a "Key:   value kB" style file for the given key and
// returns the value in kilobytes.
func readKBField(path, key string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, key) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("malformed line %q in %s", line, path)
		}
		return strconv.ParseUint(fields[1], 10, 64)
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("%s not found in %s", key, path)
}
