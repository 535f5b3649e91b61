package types

import (
	"encoding/json"
	"time"
)

// Event is the interface that all emitted analysis events implement
type Event interface {
	// Type returns the event type (blink, frown, proximity_alert, ...)
	Type() string
	// Timestamp returns when the event was generated
	Timestamp() time.Time
	// ToJSON converts the event to JSON bytes
	ToJSON() ([]byte, error)
}

// EventMetadata contains common metadata attached to every event
type EventMetadata struct {
	FrameSeq    uint64  `json:"frame_seq"`
	TraceID     string  `json:"trace_id,omitempty"`
	FrameWidth  int     `json:"frame_width"`
	FrameHeight int     `json:"frame_height"`
	LatencyMS   float64 `json:"latency_ms,omitempty"`
}

// BlinkEvent is emitted on the open-to-closed eye transition
type BlinkEvent struct {
	InstanceID   string        `json:"instance_id"`
	RoomID       string        `json:"room_id"`
	EventType    string        `json:"event_type"`
	EAR          float64       `json:"ear"`
	BlinkCount   uint64        `json:"blink_count"`
	Metadata     EventMetadata `json:"metadata"`
	TimestampStr string        `json:"timestamp"`
	ts           time.Time
}

// NewBlinkEvent builds a blink event from a frame report.
func NewBlinkEvent(instanceID, roomID string, r FrameReport) *BlinkEvent {
	return &BlinkEvent{
		InstanceID:   instanceID,
		RoomID:       roomID,
		EventType:    "blink",
		EAR:          r.EAR,
		BlinkCount:   r.BlinkCount,
		Metadata:     reportMetadata(r),
		TimestampStr: r.Timestamp.Format(time.RFC3339Nano),
		ts:           r.Timestamp,
	}
}

// Type implements Event
func (e *BlinkEvent) Type() string { return "blink" }

// Timestamp implements Event
func (e *BlinkEvent) Timestamp() time.Time { return e.ts }

// ToJSON implements Event
func (e *BlinkEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// FrownEvent is emitted on the transition into a frowning state
type FrownEvent struct {
	InstanceID   string        `json:"instance_id"`
	RoomID       string        `json:"room_id"`
	EventType    string        `json:"event_type"`
	MAR          float64       `json:"mar"`
	FrownCount   uint64        `json:"frown_count"`
	Metadata     EventMetadata `json:"metadata"`
	TimestampStr string        `json:"timestamp"`
	ts           time.Time
}

// NewFrownEvent builds a frown event from a frame report.
func NewFrownEvent(instanceID, roomID string, r FrameReport) *FrownEvent {
	return &FrownEvent{
		InstanceID:   instanceID,
		RoomID:       roomID,
		EventType:    "frown",
		MAR:          r.MAR,
		FrownCount:   r.FrownCount,
		Metadata:     reportMetadata(r),
		TimestampStr: r.Timestamp.Format(time.RFC3339Nano),
		ts:           r.Timestamp,
	}
}

// Type implements Event
func (e *FrownEvent) Type() string { return "frown" }

// Timestamp implements Event
func (e *FrownEvent) Timestamp() time.Time { return e.ts }

// ToJSON implements Event
func (e *FrownEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// ProximityAlert is emitted when the estimated distance enters the
// too-close range (edge-triggered by the core service, not per frame)
type ProximityAlert struct {
	InstanceID   string        `json:"instance_id"`
	RoomID       string        `json:"room_id"`
	EventType    string        `json:"event_type"`
	DistanceCM   float64       `json:"distance_cm"`
	ThresholdCM  float64       `json:"threshold_cm"`
	Metadata     EventMetadata `json:"metadata"`
	TimestampStr string        `json:"timestamp"`
	ts           time.Time
}

// NewProximityAlert builds a proximity alert from a frame report.
func NewProximityAlert(instanceID, roomID string, thresholdCM float64, r FrameReport) *ProximityAlert {
	return &ProximityAlert{
		InstanceID:   instanceID,
		RoomID:       roomID,
		EventType:    "proximity_alert",
		DistanceCM:   r.Distance.DistanceCM,
		ThresholdCM:  thresholdCM,
		Metadata:     reportMetadata(r),
		TimestampStr: r.Timestamp.Format(time.RFC3339Nano),
		ts:           r.Timestamp,
	}
}

// Type implements Event
func (e *ProximityAlert) Type() string { return "proximity_alert" }

// Timestamp implements Event
func (e *ProximityAlert) Timestamp() time.Time { return e.ts }

// ToJSON implements Event
func (e *ProximityAlert) ToJSON() ([]byte, error) { return json.Marshal(e) }

// MetricsSample is one periodic performance sample
type MetricsSample struct {
	InstanceID   string  `json:"instance_id"`
	RoomID       string  `json:"room_id"`
	EventType    string  `json:"event_type"`
	CPUPercent   float64 `json:"cpu_percent"`
	MemPercent   float64 `json:"memory_percent"`
	FPS          float64 `json:"fps"`
	LatencyMS    float64 `json:"latency_ms"`
	TimestampStr string  `json:"timestamp"`
	ts           time.Time
}

// Type implements Event
func (e *MetricsSample) Type() string { return "metrics_sample" }

// Timestamp implements Event
func (e *MetricsSample) Timestamp() time.Time { return e.ts }

// ToJSON implements Event
func (e *MetricsSample) ToJSON() ([]byte, error) { return json.Marshal(e) }

// StampMetricsSample fills the timestamp fields of a sample.
func StampMetricsSample(s *MetricsSample, t time.Time) {
	s.ts = t
	s.TimestampStr = t.Format(time.RFC3339Nano)
	if s.EventType == "" {
		s.EventType = "metrics_sample"
	}
}

// SessionSummary is the end-of-session statistics bundle
type SessionSummary struct {
	InstanceID     string  `json:"instance_id"`
	RoomID         string  `json:"room_id"`
	EventType      string  `json:"event_type"`
	RuntimeSeconds float64 `json:"runtime_seconds"`
	AvgCPUPercent  float64 `json:"avg_cpu_percent"`
	PeakCPUPercent float64 `json:"peak_cpu_percent"`
	AvgMemPercent  float64 `json:"avg_memory_percent"`
	PeakMemPercent float64 `json:"peak_memory_percent"`
	AvgFPS         float64 `json:"avg_fps"`
	AvgLatencyMS   float64 `json:"avg_latency_ms"`
	FramesAnalyzed uint64  `json:"frames_analyzed"`
	TotalBlinks    uint64  `json:"total_blinks"`
	TotalFrowns    uint64  `json:"total_frowns"`
	TimestampStr   string  `json:"timestamp"`
	ts             time.Time
}

// Type implements Event
func (e *SessionSummary) Type() string { return "session_summary" }

// Timestamp implements Event
func (e *SessionSummary) Timestamp() time.Time { return e.ts }

// ToJSON implements Event
func (e *SessionSummary) ToJSON() ([]byte, error) { return json.Marshal(e) }

// StampSessionSummary fills the timestamp fields of a summary.
func StampSessionSummary(s *SessionSummary, t time.Time) {
	s.ts = t
	s.TimestampStr = t.Format(time.RFC3339Nano)
	if s.EventType == "" {
		s.EventType = "session_summary"
	}
}

func reportMetadata(r FrameReport) EventMetadata {
	return EventMetadata{
		FrameSeq:    r.Seq,
		TraceID:     r.TraceID,
		FrameWidth:  r.FrameWidth,
		FrameHeight: r.FrameHeight,
	}
}
