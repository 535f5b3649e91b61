package emitter

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/care/facesense/internal/config"
	"github.com/care/facesense/internal/types"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type publishCall struct {
	topic string
	qos   byte
}

type fakeClient struct {
	mqtt.Client
	calls []publishCall
}

func (c *fakeClient) IsConnected() bool { return true }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.calls = append(c.calls, publishCall{topic: topic, qos: qos})
	return &fakeToken{}
}

func newTestEmitter() (*MQTTEmitter, *fakeClient) {
	e := NewMQTTEmitter(config.Default())
	client := &fakeClient{}
	e.Client = client
	e.connected = true
	return e, client
}

func testReport() types.FrameReport {
	return types.FrameReport{
		Seq:       12,
		Timestamp: time.Now(),
		EAR:       0.18,
		MAR:       0.31,
	}
}

func TestPublish_TopicRouting(t *testing.T) {
	e, client := newTestEmitter()

	blink := types.NewBlinkEvent("facesense-dev", "dev", testReport())
	if err := e.Publish(blink); err != nil {
		t.Fatalf("Publish(blink) error: %v", err)
	}

	sample := &types.MetricsSample{CPUPercent: 12}
	types.StampMetricsSample(sample, time.Now())
	if err := e.Publish(sample); err != nil {
		t.Fatalf("Publish(metrics) error: %v", err)
	}

	if len(client.calls) != 2 {
		t.Fatalf("published %d messages, want 2", len(client.calls))
	}
	if got := client.calls[0].topic; got != "care/events/facesense-dev/blink" {
		t.Errorf("blink topic = %q", got)
	}
	if got := client.calls[0].qos; got != 1 {
		t.Errorf("blink qos = %d, want 1", got)
	}
	if got := client.calls[1].topic; got != "care/metrics/facesense-dev" {
		t.Errorf("metrics topic = %q", got)
	}
	if got := client.calls[1].qos; got != 0 {
		t.Errorf("metrics qos = %d, want 0", got)
	}
}

func TestPublish_NotConnected(t *testing.T) {
	e := NewMQTTEmitter(config.Default())

	err := e.Publish(types.NewFrownEvent("facesense-dev", "dev", testReport()))
	if err == nil {
		t.Fatal("Publish() must fail before Connect()")
	}

	stats := e.Stats()
	if stats.Errors != 1 {
		t.Errorf("error count = %d, want 1", stats.Errors)
	}
	if stats.Connected {
		t.Error("stats report connected before Connect()")
	}
}

func TestStats_CountsPerTopic(t *testing.T) {
	e, _ := newTestEmitter()

	for i := 0; i < 3; i++ {
		if err := e.Publish(types.NewBlinkEvent("facesense-dev", "dev", testReport())); err != nil {
			t.Fatalf("Publish() error: %v", err)
		}
	}

	stats := e.Stats()
	if got := stats.Published["care/events/facesense-dev/blink"]; got != 3 {
		t.Errorf("published count = %d, want 3", got)
	}

	// The returned map is a copy
	stats.Published["care/events/facesense-dev/blink"] = 99
	if got := e.Stats().Published["care/events/facesense-dev/blink"]; got != 3 {
		t.Errorf("stats map aliased internal state: %d", got)
	}
}

func TestGetQoS_UnknownTypeDefaultsToZero(t *testing.T) {
	e, _ := newTestEmitter()
	if got := e.getQoS("unknown_event"); got != 0 {
		t.Errorf("getQoS(unknown) = %d, want 0", got)
	}
	if got := e.getQoS("proximity_alert"); got != 1 {
		t.Errorf("getQoS(proximity_alert) = %d, want 1", got)
	}
}
