// Package control implements the MQTT control plane: runtime commands
// for the running analysis session.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/care/facesense/internal/config"
)

// Command represents a control plane command
type Command struct {
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Response represents a command response
type Response struct {
	CommandAck string                 `json:"command_ack"`
	Status     string                 `json:"status"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

// CommandCallbacks contains callback functions for commands
type CommandCallbacks struct {
	OnGetStatus        func() map[string]interface{}
	OnGetSummary       func() map[string]interface{}
	OnPause            func() error
	OnResume           func() error
	OnResetCounters    func() error
	OnUpdateThresholds func(params map[string]interface{}) error
	OnShutdown         func() error
}

// Handler handles control plane commands
type Handler struct {
	cfg       *config.Config
	client    mqtt.Client
	commands  chan Command
	callbacks CommandCallbacks
}

// NewHandler creates a new control plane handler
func NewHandler(cfg *config.Config, client mqtt.Client, callbacks CommandCallbacks) *Handler {
	return &Handler{
		cfg:       cfg,
		client:    client,
		commands:  make(chan Command, 10),
		callbacks: callbacks,
	}
}

// Start starts listening for control commands
func (h *Handler) Start(ctx context.Context) error {
	topic := h.cfg.MQTT.Topics.Control
	qos := h.cfg.MQTT.QoS["control"]

	slog.Info("subscribing to control plane", "topic", topic, "qos", qos)

	token := h.client.Subscribe(topic, qos, h.messageHandler)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("control plane subscription timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("control plane subscription failed: %w", err)
	}

	slog.Info("control plane handler started")

	go h.processCommands(ctx)

	return nil
}

// Stop stops the control plane handler
func (h *Handler) Stop() error {
	topic := h.cfg.MQTT.Topics.Control

	if h.client != nil && h.client.IsConnected() {
		token := h.client.Unsubscribe(topic)
		token.Wait()
	}

	close(h.commands)

	slog.Info("control plane handler stopped")
	return nil
}

// messageHandler is called when a control message is received
func (h *Handler) messageHandler(client mqtt.Client, msg mqtt.Message) {
	var cmd Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		slog.Error("failed to parse control command",
			"error", err,
			"payload_size", len(msg.Payload()),
		)
		return
	}

	select {
	case h.commands <- cmd:
	default:
		slog.Warn("control command queue full, dropping", "command", cmd.Command)
	}
}

// processCommands dispatches queued commands to their callbacks
func (h *Handler) processCommands(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-h.commands:
			if !ok {
				return
			}
			h.dispatch(cmd)
		}
	}
}

func (h *Handler) dispatch(cmd Command) {
	slog.Info("control command received", "command", cmd.Command)

	switch cmd.Command {
	case "get_status":
		if h.callbacks.OnGetStatus != nil {
			h.respondOK(cmd, h.callbacks.OnGetStatus())
		}
	case "get_summary":
		if h.callbacks.OnGetSummary != nil {
			h.respondOK(cmd, h.callbacks.OnGetSummary())
		}
	case "pause":
		h.respondErr(cmd, callOrNil(h.callbacks.OnPause))
	case "resume":
		h.respondErr(cmd, callOrNil(h.callbacks.OnResume))
	case "reset_counters":
		h.respondErr(cmd, callOrNil(h.callbacks.OnResetCounters))
	case "update_thresholds":
		if h.callbacks.OnUpdateThresholds == nil {
			h.respondErr(cmd, fmt.Errorf("command not supported"))
			return
		}
		h.respondErr(cmd, h.callbacks.OnUpdateThresholds(cmd.Params))
	case "shutdown":
		h.respondErr(cmd, callOrNil(h.callbacks.OnShutdown))
	default:
		h.publishResponse(Response{
			CommandAck: cmd.Command,
			Status:     "error",
			Error:      fmt.Sprintf("unknown command: %s", cmd.Command),
		})
	}
}

func callOrNil(fn func() error) error {
	if fn == nil {
		return fmt.Errorf("command not supported")
	}
	return fn()
}

func (h *Handler) respondOK(cmd Command, data map[string]interface{}) {
	h.publishResponse(Response{
		CommandAck: cmd.Command,
		Status:     "ok",
		Data:       data,
	})
}

func (h *Handler) respondErr(cmd Command, err error) {
	if err != nil {
		h.publishResponse(Response{
			CommandAck: cmd.Command,
			Status:     "error",
			Error:      err.Error(),
		})
		return
	}
	h.publishResponse(Response{
		CommandAck: cmd.Command,
		Status:     "ok",
	})
}

// publishResponse publishes a command response on the response topic
func (h *Handler) publishResponse(resp Response) {
	resp.Timestamp = time.Now().Format(time.RFC3339Nano)

	payload, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to marshal control response", "error", err)
		return
	}

	topic := h.cfg.MQTT.Topics.Control + "/response"
	token := h.client.Publish(topic, h.cfg.MQTT.QoS["control"], false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		slog.Warn("control response publish timeout", "command", resp.CommandAck)
		return
	}
	if err := token.Error(); err != nil {
		slog.Error("control response publish failed",
			"command", resp.CommandAck,
			"error", err,
		)
	}
}
