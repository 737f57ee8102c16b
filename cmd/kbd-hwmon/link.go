package main

import (
	"log/slog"
	"sync/atomic"

	"github.com/hwmon-accessory/kbd-go/pkg/input"
	"github.com/hwmon-accessory/kbd-go/pkg/interaction"
	"github.com/hwmon-accessory/kbd-go/pkg/keyboard"
	protolog "github.com/hwmon-accessory/kbd-go/pkg/log"
	"github.com/hwmon-accessory/kbd-go/pkg/transport"
)

// linkHandler attaches each opened link to the protocol client. A lost link
// counts as a disconnect of the accessory.
type linkHandler struct {
	client  *interaction.Client
	manager *keyboard.Manager
	logger  *slog.Logger
}

func (h *linkHandler) LinkUp(link *transport.Link) {
	h.client.Attach(link, link.ID())
	h.logger.Info("link up", "port", link.Port(), "conn", link.ID())
}

func (h *linkHandler) HandleFrame(frame []byte) {
	if err := h.client.HandleFrame(frame); err != nil {
		h.logger.Debug("inbound frame dropped", "error", err)
	}
}

func (h *linkHandler) LinkDown(link *transport.Link, err error) {
	h.client.Detach()
	h.manager.Disconnect()
	h.logger.Info("link down", "port", link.Port(), "conn", link.ID(), "error", err)
}

// traceSwitch forwards protocol events to a logger while enabled.
type traceSwitch struct {
	on   atomic.Bool
	next protolog.Logger
}

func newTraceSwitch(next protolog.Logger) *traceSwitch {
	return &traceSwitch{next: next}
}

func (t *traceSwitch) Log(event protolog.Event) {
	if t.on.Load() {
		t.next.Log(event)
	}
}

// SetTrace enables or disables forwarding.
func (t *traceSwitch) SetTrace(on bool) {
	t.on.Store(on)
}

// Trace reports whether forwarding is enabled.
func (t *traceSwitch) Trace() bool {
	return t.on.Load()
}

// inputLogger logs what the input surface reports to the host.
func inputLogger(logger *slog.Logger) input.Sink {
	return input.SinkFunc(func(ev input.Event) {
		if ev.Type == input.EvSyn {
			return
		}
		logger.Info("input event", "type", ev.Type.String(), "code", ev.Code, "value", ev.Value)
	})
}
