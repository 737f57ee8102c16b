package firmware

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/interaction"
	"github.com/hwmon-accessory/kbd-go/pkg/log"
	"github.com/hwmon-accessory/kbd-go/pkg/version"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// DefaultMaxPacketSize is the FWU data packet size negotiated with the
// accessory.
const DefaultMaxPacketSize = 256

// offsetSize is the size of the offset prefix on every data chunk.
const offsetSize = 4

// Orchestrator errors.
var (
	ErrVersionMismatch = errors.New("firmware version mismatch after update")
	ErrPacketTooSmall  = errors.New("max packet size leaves no room for data")
)

// Phase identifies a step of the update sequence.
type Phase uint8

const (
	PhaseInit Phase = iota + 1
	PhaseTransfer
	PhaseValidate
	PhaseReadBack
	PhaseActivate
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhaseTransfer:
		return "TRANSFER"
	case PhaseValidate:
		return "VALIDATE"
	case PhaseReadBack:
		return "READ_BACK"
	case PhaseActivate:
		return "ACTIVATE"
	default:
		return "UNKNOWN"
	}
}

// PhaseError reports the phase an update failed in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("firmware update %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// FailedPhase returns the phase err carries, or 0.
func FailedPhase(err error) Phase {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase
	}
	return 0
}

// UpdateContext is the transient state of one update.
type UpdateContext struct {
	// MaxPacketSize bounds one data packet including its offset prefix.
	MaxPacketSize int

	// Endpoint is the accessory endpoint being updated.
	Endpoint wire.Endpoint

	// Header is the candidate image's header.
	Header Header

	// ReadBack is the version the accessory reported after validation.
	ReadBack version.Version

	// Phase is the phase currently running.
	Phase Phase

	// Transferred counts payload bytes acknowledged by the accessory.
	Transferred int

	// Total is the payload size.
	Total int
}

// ChunkSize returns the payload bytes carried per data packet.
func (u *UpdateContext) ChunkSize() int {
	return u.MaxPacketSize - offsetSize
}

// VersionReader re-reads the accessory's attributes and returns the
// firmware version it now reports.
type VersionReader func(ctx context.Context) (version.Version, error)

// ProgressFunc observes update progress. It runs on the updating goroutine.
type ProgressFunc func(u UpdateContext)

// OrchestratorConfig configures an Orchestrator.
type OrchestratorConfig struct {
	// IO performs the protocol requests. Required.
	IO interaction.AttributeIO

	// MaxPacketSize defaults to DefaultMaxPacketSize.
	MaxPacketSize int

	// Progress is called after every phase change and chunk.
	Progress ProgressFunc

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// ProtocolLogger records phase changes.
	ProtocolLogger log.Logger
}

// Orchestrator runs firmware updates.
type Orchestrator struct {
	config OrchestratorConfig
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(config OrchestratorConfig) *Orchestrator {
	if config.MaxPacketSize == 0 {
		config.MaxPacketSize = DefaultMaxPacketSize
	}
	return &Orchestrator{config: config}
}

// Update flashes img onto the accessory at ep. readBack is called after
// validation and must return the version the accessory now reports.
func (o *Orchestrator) Update(ctx context.Context, ep wire.Endpoint, img *Image, readBack VersionReader) error {
	u := &UpdateContext{
		MaxPacketSize: o.config.MaxPacketSize,
		Endpoint:      ep,
		Header:        img.Header,
		Total:         len(img.Payload),
	}
	if u.ChunkSize() <= 0 {
		return &PhaseError{Phase: PhaseTransfer, Err: ErrPacketTooSmall}
	}

	o.info("firmware update starting", "image", img.Name, "version", img.Version.String(),
		"start", fmt.Sprintf("0x%08x", img.StartAddress), "size", u.Total)

	steps := []struct {
		phase Phase
		run   func() error
	}{
		{PhaseInit, func() error { return o.init(ctx, u) }},
		{PhaseTransfer, func() error { return o.transfer(ctx, u, img.Payload) }},
		{PhaseValidate, func() error { return o.validate(ctx, u) }},
		{PhaseReadBack, func() error { return o.readBack(ctx, u, readBack) }},
		{PhaseActivate, func() error { return o.activate(ctx, u) }},
	}

	for _, step := range steps {
		o.enter(u, step.phase)
		if err := step.run(); err != nil {
			o.logPhase(step.phase.String(), "FAILED", err.Error())
			o.warn("firmware update failed", "phase", step.phase.String(), "error", err)
			return &PhaseError{Phase: step.phase, Err: err}
		}
	}

	o.logPhase(PhaseActivate.String(), "DONE", "")
	o.info("firmware update complete", "version", u.ReadBack.String())
	return nil
}

func (o *Orchestrator) init(ctx context.Context, u *UpdateContext) error {
	payload := make([]byte, 10)
	payload[0] = u.Header.Version.Major
	payload[1] = u.Header.Version.Minor
	binary.LittleEndian.PutUint32(payload[2:6], u.Header.StartAddress)
	binary.LittleEndian.PutUint32(payload[6:10], uint32(u.Total))
	return o.config.IO.SendCommand(ctx, u.Endpoint, wire.CmdFWUInit, payload)
}

func (o *Orchestrator) transfer(ctx context.Context, u *UpdateContext, data []byte) error {
	chunk := u.ChunkSize()
	for offset := 0; offset < len(data); offset += chunk {
		end := min(offset+chunk, len(data))

		payload := make([]byte, offsetSize+end-offset)
		binary.LittleEndian.PutUint32(payload, uint32(offset))
		copy(payload[offsetSize:], data[offset:end])

		if err := o.config.IO.SendCommand(ctx, u.Endpoint, wire.CmdFWUData, payload); err != nil {
			return fmt.Errorf("chunk at offset %d: %w", offset, err)
		}
		u.Transferred = end
		o.progress(u)
	}
	return nil
}

func (o *Orchestrator) validate(ctx context.Context, u *UpdateContext) error {
	payload := binary.LittleEndian.AppendUint32(nil, u.Header.CRC)
	return o.config.IO.SendCommand(ctx, u.Endpoint, wire.CmdFWUValidate, payload)
}

func (o *Orchestrator) readBack(ctx context.Context, u *UpdateContext, read VersionReader) error {
	v, err := read(ctx)
	if err != nil {
		return err
	}
	u.ReadBack = v
	if v != u.Header.Version {
		return fmt.Errorf("%w: image %s, accessory %s", ErrVersionMismatch, u.Header.Version, v)
	}
	return nil
}

func (o *Orchestrator) activate(ctx context.Context, u *UpdateContext) error {
	payload := binary.LittleEndian.AppendUint32(nil, u.Header.StartAddress)
	return o.config.IO.SendCommand(ctx, u.Endpoint, wire.CmdFWUActivate, payload)
}

func (o *Orchestrator) enter(u *UpdateContext, phase Phase) {
	old := ""
	if u.Phase != 0 {
		old = u.Phase.String()
	}
	u.Phase = phase
	o.logPhase(old, phase.String(), "")
	o.progress(u)
}

func (o *Orchestrator) progress(u *UpdateContext) {
	if o.config.Progress != nil {
		o.config.Progress(*u)
	}
}

func (o *Orchestrator) logPhase(oldState, newState, reason string) {
	if o.config.ProtocolLogger == nil {
		return
	}
	o.config.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityFirmwareUpdate,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (o *Orchestrator) info(msg string, args ...any) {
	if o.config.Logger != nil {
		o.config.Logger.Info(msg, args...)
	}
}

func (o *Orchestrator) warn(msg string, args ...any) {
	if o.config.Logger != nil {
		o.config.Logger.Warn(msg, args...)
	}
}
