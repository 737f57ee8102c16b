package keyboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/firmware"
	"github.com/hwmon-accessory/kbd-go/pkg/input"
	"github.com/hwmon-accessory/kbd-go/pkg/interaction"
	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
	"github.com/hwmon-accessory/kbd-go/pkg/log"
	"github.com/hwmon-accessory/kbd-go/pkg/model"
	"github.com/hwmon-accessory/kbd-go/pkg/version"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
	"github.com/hwmon-accessory/kbd-go/pkg/workqueue"
)

// Manager runs the lifecycle of one keyboard accessory.
type Manager struct {
	config       Config
	io           interaction.AttributeIO
	factory      input.Factory
	source       firmware.Source
	orchestrator *firmware.Orchestrator
	writer       *Writer

	ctx    context.Context
	cancel context.CancelFunc

	// connMu serializes connect and disconnect handling.
	connMu sync.Mutex

	mu       sync.RWMutex
	state    *model.AccessoryState
	surface  input.Surface
	layout   *keymap.Layout
	handlers []EventHandler
	detached bool

	// attempt is the connect holding connMu. disconnects counts Disconnect
	// calls so connects queued behind one can tell they were superseded.
	attempt     *connectAttempt
	disconnects uint64

	connectQueue *workqueue.Queue
	connectWork  *workqueue.Work
}

// New creates a manager for the accessory reachable through aio. Surfaces
// are built by factory. source may be nil if no firmware is bundled.
//
// If aio implements EndpointRegistrar, the manager registers itself as the
// handler of config.Endpoint.
func New(config Config, aio interaction.AttributeIO, factory input.Factory, source firmware.Source) (*Manager, error) {
	if aio == nil {
		return nil, fmt.Errorf("%w: attribute I/O is required", ErrInvalidConfig)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: surface factory is required", ErrInvalidConfig)
	}
	if config.MaxPacketSize == 0 {
		config.MaxPacketSize = firmware.DefaultMaxPacketSize
	}
	if config.AuthorizeRetries < 0 {
		return nil, fmt.Errorf("%w: negative authorization retries", ErrInvalidConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:  config,
		io:      aio,
		factory: factory,
		source:  source,
		ctx:     ctx,
		cancel:  cancel,
		state:   model.NewAccessoryState(),
	}
	m.state.Brightness = config.InitialBrightness
	m.orchestrator = firmware.NewOrchestrator(firmware.OrchestratorConfig{
		IO:             aio,
		MaxPacketSize:  config.MaxPacketSize,
		Progress:       m.updateProgress,
		Logger:         config.Logger,
		ProtocolLogger: config.ProtocolLogger,
	})
	m.writer = NewWriter(aio, config.Endpoint, config.Logger)
	m.connectQueue = workqueue.New("connect", config.Logger)
	m.connectWork = workqueue.NewWork("connect", func() {
		_ = m.Connect(m.ctx)
	})

	if reg, ok := aio.(EndpointRegistrar); ok {
		if err := reg.RegisterEndpoint(config.Endpoint, m.HandlePacket); err != nil {
			m.writer.Close()
			m.connectQueue.Close()
			cancel()
			return nil, err
		}
	}
	return m, nil
}

// Writer returns the indicator writer.
func (m *Manager) Writer() *Writer {
	return m.writer
}

// OnEvent registers an event handler.
func (m *Manager) OnEvent(handler EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// HandlePacket dispatches a command packet from the accessory endpoint.
func (m *Manager) HandlePacket(pkt *wire.Packet) error {
	switch pkt.Command {
	case wire.CmdAccessoryConnect:
		m.ScheduleConnect()
		return nil

	case wire.CmdAccessoryDisconnect:
		m.Disconnect()
		return nil

	case wire.CmdKeyEvent:
		ev, err := wire.DecodeKeyEvent(pkt.Data)
		if err != nil {
			return err
		}
		return m.HandleKey(ev)

	case wire.CmdAuthorizeRequest:
		return m.completeAuthorization(pkt.Data)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, pkt.Command)
	}
}

// completeAuthorization finishes the pending authorization request with
// the accessory's verdict: exactly one success status byte.
func (m *Manager) completeAuthorization(data []byte) error {
	var verdict error
	switch {
	case len(data) != 1:
		verdict = fmt.Errorf("%w: authorization reply of %d bytes", ErrUnauthorized, len(data))
	case !wire.Status(data[0]).IsSuccess():
		verdict = fmt.Errorf("%w: %s", ErrUnauthorized, wire.Status(data[0]))
	}

	c, ok := m.io.(Completer)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, wire.CmdAuthorizeRequest)
	}
	if !c.Complete(m.config.Endpoint, verdict) {
		m.debug("authorization reply without request")
	}
	return nil
}

// ScheduleConnect queues a connect. It returns false if one is already
// queued or the manager is detached.
func (m *Manager) ScheduleConnect() bool {
	return m.connectQueue.Schedule(m.connectWork)
}

// connectAttempt is one running connect sequence.
type connectAttempt struct {
	cancel context.CancelFunc
}

// Connect runs the connect sequence. On failure the accessory is left
// Disconnected without an input surface. A connect still waiting for a
// previous one when Disconnect is called returns ErrConnectAborted without
// touching the state.
func (m *Manager) Connect(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.RLock()
	generation := m.disconnects
	m.mu.RUnlock()

	m.connMu.Lock()
	defer m.connMu.Unlock()

	m.mu.Lock()
	if m.detached {
		m.mu.Unlock()
		return ErrDetached
	}
	if m.disconnects != generation {
		m.mu.Unlock()
		m.debug("connect superseded by disconnect")
		return ErrConnectAborted
	}
	attempt := &connectAttempt{cancel: cancel}
	m.attempt = attempt
	defer func() {
		m.mu.Lock()
		if m.attempt == attempt {
			m.attempt = nil
		}
		m.mu.Unlock()
	}()
	old := m.surface
	m.surface = nil
	prev := m.state.State
	m.state.State = model.StateAuthorizing
	m.state.ResetIndicators()
	m.mu.Unlock()

	if old != nil {
		old.Unregister()
		m.warn("no disconnect event before new connect")
	}
	m.logState(prev, model.StateAuthorizing, "connect")

	surface, err := m.register(ctx)
	if err != nil {
		m.mu.Lock()
		m.state.State = model.StateDisconnected
		m.state.Update.Active = false
		name := m.state.DeviceName
		m.mu.Unlock()

		m.logState(model.StateAuthorizing, model.StateDisconnected, err.Error())
		m.logError("connect", err)
		m.warn("connect failed", "error", err)
		m.emit(Event{Type: EventConnectFailed, DeviceName: name, Err: err})
		return err
	}

	m.mu.Lock()
	m.surface = surface
	m.state.State = model.StateConnected
	snapshot := *m.state
	m.mu.Unlock()

	m.logState(model.StateAuthorizing, model.StateConnected, "")
	m.info("device registered",
		"name", snapshot.DeviceName,
		"firmware", snapshot.Firmware.String(),
		"fingerprint", snapshot.Fingerprint.String())
	m.emit(Event{Type: EventConnected, DeviceName: snapshot.DeviceName, Firmware: snapshot.Firmware})
	return nil
}

// register brings the accessory from Authorizing to the point where its
// surface can be published. The returned surface is registered.
func (m *Manager) register(ctx context.Context) (input.Surface, error) {
	if err := m.readInitialAttributes(ctx); err != nil {
		return nil, err
	}

	var surface input.Surface
	authErr := m.authorize(ctx)
	if authErr == nil {
		s, err := m.buildSurface()
		if err != nil {
			return nil, err
		}
		surface = s
		if err := m.pushBrightness(ctx); err != nil {
			m.warn("failed to set brightness", "error", err)
		}
	} else {
		m.warn("authorization failed, trying firmware update", "error", authErr)
	}

	if m.updateFirmware(ctx) {
		if err := m.authorize(ctx); err != nil {
			return nil, fmt.Errorf("authorize after firmware update: %w", err)
		}
		if err := m.pushBrightness(ctx); err != nil {
			m.warn("failed to set brightness", "error", err)
		}
	} else if authErr != nil {
		return nil, authErr
	}

	if surface == nil {
		s, err := m.buildSurface()
		if err != nil {
			return nil, err
		}
		surface = s
	}

	if err := surface.Register(); err != nil {
		return nil, fmt.Errorf("register input surface: %w", err)
	}
	return surface, nil
}

// readInitialAttributes reads the initial attribute set into the state.
// Values that fail to decode are skipped.
func (m *Manager) readInitialAttributes(ctx context.Context) error {
	rejected, err := model.ReadAttributes(ctx, m.io, m.config.Endpoint, model.InitialAttributes,
		func(id model.AttributeID, data []byte) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			return model.Apply(m.state, id, data)
		})
	for _, id := range rejected {
		m.warn("attribute rejected", "attr", id.String())
	}
	if err != nil {
		return fmt.Errorf("read initial attributes: %w", err)
	}
	return nil
}

// authorize runs the authorization handshake. I/O failures are retried
// AuthorizeRetries times; any other failure is reported as ErrUnauthorized.
func (m *Manager) authorize(ctx context.Context) error {
	var err error
	for attempt := 0; attempt <= m.config.AuthorizeRetries; attempt++ {
		err = m.io.SendCommand(ctx, m.config.Endpoint, wire.CmdAuthorizeRequest, nil)
		if err == nil {
			return nil
		}
		if !errors.Is(err, interaction.ErrIO) || ctx.Err() != nil {
			break
		}
		m.debug("authorization I/O error", "attempt", attempt+1, "error", err)
	}

	if errors.Is(err, interaction.ErrIO) || errors.Is(err, ErrUnauthorized) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnauthorized, err)
}

// buildSurface creates the input surface for the current layout. The
// surface is not registered.
func (m *Manager) buildSurface() (input.Surface, error) {
	m.mu.Lock()
	layout := keymap.Select(m.state.KeyLayout)
	if layout.ID != m.state.KeyLayout {
		m.warn("unknown key layout, using default", "layout", m.state.KeyLayout)
	}
	m.layout = layout
	identity := m.config.Identity
	identity.Uniq = m.state.HostSerial
	m.mu.Unlock()

	spec := input.Spec{
		Identity: identity,
		Layout:   layout,
		LEDs:     []keymap.LED{keymap.LEDCapsLock, keymap.LEDMisc},
		Repeat:   m.config.Repeat,
	}
	surface, err := m.factory.NewSurface(spec, m.handleLED)
	if err != nil {
		return nil, fmt.Errorf("build input surface: %w", err)
	}
	return surface, nil
}

// updateFirmware flashes a bundled image if one applies. It returns true
// if the accessory now runs the new image. A failed update leaves the
// accessory on its previous firmware.
func (m *Manager) updateFirmware(ctx context.Context) bool {
	if m.source == nil {
		return false
	}

	m.mu.RLock()
	name := m.state.DeviceName
	running := m.state.Firmware
	start := m.state.ImageStart
	m.mu.RUnlock()

	images, err := m.source.Images(name)
	if err != nil {
		if !errors.Is(err, firmware.ErrNoImage) {
			m.warn("failed to load firmware images", "device", name, "error", err)
		}
		return false
	}
	img := firmware.Applicable(images, running, start)
	if img == nil {
		m.debug("no applicable firmware image", "device", name, "running", running.String())
		return false
	}

	m.mu.Lock()
	m.state.Update = model.UpdateProgress{Active: true, Total: img.Size}
	m.mu.Unlock()

	err = m.orchestrator.Update(ctx, m.config.Endpoint, img, m.readBackVersion)

	m.mu.Lock()
	m.state.Update.Active = false
	m.mu.Unlock()

	if err != nil {
		m.warn("firmware update failed, continuing with existing version", "error", err)
		m.emit(Event{Type: EventFirmwareUpdateFailed, DeviceName: name, Firmware: running, Err: err})
		return false
	}

	m.emit(Event{Type: EventFirmwareUpdated, DeviceName: name, Firmware: img.Version})
	return true
}

// readBackVersion re-reads the initial attributes after validation and
// returns the firmware version now reported.
func (m *Manager) readBackVersion(ctx context.Context) (version.Version, error) {
	if err := m.readInitialAttributes(ctx); err != nil {
		return version.Version{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Firmware, nil
}

func (m *Manager) updateProgress(u firmware.UpdateContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Update.Phase = u.Phase.String()
	m.state.Update.Transferred = uint32(u.Transferred)
	m.state.Update.Total = uint32(u.Total)
}

// Disconnect removes the input surface and leaves the accessory
// Disconnected. The running connect is cancelled first and connects waiting
// behind it give up. It returns false if there was no surface to remove.
func (m *Manager) Disconnect() bool {
	m.mu.Lock()
	m.disconnects++
	running := m.attempt
	m.mu.Unlock()
	if running != nil {
		running.cancel()
	}

	m.connMu.Lock()
	defer m.connMu.Unlock()

	m.mu.Lock()
	surface := m.surface
	m.surface = nil
	prev := m.state.State
	m.state.State = model.StateDisconnected
	name := m.state.DeviceName
	m.mu.Unlock()

	removed := false
	if surface != nil {
		removed = surface.Unregister()
	}
	if prev != model.StateDisconnected {
		m.logState(prev, model.StateDisconnected, "disconnect")
		m.emit(Event{Type: EventDisconnected, DeviceName: name})
	}
	return removed
}

// State returns a snapshot of the accessory state.
func (m *Manager) State() model.AccessoryState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.state
}

// ConnectionState returns the current connection state.
func (m *Manager) ConnectionState() model.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.State
}

// Surface returns the registered input surface, or nil when not
// connected.
func (m *Manager) Surface() input.Surface {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.surface
}

// WaitIdle waits until queued connect work has run.
func (m *Manager) WaitIdle() error {
	return m.connectQueue.Flush()
}

// Detach disconnects the accessory, stops background work and releases
// the endpoint. The manager cannot be used afterwards.
func (m *Manager) Detach() {
	m.mu.Lock()
	if m.detached {
		m.mu.Unlock()
		return
	}
	m.detached = true
	m.mu.Unlock()

	m.cancel()
	m.connectQueue.Close()
	m.Disconnect()
	m.writer.Close()

	if reg, ok := m.io.(EndpointRegistrar); ok {
		reg.RemoveEndpoint(m.config.Endpoint)
	}
}

func (m *Manager) emit(event Event) {
	m.mu.RLock()
	handlers := append([]EventHandler(nil), m.handlers...)
	m.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (m *Manager) logState(oldState, newState model.ConnectionState, reason string) {
	if m.config.ProtocolLogger == nil {
		return
	}
	m.mu.RLock()
	serial := m.state.HostSerial
	m.mu.RUnlock()

	m.config.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		Serial:    serial,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityAccessory,
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
}

func (m *Manager) logError(context string, err error) {
	if m.config.ProtocolLogger == nil {
		return
	}
	var code *int
	var se *interaction.StatusError
	if errors.As(err, &se) {
		c := int(se.Status)
		code = &c
	}
	m.config.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Code:    code,
			Context: context,
		},
	})
}

func (m *Manager) debug(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Debug(msg, args...)
	}
}

func (m *Manager) info(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Info(msg, args...)
	}
}

func (m *Manager) warn(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Warn(msg, args...)
	}
}
