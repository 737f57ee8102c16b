package input

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
)

// RepeatConfig controls auto-repeat of held keys.
type RepeatConfig struct {
	// Delay before the first repeat.
	Delay time.Duration

	// Period between repeats.
	Period time.Duration
}

// DefaultRepeatConfig returns the usual console repeat timing.
func DefaultRepeatConfig() RepeatConfig {
	return RepeatConfig{
		Delay:  250 * time.Millisecond,
		Period: 33 * time.Millisecond,
	}
}

// DeviceFactory builds in-process Devices that deliver events to Sink.
type DeviceFactory struct {
	Sink   Sink
	Repeat RepeatConfig
	Logger *slog.Logger
}

// NewSurface builds an unregistered Device.
func (f *DeviceFactory) NewSurface(spec Spec, onLED LEDHandler) (Surface, error) {
	return NewDevice(spec, onLED, f.Sink, f.Repeat, f.Logger)
}

// Device is an in-process input surface.
type Device struct {
	spec   Spec
	onLED  LEDHandler
	sink   Sink
	repeat RepeatConfig
	logger *slog.Logger

	keys map[keymap.Code]bool
	leds map[keymap.LED]bool

	mu          sync.Mutex
	registered  bool
	down        map[keymap.Code]bool
	ledState    map[keymap.LED]bool
	repeatCode  keymap.Code
	repeatTimer *time.Timer
	repeatGen   uint64
}

// NewDevice builds an unregistered Device from spec. A nil sink discards
// events.
func NewDevice(spec Spec, onLED LEDHandler, sink Sink, repeat RepeatConfig, logger *slog.Logger) (*Device, error) {
	if spec.Layout == nil {
		return nil, fmt.Errorf("%w: no layout", ErrInvalidSpec)
	}
	if spec.Identity.Name == "" {
		return nil, fmt.Errorf("%w: no name", ErrInvalidSpec)
	}
	if spec.Repeat && (repeat.Delay <= 0 || repeat.Period <= 0) {
		return nil, fmt.Errorf("%w: repeat delay %s period %s", ErrInvalidSpec, repeat.Delay, repeat.Period)
	}
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}

	d := &Device{
		spec:     spec,
		onLED:    onLED,
		sink:     sink,
		repeat:   repeat,
		logger:   logger,
		keys:     make(map[keymap.Code]bool),
		leds:     make(map[keymap.LED]bool),
		down:     make(map[keymap.Code]bool),
		ledState: make(map[keymap.LED]bool),
	}
	for _, c := range spec.Layout.Codes() {
		d.keys[c] = true
	}
	for _, l := range spec.LEDs {
		d.leds[l] = true
	}
	return d, nil
}

// Identity returns the identity the device was built with.
func (d *Device) Identity() Identity {
	return d.spec.Identity
}

// HasKey returns true if the device can report code.
func (d *Device) HasKey(code keymap.Code) bool {
	return d.keys[code]
}

// HasLED returns true if the device advertises led.
func (d *Device) HasLED(led keymap.LED) bool {
	return d.leds[led]
}

// Registered returns true while the device is visible to the host.
func (d *Device) Registered() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registered
}

// Register makes the device visible to the host.
func (d *Device) Register() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.registered {
		return ErrRegistered
	}
	d.registered = true
	d.debug("input device registered", "name", d.spec.Identity.Name, "uniq", d.spec.Identity.Uniq)
	return nil
}

// Unregister removes the device and clears its key and indicator state.
func (d *Device) Unregister() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.registered {
		return false
	}
	d.stopRepeatLocked()
	d.registered = false
	clear(d.down)
	clear(d.ledState)
	d.debug("input device removed", "name", d.spec.Identity.Name)
	return true
}

// ReportKey reports a key state change. Codes the device cannot produce and
// reports that do not change the key state are dropped.
func (d *Device) ReportKey(code keymap.Code, pressed bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.registered {
		return ErrNotRegistered
	}
	if !d.keys[code] || d.down[code] == pressed {
		return nil
	}

	if pressed {
		d.down[code] = true
		d.emitLocked(EvKey, uint16(code), KeyPress)
		if d.spec.Repeat {
			d.startRepeatLocked(code)
		}
		return nil
	}

	delete(d.down, code)
	d.emitLocked(EvKey, uint16(code), KeyRelease)
	if d.repeatCode == code {
		d.stopRepeatLocked()
	}
	return nil
}

// Sync marks the end of a group of events.
func (d *Device) Sync() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.registered {
		d.emitLocked(EvSyn, 0, 0)
	}
}

// SetLED records an indicator state.
func (d *Device) SetLED(led keymap.LED, on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.leds[led] {
		d.ledState[led] = on
	}
}

// LED returns the recorded state of an indicator.
func (d *Device) LED(led keymap.LED) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ledState[led]
}

// RequestLED passes a host indicator request to the LEDHandler and records
// the new state if the handler accepts it.
func (d *Device) RequestLED(led keymap.LED, on bool) error {
	if !d.leds[led] {
		return fmt.Errorf("%w: %s", ErrUnsupported, led)
	}
	if !d.Registered() {
		return ErrNotRegistered
	}

	if d.onLED != nil {
		if err := d.onLED(led, on); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.registered {
		return ErrNotRegistered
	}
	d.ledState[led] = on
	value := int32(0)
	if on {
		value = 1
	}
	d.emitLocked(EvLED, uint16(led), value)
	d.emitLocked(EvSyn, 0, 0)
	return nil
}

func (d *Device) emitLocked(t EventType, code uint16, value int32) {
	d.sink.Emit(Event{Time: time.Now(), Type: t, Code: code, Value: value})
}

// startRepeatLocked makes code the repeating key, replacing any other.
func (d *Device) startRepeatLocked(code keymap.Code) {
	d.stopRepeatLocked()
	d.repeatCode = code
	gen := d.repeatGen
	d.repeatTimer = time.AfterFunc(d.repeat.Delay, func() { d.repeatTick(gen) })
}

func (d *Device) stopRepeatLocked() {
	d.repeatGen++
	if d.repeatTimer != nil {
		d.repeatTimer.Stop()
		d.repeatTimer = nil
	}
	d.repeatCode = keymap.KeyReserved
}

func (d *Device) repeatTick(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.repeatGen || !d.registered {
		return
	}
	d.emitLocked(EvKey, uint16(d.repeatCode), KeyRepeat)
	d.emitLocked(EvSyn, 0, 0)
	d.repeatTimer = time.AfterFunc(d.repeat.Period, func() { d.repeatTick(gen) })
}

func (d *Device) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
