package keyboard

import (
	"context"

	"github.com/hwmon-accessory/kbd-go/pkg/input"
	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
	"github.com/hwmon-accessory/kbd-go/pkg/model"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// SetBrightness sets the backlight level. The level is kept while
// disconnected and written to every zone only while connected.
func (m *Manager) SetBrightness(ctx context.Context, level uint8) error {
	m.mu.Lock()
	m.state.Brightness = level
	connected := m.state.State == model.StateConnected
	m.mu.Unlock()

	if !connected {
		return nil
	}
	return m.pushBrightness(ctx)
}

// Brightness returns the backlight level.
func (m *Manager) Brightness() uint8 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Brightness
}

// pushBrightness writes the stored level to all zones.
func (m *Manager) pushBrightness(ctx context.Context) error {
	m.mu.RLock()
	level := m.state.Brightness
	m.mu.RUnlock()

	zones := make([]uint8, model.BacklightZones)
	for i := range zones {
		zones[i] = level
	}
	d, _ := model.Lookup(model.AttrBacklightZones)
	payload, err := d.Encode(wire.Uint8ArrayValue(zones))
	if err != nil {
		return err
	}
	if err := m.io.WriteAttribute(ctx, m.config.Endpoint, uint8(model.AttrBacklightZones), payload); err != nil {
		return err
	}

	m.mu.Lock()
	m.state.FillZones(level)
	m.mu.Unlock()
	return nil
}

// handleLED is the surface's indicator handler. The write happens on the
// writer's queue; the indicator state is recorded as soon as it is queued.
func (m *Manager) handleLED(led keymap.LED, on bool) error {
	var attr model.AttributeID
	switch led {
	case keymap.LEDCapsLock:
		attr = model.AttrCapsLockLight
	case keymap.LEDMisc:
		attr = model.AttrRMKeyLight
	default:
		return input.ErrUnsupported
	}

	queued, err := m.writer.WriteIndicator(attr, on)
	if err != nil || !queued {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if attr == model.AttrCapsLockLight {
		m.state.CapsLockLight = on
	} else {
		m.state.RMKeyLight = on
	}
	return nil
}

// SetIndicator asks for an indicator change as the host would, through the
// input surface.
func (m *Manager) SetIndicator(led keymap.LED, on bool) error {
	surface := m.Surface()
	if surface == nil {
		return ErrNoDevice
	}
	return surface.RequestLED(led, on)
}
