package keyboard

import (
	"context"
	"fmt"

	"github.com/hwmon-accessory/kbd-go/pkg/model"
)

// Firmware returns the running firmware version as "major.minor".
func (m *Manager) Firmware() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.surface == nil {
		return "", ErrNoDevice
	}
	return m.state.Firmware.String(), nil
}

// HostSerial returns the host-side serial number read at connect.
func (m *Manager) HostSerial() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.surface == nil || m.state.HostSerial == "" {
		return "", ErrNoDevice
	}
	return m.state.HostSerial, nil
}

// PeripheralSerial reads the peripheral serial number from the accessory.
func (m *Manager) PeripheralSerial(ctx context.Context) (string, error) {
	if err := m.refresh(ctx, model.AttrPeripheralSerial); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.PeripheralSerial, nil
}

// Language returns the name of the key cap language read at connect.
func (m *Manager) Language() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Language.Name()
}

// ProductionRecord reads the manufacturing record and returns it in
// lower-case hex.
func (m *Manager) ProductionRecord(ctx context.Context) (string, error) {
	if err := m.refresh(ctx, model.AttrProductionRecord); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("%x", m.state.ProductionRecord), nil
}

// refresh reads one attribute into the state.
func (m *Manager) refresh(ctx context.Context, id model.AttributeID) error {
	data, err := m.io.ReadAttribute(ctx, m.config.Endpoint, uint8(id))
	if err != nil {
		return fmt.Errorf("read %s: %w", id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.Apply(m.state, id, data)
}
