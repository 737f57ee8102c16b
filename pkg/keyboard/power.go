package keyboard

import (
	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
)

// SetSlumber tells the manager whether the next suspend is a low-power
// slumber. Indicator off requests are dropped while it is set.
func (m *Manager) SetSlumber(on bool) {
	m.writer.SetSlumber(on)
}

// Suspend turns the rM key light off before the host suspends and
// remembers to restore it on Resume.
func (m *Manager) Suspend() {
	m.mu.Lock()
	surface := m.surface
	restore := surface != nil && m.state.RMKeyLight
	if restore {
		m.state.RestoreRMKeyLight = true
	}
	m.mu.Unlock()

	if !restore {
		return
	}
	if err := surface.RequestLED(keymap.LEDMisc, false); err != nil {
		m.warn("failed to turn off rM key light", "error", err)
	}
}

// Resume restores the rM key light turned off by Suspend.
func (m *Manager) Resume() {
	m.mu.Lock()
	surface := m.surface
	restore := m.state.RestoreRMKeyLight
	m.state.RestoreRMKeyLight = false
	m.mu.Unlock()

	if surface == nil || !restore {
		return
	}
	if err := surface.RequestLED(keymap.LEDMisc, true); err != nil {
		m.warn("failed to restore rM key light", "error", err)
	}
}
