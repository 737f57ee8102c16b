package keyboard

import (
	"fmt"

	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// Translate maps a scan event to its key code in layout. Positions outside
// the matrix are rejected before the table is consulted.
func Translate(layout *keymap.Layout, ev wire.KeyEvent) (keymap.Code, error) {
	code, err := layout.Lookup(int(ev.Row), int(ev.Column))
	if err != nil {
		return keymap.KeyReserved, fmt.Errorf("key event %d/%d: %w", ev.Row, ev.Column, err)
	}
	return code, nil
}

// HandleKey reports a scan event through the input surface. Without a
// surface the event is undeliverable and a connect is scheduled so that a
// later event finds one. Scheduling is a no-op while a connect is queued.
func (m *Manager) HandleKey(ev wire.KeyEvent) error {
	m.mu.RLock()
	surface := m.surface
	layout := m.layout
	m.mu.RUnlock()

	if surface == nil {
		m.ScheduleConnect()
		return ErrUndeliverable
	}

	code, err := Translate(layout, ev)
	if err != nil {
		return err
	}
	if err := surface.ReportKey(code, ev.Pressed); err != nil {
		return err
	}
	surface.Sync()

	m.emit(Event{Type: EventKey, Code: code, Pressed: ev.Pressed})
	return nil
}
