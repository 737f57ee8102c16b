package input

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) count(t EventType, value int32) int {
	n := 0
	for _, ev := range r.snapshot() {
		if ev.Type == t && ev.Value == value {
			n++
		}
	}
	return n
}

func testSpec(repeat bool) Spec {
	return Spec{
		Identity: Identity{Name: "test keyboard", Bus: BusHost},
		Layout:   keymap.Select(0),
		LEDs:     []keymap.LED{keymap.LEDCapsLock, keymap.LEDMisc},
		Repeat:   repeat,
	}
}

func newTestDevice(t *testing.T, repeat bool, onLED LEDHandler) (*Device, *recorder) {
	t.Helper()
	rec := &recorder{}
	d, err := NewDevice(testSpec(repeat), onLED, rec, RepeatConfig{Delay: 20 * time.Millisecond, Period: 10 * time.Millisecond}, nil)
	require.NoError(t, err)
	return d, rec
}

func TestNewDeviceInvalidSpec(t *testing.T) {
	_, err := NewDevice(Spec{Identity: Identity{Name: "x"}}, nil, nil, RepeatConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = NewDevice(Spec{Layout: keymap.Select(0)}, nil, nil, RepeatConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	spec := testSpec(true)
	_, err = NewDevice(spec, nil, nil, RepeatConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestDeviceRegisterUnregister(t *testing.T) {
	d, _ := newTestDevice(t, false, nil)

	assert.False(t, d.Unregister(), "unregistering a fresh device removes nothing")
	require.NoError(t, d.Register())
	assert.ErrorIs(t, d.Register(), ErrRegistered)
	assert.True(t, d.Unregister())
	assert.False(t, d.Unregister())
	assert.False(t, d.Unregister())
}

func TestDeviceReportKey(t *testing.T) {
	d, rec := newTestDevice(t, false, nil)

	assert.ErrorIs(t, d.ReportKey(keymap.KeyM, true), ErrNotRegistered)
	require.NoError(t, d.Register())

	require.NoError(t, d.ReportKey(keymap.KeyM, true))
	d.Sync()
	require.NoError(t, d.ReportKey(keymap.KeyM, true)) // no state change
	require.NoError(t, d.ReportKey(keymap.KeyM, false))
	d.Sync()
	require.NoError(t, d.ReportKey(keymap.KeyReserved, true)) // not a capability

	events := rec.snapshot()
	require.Len(t, events, 4)
	assert.Equal(t, Event{Type: EvKey, Code: uint16(keymap.KeyM), Value: KeyPress}, stripTime(events[0]))
	assert.Equal(t, EvSyn, events[1].Type)
	assert.Equal(t, Event{Type: EvKey, Code: uint16(keymap.KeyM), Value: KeyRelease}, stripTime(events[2]))
	assert.Equal(t, EvSyn, events[3].Type)
}

func stripTime(ev Event) Event {
	ev.Time = time.Time{}
	return ev
}

func TestDeviceAutoRepeat(t *testing.T) {
	d, rec := newTestDevice(t, true, nil)
	require.NoError(t, d.Register())

	require.NoError(t, d.ReportKey(keymap.KeyA, true))
	assert.Eventually(t, func() bool {
		return rec.count(EvKey, KeyRepeat) >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, d.ReportKey(keymap.KeyA, false))
	stopped := rec.count(EvKey, KeyRepeat)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, rec.count(EvKey, KeyRepeat), "repeat must stop on release")
}

func TestDeviceRepeatStopsOnUnregister(t *testing.T) {
	d, rec := newTestDevice(t, true, nil)
	require.NoError(t, d.Register())
	require.NoError(t, d.ReportKey(keymap.KeyA, true))
	assert.True(t, d.Unregister())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count(EvKey, KeyRepeat))
}

func TestDeviceRequestLED(t *testing.T) {
	busy := errors.New("busy")
	var refuse bool
	var calls []keymap.LED
	d, rec := newTestDevice(t, false, func(led keymap.LED, on bool) error {
		calls = append(calls, led)
		if refuse {
			return busy
		}
		return nil
	})

	assert.ErrorIs(t, d.RequestLED(keymap.LEDCapsLock, true), ErrNotRegistered)
	require.NoError(t, d.Register())

	require.NoError(t, d.RequestLED(keymap.LEDCapsLock, true))
	assert.True(t, d.LED(keymap.LEDCapsLock))
	assert.Equal(t, 1, rec.count(EvLED, 1))

	refuse = true
	assert.ErrorIs(t, d.RequestLED(keymap.LEDCapsLock, false), busy)
	assert.True(t, d.LED(keymap.LEDCapsLock), "refused request must not change state")

	assert.ErrorIs(t, d.RequestLED(keymap.LED(0x02), true), ErrUnsupported)
	assert.Len(t, calls, 2)

	assert.True(t, d.Unregister())
	assert.False(t, d.LED(keymap.LEDCapsLock), "unregister clears indicators")
}

func TestDeviceFactory(t *testing.T) {
	f := &DeviceFactory{Repeat: DefaultRepeatConfig()}
	s, err := f.NewSurface(testSpec(true), nil)
	require.NoError(t, err)
	assert.Equal(t, "test keyboard", s.Identity().Name)
}
