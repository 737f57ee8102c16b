package input

import (
	"errors"
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
)

// EventType is the class of an input event.
type EventType uint16

// Event types, numbered as in the Linux input subsystem.
const (
	EvSyn EventType = 0x00
	EvKey EventType = 0x01
	EvLED EventType = 0x11
	EvRep EventType = 0x14
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EvSyn:
		return "EV_SYN"
	case EvKey:
		return "EV_KEY"
	case EvLED:
		return "EV_LED"
	case EvRep:
		return "EV_REP"
	default:
		return "EV_UNKNOWN"
	}
}

// Key event values.
const (
	KeyRelease int32 = 0
	KeyPress   int32 = 1
	KeyRepeat  int32 = 2
)

// Event is one event delivered to the host.
type Event struct {
	Time  time.Time
	Type  EventType
	Code  uint16
	Value int32
}

// BusHost is the bus type of devices attached directly to the host.
const BusHost uint16 = 0x19

// Identity describes the surface to the host.
type Identity struct {
	Name    string
	Phys    string
	Uniq    string
	Bus     uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// Spec describes a surface to build.
type Spec struct {
	Identity Identity

	// Layout supplies the key codes the surface can report.
	Layout *keymap.Layout

	// LEDs lists the indicators the surface advertises.
	LEDs []keymap.LED

	// Repeat enables auto-repeat of held keys.
	Repeat bool
}

// Errors returned by surfaces.
var (
	ErrInvalidSpec   = errors.New("invalid surface spec")
	ErrNotRegistered = errors.New("surface not registered")
	ErrRegistered    = errors.New("surface already registered")
	ErrUnsupported   = errors.New("unsupported indicator")
)

// LEDHandler is called when the host asks for an indicator change. A
// non-nil error refuses the change.
type LEDHandler func(led keymap.LED, on bool) error

// Surface is the input device of a connected accessory.
type Surface interface {
	// Register makes the surface visible to the host.
	Register() error

	// Unregister removes the surface. It returns false if the surface was
	// not registered.
	Unregister() bool

	// ReportKey reports a key state change.
	ReportKey(code keymap.Code, pressed bool) error

	// Sync marks the end of a group of events.
	Sync()

	// SetLED records an indicator state without calling the LEDHandler.
	SetLED(led keymap.LED, on bool)

	// LED returns the recorded state of an indicator.
	LED(led keymap.LED) bool

	// RequestLED asks for an indicator change on behalf of the host.
	RequestLED(led keymap.LED, on bool) error

	// Identity returns the identity the surface was built with.
	Identity() Identity
}

// Factory builds surfaces.
type Factory interface {
	NewSurface(spec Spec, onLED LEDHandler) (Surface, error)
}

// Sink receives events from registered surfaces.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev Event)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) { f(ev) }
