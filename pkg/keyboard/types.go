package keyboard

import (
	"errors"
	"log/slog"

	"github.com/hwmon-accessory/kbd-go/pkg/firmware"
	"github.com/hwmon-accessory/kbd-go/pkg/input"
	"github.com/hwmon-accessory/kbd-go/pkg/interaction"
	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
	"github.com/hwmon-accessory/kbd-go/pkg/log"
	"github.com/hwmon-accessory/kbd-go/pkg/version"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// Manager errors.
var (
	ErrBusy           = errors.New("write already pending")
	ErrUnauthorized   = errors.New("accessory not authorized")
	ErrNoDevice       = errors.New("no accessory connected")
	ErrUndeliverable  = errors.New("key event without input surface")
	ErrDetached       = errors.New("manager detached")
	ErrConnectAborted = errors.New("connect aborted by disconnect")
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Config configures a Manager.
type Config struct {
	// Endpoint is the accessory endpoint.
	Endpoint wire.Endpoint

	// MaxPacketSize bounds firmware data packets.
	MaxPacketSize int

	// AuthorizeRetries is how often an authorization that failed with an
	// I/O error is retried before falling back to a firmware update. A
	// rejected authorization is never retried.
	AuthorizeRetries int

	// InitialBrightness is the backlight level before the host sets one.
	InitialBrightness uint8

	// Identity is the input surface identity. Uniq is replaced by the
	// accessory's host serial.
	Identity input.Identity

	// Repeat enables auto-repeat on the input surface.
	Repeat bool

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// ProtocolLogger records accessory state changes.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the configuration for the pogo keyboard.
func DefaultConfig() Config {
	return Config{
		Endpoint:      wire.EndpointKeyboard,
		MaxPacketSize: firmware.DefaultMaxPacketSize,
		Identity: input.Identity{
			Name:    "rM_Keyboard",
			Phys:    "pogo/input0",
			Bus:     input.BusHost,
			Vendor:  0x2edd,
			Product: 0x0001,
			Version: 0x0100,
		},
		Repeat: true,
	}
}

// EventType identifies a manager event.
type EventType uint8

const (
	// EventConnected - the accessory reached Connected.
	EventConnected EventType = iota

	// EventDisconnected - the accessory left Connected or Authorizing.
	EventDisconnected

	// EventConnectFailed - a connect attempt ended in Disconnected.
	EventConnectFailed

	// EventFirmwareUpdated - a firmware image was flashed and verified.
	EventFirmwareUpdated

	// EventFirmwareUpdateFailed - a firmware update failed; the accessory
	// keeps its previous firmware.
	EventFirmwareUpdateFailed

	// EventKey - a key was reported to the input surface.
	EventKey
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventConnectFailed:
		return "CONNECT_FAILED"
	case EventFirmwareUpdated:
		return "FIRMWARE_UPDATED"
	case EventFirmwareUpdateFailed:
		return "FIRMWARE_UPDATE_FAILED"
	case EventKey:
		return "KEY"
	default:
		return "UNKNOWN"
	}
}

// Event is emitted on connection changes, firmware updates and keys.
type Event struct {
	Type EventType

	// DeviceName and Firmware describe the accessory at the time of the
	// event.
	DeviceName string
	Firmware   version.Version

	// Code and Pressed are set for EventKey.
	Code    keymap.Code
	Pressed bool

	// Err is set for failure events.
	Err error
}

// EventHandler handles manager events. Handlers run on the goroutine that
// produced the event and must not block.
type EventHandler func(Event)

// Completer completes commands whose result arrives as a command from the
// accessory. *interaction.Client implements it.
type Completer interface {
	Complete(ep wire.Endpoint, err error) bool
}

// EndpointRegistrar routes inbound commands for an endpoint.
// *interaction.Client implements it.
type EndpointRegistrar interface {
	RegisterEndpoint(ep wire.Endpoint, handler interaction.EndpointHandler) error
	RemoveEndpoint(ep wire.Endpoint)
}

// Compile-time interface satisfaction checks.
var (
	_ Completer         = (*interaction.Client)(nil)
	_ EndpointRegistrar = (*interaction.Client)(nil)
)
