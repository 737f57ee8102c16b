package log

import (
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the opened link (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Port is the serial device the link runs over.
	Port string `cbor:"6,keyasint,omitempty"`

	// Serial is the accessory's host-side serial number (known after the
	// initial attribute read).
	Serial string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Packet      *PacketEvent      `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Link/accessory state
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates data from the accessory.
	DirectionIn Direction = 0
	// DirectionOut indicates data to the accessory.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the packet encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerService is the accessory manager.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a frame or packet.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MaxFrameCapture is the number of frame bytes kept in a FrameEvent.
const MaxFrameCapture = 64

// NewFrameEvent captures a frame, truncating large payloads.
func NewFrameEvent(size int, data []byte) *FrameEvent {
	fe := &FrameEvent{Size: size}
	if len(data) > MaxFrameCapture {
		fe.Data = append([]byte(nil), data[:MaxFrameCapture]...)
		fe.Truncated = true
	} else {
		fe.Data = append([]byte(nil), data...)
	}
	return fe
}

// PacketEvent captures a decoded packet at the wire layer.
type PacketEvent struct {
	// Seq correlates requests and responses (0 for unsolicited packets).
	Seq uint16 `cbor:"1,keyasint"`

	// Kind is the packet kind.
	Kind wire.PacketKind `cbor:"2,keyasint"`

	// Endpoint is the addressed endpoint.
	Endpoint wire.Endpoint `cbor:"3,keyasint"`

	// Command is set for command packets.
	Command *wire.Command `cbor:"4,keyasint,omitempty"`

	// Attribute is set for reads, writes and their responses.
	Attribute *uint8 `cbor:"5,keyasint,omitempty"`

	// Status is set for responses.
	Status *wire.Status `cbor:"6,keyasint,omitempty"`

	// Data is the packet payload.
	Data []byte `cbor:"7,keyasint,omitempty"`
}

// NewPacketEvent captures p.
func NewPacketEvent(p *wire.Packet) *PacketEvent {
	pe := &PacketEvent{
		Seq:      p.Seq,
		Kind:     p.Kind,
		Endpoint: p.Endpoint,
		Data:     p.Data,
	}
	if p.Command != 0 {
		cmd := p.Command
		pe.Command = &cmd
	}
	if p.Attribute != 0 {
		attr := p.Attribute
		pe.Attribute = &attr
	}
	if p.Kind == wire.KindResponse {
		status := p.Status
		pe.Status = &status
	}
	return pe
}

// StateChangeEvent captures link and accessory lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityLink indicates a transport link state change.
	StateEntityLink StateEntity = 0
	// StateEntityAccessory indicates an accessory connection state change.
	StateEntityAccessory StateEntity = 1
	// StateEntityFirmwareUpdate indicates a firmware update phase change.
	StateEntityFirmwareUpdate StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityLink:
		return "LINK"
	case StateEntityAccessory:
		return "ACCESSORY"
	case StateEntityFirmwareUpdate:
		return "FIRMWARE_UPDATE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
