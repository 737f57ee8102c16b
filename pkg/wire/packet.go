package wire

import (
	"fmt"
)

// UnsolicitedSeq marks a packet that does not answer a host request.
const UnsolicitedSeq uint16 = 0

// PacketKind distinguishes the packet types carried on the link.
type PacketKind uint8

const (
	// KindCommand carries a command and its payload.
	KindCommand PacketKind = 1

	// KindRead requests an attribute value.
	KindRead PacketKind = 2

	// KindWrite writes an attribute value.
	KindWrite PacketKind = 3

	// KindResponse completes a command, read or write request.
	KindResponse PacketKind = 4
)

// String returns the kind name.
func (k PacketKind) String() string {
	switch k {
	case KindCommand:
		return "Command"
	case KindRead:
		return "Read"
	case KindWrite:
		return "Write"
	case KindResponse:
		return "Response"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the kind is a known packet kind.
func (k PacketKind) IsValid() bool {
	return k >= KindCommand && k <= KindResponse
}

// Packet is one protocol message on the link.
//
// CBOR encoding:
//
//	{
//	  1: seq,        // uint16: request correlation, 0 = unsolicited
//	  2: kind,       // uint8: 1=Command, 2=Read, 3=Write, 4=Response
//	  3: endpoint,   // uint8
//	  4: command,    // uint8 (Command packets)
//	  5: attribute,  // uint8 (Read/Write and their responses)
//	  6: status,     // uint8 (Response packets)
//	  7: data        // bytes: command payload or encoded Value
//	}
type Packet struct {
	Seq       uint16     `cbor:"1,keyasint"`
	Kind      PacketKind `cbor:"2,keyasint"`
	Endpoint  Endpoint   `cbor:"3,keyasint"`
	Command   Command    `cbor:"4,keyasint,omitempty"`
	Attribute uint8      `cbor:"5,keyasint,omitempty"`
	Status    Status     `cbor:"6,keyasint,omitempty"`
	Data      []byte     `cbor:"7,keyasint,omitempty"`
}

// Validate checks if the packet is well formed.
func (p *Packet) Validate() error {
	if !p.Kind.IsValid() {
		return fmt.Errorf("invalid packet kind: %d", p.Kind)
	}
	switch p.Kind {
	case KindCommand:
		if p.Command == 0 {
			return fmt.Errorf("command packet without command")
		}
	case KindRead, KindWrite:
		if p.Attribute == 0 {
			return fmt.Errorf("%s packet without attribute", p.Kind)
		}
		if p.Seq == UnsolicitedSeq {
			return fmt.Errorf("%s packet without sequence number", p.Kind)
		}
	case KindResponse:
		if p.Seq == UnsolicitedSeq {
			return fmt.Errorf("response without sequence number")
		}
	}
	return nil
}

// IsUnsolicited returns true for packets that do not answer a request.
func (p *Packet) IsUnsolicited() bool {
	return p.Seq == UnsolicitedSeq
}
