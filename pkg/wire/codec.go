package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for link packets.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for link packets.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient for forward compatibility with newer accessory firmware.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodePacket encodes a packet to CBOR bytes.
func EncodePacket(p *Packet) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid packet: %w", err)
	}
	return Marshal(p)
}

// DecodePacket decodes CBOR bytes into a packet.
func DecodePacket(data []byte) (*Packet, error) {
	var p Packet
	if err := Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode packet: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid packet: %w", err)
	}
	return &p, nil
}

// NewCommand builds an unsolicited or request command packet.
func NewCommand(seq uint16, ep Endpoint, cmd Command, payload []byte) *Packet {
	return &Packet{Seq: seq, Kind: KindCommand, Endpoint: ep, Command: cmd, Data: payload}
}

// NewResponse builds the response to a request packet.
func NewResponse(req *Packet, status Status, data []byte) *Packet {
	return &Packet{
		Seq:       req.Seq,
		Kind:      KindResponse,
		Endpoint:  req.Endpoint,
		Command:   req.Command,
		Attribute: req.Attribute,
		Status:    status,
		Data:      data,
	}
}
