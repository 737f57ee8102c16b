package wire

import (
	"errors"
	"fmt"
)

// KeyEventSize is the payload size of a CmdKeyEvent command.
const KeyEventSize = 2

// Bit layout of the first key event byte.
const (
	keyPressedMask = 0x01
	keyRowShift    = 1
	keyRowMask     = 0x07
	keyColumnShift = 4
	keyColumnMask  = 0x0F
)

// Matrix limits imposed by the key event bit widths.
const (
	MaxScanRows    = keyRowMask + 1
	MaxScanColumns = keyColumnMask + 1
)

// ErrKeyEventSize indicates a key event payload of the wrong length.
var ErrKeyEventSize = errors.New("invalid key event size")

// KeyEvent is one key matrix scan event.
//
// Encoding:
//
//	byte 0: bit 0 pressed, bits 1-3 row, bits 4-7 column
//	byte 1: sequence number
type KeyEvent struct {
	Row      uint8
	Column   uint8
	Pressed  bool
	Sequence uint8
}

// DecodeKeyEvent decodes a key event payload.
func DecodeKeyEvent(data []byte) (KeyEvent, error) {
	if len(data) != KeyEventSize {
		return KeyEvent{}, fmt.Errorf("%w: %d", ErrKeyEventSize, len(data))
	}
	b := data[0]
	return KeyEvent{
		Pressed:  b&keyPressedMask != 0,
		Row:      (b >> keyRowShift) & keyRowMask,
		Column:   (b >> keyColumnShift) & keyColumnMask,
		Sequence: data[1],
	}, nil
}

// Encode returns the two-byte wire form of the event. Row and column are
// truncated to their field widths.
func (e KeyEvent) Encode() []byte {
	b := (e.Row&keyRowMask)<<keyRowShift | (e.Column&keyColumnMask)<<keyColumnShift
	if e.Pressed {
		b |= keyPressedMask
	}
	return []byte{b, e.Sequence}
}
