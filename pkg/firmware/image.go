package firmware

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/hwmon-accessory/kbd-go/pkg/version"
)

// Image file layout constants.
const (
	// HeaderSize is the size of the image file header.
	HeaderSize = 20

	// Magic starts every image file.
	Magic = "RMKB"
)

// Image errors.
var (
	ErrBadMagic     = errors.New("bad image magic")
	ErrShortImage   = errors.New("image shorter than header")
	ErrSizeMismatch = errors.New("image size does not match header")
	ErrCRCMismatch  = errors.New("image crc does not match header")
)

// Header describes a firmware image.
type Header struct {
	// Version is the firmware version the image declares.
	Version version.Version

	// StartAddress is the flash address the image is linked for.
	StartAddress uint32

	// Size is the payload size in bytes.
	Size uint32

	// CRC is the IEEE CRC-32 of the payload.
	CRC uint32
}

// Image is a parsed firmware image.
type Image struct {
	Header

	// Device is the accessory device name the image is for.
	Device string

	// Name identifies the image in logs (usually the file name).
	Name string

	// Payload is the flash content.
	Payload []byte
}

// ParseImage parses an image file:
//
//	[magic 4][major][minor][reserved 2][start u32][size u32][crc32 u32][payload]
//
// Multi-byte fields are little-endian.
func ParseImage(data []byte) (*Image, error) {
	if len(data) < HeaderSize {
		return nil, ErrShortImage
	}
	if string(data[:4]) != Magic {
		return nil, ErrBadMagic
	}

	h := Header{
		Version:      version.Version{Major: data[4], Minor: data[5]},
		StartAddress: binary.LittleEndian.Uint32(data[8:12]),
		Size:         binary.LittleEndian.Uint32(data[12:16]),
		CRC:          binary.LittleEndian.Uint32(data[16:20]),
	}

	payload := data[HeaderSize:]
	if uint32(len(payload)) != h.Size {
		return nil, fmt.Errorf("%w: header %d, payload %d", ErrSizeMismatch, h.Size, len(payload))
	}
	if crc := crc32.ChecksumIEEE(payload); crc != h.CRC {
		return nil, fmt.Errorf("%w: header %08x, payload %08x", ErrCRCMismatch, h.CRC, crc)
	}

	return &Image{Header: h, Payload: payload}, nil
}

// BuildImage returns the file form of an image with the given header
// fields. Size and CRC are computed from payload.
func BuildImage(v version.Version, start uint32, payload []byte) []byte {
	out := make([]byte, HeaderSize+len(payload))
	copy(out, Magic)
	out[4] = v.Major
	out[5] = v.Minor
	binary.LittleEndian.PutUint32(out[8:12], start)
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[16:20], crc32.ChecksumIEEE(payload))
	copy(out[HeaderSize:], payload)
	return out
}

// Applicable picks the image to flash onto an accessory running version
// running from the bank at runningStart. An image applies when its version
// differs from the running one and it targets the other bank. It returns
// nil if no image applies.
func Applicable(images []*Image, running version.Version, runningStart uint32) *Image {
	for _, img := range images {
		if img.Version == running {
			continue
		}
		if img.StartAddress == runningStart {
			continue
		}
		return img
	}
	return nil
}
