package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/hwmon-accessory/kbd-go/pkg/version"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// Registry errors.
var (
	ErrDecode           = errors.New("attribute decode failed")
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// DecodeError reports an attribute value that was rejected.
type DecodeError struct {
	ID  AttributeID
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("attribute %s: %v", e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode decodes a raw attribute value and checks it against the
// attribute's descriptor.
func Decode(id AttributeID, data []byte) (wire.Value, error) {
	d, ok := Lookup(id)
	if !ok {
		return wire.Value{}, &DecodeError{ID: id, Err: ErrUnknownAttribute}
	}
	v, err := wire.DecodeValue(data)
	if err != nil {
		return wire.Value{}, &DecodeError{ID: id, Err: fmt.Errorf("%w: %w", ErrDecode, err)}
	}
	if err := d.Check(v); err != nil {
		return wire.Value{}, &DecodeError{ID: id, Err: err}
	}
	return v, nil
}

// Apply decodes a raw attribute value and stores it in s. A rejected value
// leaves s unchanged.
func Apply(s *AccessoryState, id AttributeID, data []byte) error {
	v, err := Decode(id, data)
	if err != nil {
		return err
	}
	store(s, id, v)
	return nil
}

// store writes a checked value into the state field owned by id.
func store(s *AccessoryState, id AttributeID, v wire.Value) {
	switch id {
	case AttrProtocolVersion:
		s.ProtocolVersion = uint8(v.Uint)
	case AttrFirmwareVersion:
		s.Firmware = version.Version{Major: uint8(v.Uint), Minor: uint8(v.Uint >> 8)}
	case AttrHardwareVersion:
		s.HardwareVersion = uint16(v.Uint)
	case AttrDeviceClass:
		s.DeviceClass = uint8(v.Uint)
	case AttrDeviceID:
		s.DeviceID = v.Uint
	case AttrImageStartAddress:
		s.ImageStart = v.Uint
	case AttrDeviceName:
		s.DeviceName = string(v.Octets)
	case AttrBuildFingerprint:
		s.Fingerprint = Fingerprint(v.Uint)
	case AttrValidImage:
		s.ValidImage = v.Bool
	case AttrKeyLayout:
		s.KeyLayout = uint8(v.Uint)
	case AttrLanguage:
		s.Language = Language(v.Uint)
	case AttrHostSerial:
		s.HostSerial = string(v.Octets)
	case AttrPeripheralSerial:
		s.PeripheralSerial = string(v.Octets)
	case AttrProductionRecord:
		s.ProductionRecord = uint8(v.Uint)
	case AttrAliveTimeout:
		s.Tuning.AliveTimeoutMs = uint16(v.Uint)
	case AttrMatrixScanDelay:
		s.Tuning.MatrixScanDelayUs = uint16(v.Uint)
	case AttrDebounceTime:
		s.Tuning.DebounceTimeMs = uint8(v.Uint)
	case AttrDebouncePrecision:
		s.Tuning.DebouncePrecisionMs = uint8(v.Uint)
	case AttrBacklightRange:
		s.Tuning.BacklightRange = uint8(v.Uint)
	case AttrBacklightCoeff:
		s.Tuning.BacklightCoeff = uint16(v.Uint)
	case AttrBacklightZones:
		for i := range s.Zones {
			s.Zones[i] = uint8(v.Items[i])
		}
	case AttrCapsLockLight:
		s.CapsLockLight = v.Bool
	case AttrRMKeyLight:
		s.RMKeyLight = v.Bool
	}
}

// FirmwareVersionValue returns the FW_VERSION wire value for v.
func FirmwareVersionValue(v version.Version) wire.Value {
	return wire.Uint16Value(uint16(v.Major) | uint16(v.Minor)<<8)
}

// AttributeReader reads raw attribute values from an accessory.
type AttributeReader interface {
	ReadAttribute(ctx context.Context, ep wire.Endpoint, id uint8) ([]byte, error)
}

// ReadAttributes reads ids in order and passes each raw value to apply.
//
// A read failure aborts the sequence and is returned. A value rejected by
// apply only skips that attribute; the rejected IDs are returned.
func ReadAttributes(ctx context.Context, r AttributeReader, ep wire.Endpoint, ids []AttributeID,
	apply func(AttributeID, []byte) error) ([]AttributeID, error) {
	var rejected []AttributeID
	for _, id := range ids {
		data, err := r.ReadAttribute(ctx, ep, uint8(id))
		if err != nil {
			return rejected, fmt.Errorf("read %s: %w", id, err)
		}
		if err := apply(id, data); err != nil {
			rejected = append(rejected, id)
		}
	}
	return rejected, nil
}
