package model

import (
	"fmt"

	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// AttributeID identifies an accessory attribute on the wire.
type AttributeID uint8

// Read-only attributes.
const (
	AttrProtocolVersion   AttributeID = 0x01
	AttrFirmwareVersion   AttributeID = 0x02
	AttrHardwareVersion   AttributeID = 0x03
	AttrDeviceClass       AttributeID = 0x04
	AttrDeviceID          AttributeID = 0x05
	AttrImageStartAddress AttributeID = 0x06
	AttrDeviceName        AttributeID = 0x07
	AttrBuildFingerprint  AttributeID = 0x08
	AttrValidImage        AttributeID = 0x09
)

// Read-write attributes.
const (
	AttrKeyLayout        AttributeID = 0x10
	AttrLanguage         AttributeID = 0x11
	AttrHostSerial       AttributeID = 0x12
	AttrPeripheralSerial AttributeID = 0x13
)

// Production and test attributes.
const (
	AttrProductionRecord AttributeID = 0x20
)

// Communication timing attributes.
const (
	AttrAliveTimeout      AttributeID = 0x30
	AttrMatrixScanDelay   AttributeID = 0x31
	AttrDebounceTime      AttributeID = 0x40
	AttrDebouncePrecision AttributeID = 0x41
)

// Backlight attributes.
const (
	AttrBacklightRange AttributeID = 0x50
	AttrBacklightCoeff AttributeID = 0x51
	AttrBacklightZones AttributeID = 0x52
	AttrCapsLockLight  AttributeID = 0x53
	AttrRMKeyLight     AttributeID = 0x54
)

// BacklightZones is the number of independently lit backlight zones.
const BacklightZones = 6

// InitialAttributes is the attribute set read on every connect and again
// after a firmware update, in this order.
var InitialAttributes = []AttributeID{
	AttrKeyLayout,
	AttrLanguage,
	AttrFirmwareVersion,
	AttrBuildFingerprint,
	AttrImageStartAddress,
	AttrDeviceName,
	AttrValidImage,
	AttrHostSerial,
}

// Class groups attributes by access rules.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassReadOnly
	ClassReadWrite
	ClassProduction
	ClassTiming
	ClassDebounce
	ClassBacklight
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassReadOnly:
		return "read-only"
	case ClassReadWrite:
		return "read-write"
	case ClassProduction:
		return "production"
	case ClassTiming:
		return "timing"
	case ClassDebounce:
		return "debounce"
	case ClassBacklight:
		return "backlight"
	default:
		return "unknown"
	}
}

// Writable returns true if attributes of this class accept writes from the
// host.
func (c Class) Writable() bool {
	return c != ClassReadOnly && c != ClassUnknown
}

// Class returns the access class of the attribute.
func (id AttributeID) Class() Class {
	switch {
	case id >= 0x01 && id <= 0x09:
		return ClassReadOnly
	case id >= 0x10 && id <= 0x13:
		return ClassReadWrite
	case id == 0x20:
		return ClassProduction
	case id >= 0x30 && id <= 0x31:
		return ClassTiming
	case id >= 0x40 && id <= 0x41:
		return ClassDebounce
	case id >= 0x50 && id <= 0x54:
		return ClassBacklight
	default:
		return ClassUnknown
	}
}

// String returns the attribute name.
func (id AttributeID) String() string {
	if d, ok := Lookup(id); ok {
		return d.Name
	}
	return fmt.Sprintf("ATTR_0x%02X", uint8(id))
}

// Descriptor is the static declaration of one attribute.
type Descriptor struct {
	ID   AttributeID
	Name string

	// Type is the wire type the value must carry.
	Type wire.DataType

	// Subtype and Length constrain array values. Length 0 accepts any
	// length.
	Subtype wire.DataType
	Length  int
}

// Check verifies that v has the shape this attribute expects.
func (d Descriptor) Check(v wire.Value) error {
	if v.Type != d.Type {
		return fmt.Errorf("%w: %s is %s, got %s", ErrDecode, d.Name, d.Type, v.Type)
	}
	if d.Type != wire.DataTypeArray {
		return nil
	}
	if v.Subtype != d.Subtype {
		return fmt.Errorf("%w: %s elements are %s, got %s", ErrDecode, d.Name, d.Subtype, v.Subtype)
	}
	if d.Length > 0 && len(v.Items) != d.Length {
		return fmt.Errorf("%w: %s has %d elements, got %d", ErrDecode, d.Name, d.Length, len(v.Items))
	}
	return nil
}

// Encode checks v against the descriptor and returns its wire encoding.
func (d Descriptor) Encode(v wire.Value) ([]byte, error) {
	if err := d.Check(v); err != nil {
		return nil, err
	}
	return wire.EncodeValue(v)
}

var descriptors = [...]Descriptor{
	{ID: AttrProtocolVersion, Name: "PROTOCOL_VERSION", Type: wire.DataTypeUint8},
	{ID: AttrFirmwareVersion, Name: "FW_VERSION", Type: wire.DataTypeUint16},
	{ID: AttrHardwareVersion, Name: "HW_VERSION", Type: wire.DataTypeUint16},
	{ID: AttrDeviceClass, Name: "DEVICE_CLASS", Type: wire.DataTypeUint8},
	{ID: AttrDeviceID, Name: "DEVICE_ID", Type: wire.DataTypeUint32},
	{ID: AttrImageStartAddress, Name: "IMAGE_START_ADDRESS", Type: wire.DataTypeUint32},
	{ID: AttrDeviceName, Name: "DEVICE_NAME", Type: wire.DataTypeString},
	{ID: AttrBuildFingerprint, Name: "GIT_INFO", Type: wire.DataTypeData32},
	{ID: AttrValidImage, Name: "VALID_IMAGE", Type: wire.DataTypeBool},
	{ID: AttrKeyLayout, Name: "KEY_LAYOUT", Type: wire.DataTypeUint8},
	{ID: AttrLanguage, Name: "LANGUAGE", Type: wire.DataTypeEnum8},
	{ID: AttrHostSerial, Name: "RM_SERIAL_NUMBER", Type: wire.DataTypeString},
	{ID: AttrPeripheralSerial, Name: "CN_SERIAL_NUMBER", Type: wire.DataTypeString},
	{ID: AttrProductionRecord, Name: "MFG_PROD_RECORDS", Type: wire.DataTypeUint8},
	{ID: AttrAliveTimeout, Name: "ALIVE_MESSAGE_TIMEOUT_MS", Type: wire.DataTypeUint16},
	{ID: AttrMatrixScanDelay, Name: "MATRIX_SCAN_DELAY_US", Type: wire.DataTypeUint16},
	{ID: AttrDebounceTime, Name: "KEY_DEBOUNCE_TIME_MS", Type: wire.DataTypeUint8},
	{ID: AttrDebouncePrecision, Name: "DEBOUNCE_TIME_PRECISION_MS", Type: wire.DataTypeUint8},
	{ID: AttrBacklightRange, Name: "BACKLIGHT_RANGE", Type: wire.DataTypeUint8},
	{ID: AttrBacklightCoeff, Name: "BKL_COEFF", Type: wire.DataTypeUint16},
	{ID: AttrBacklightZones, Name: "BKL_BRIGHTNESS", Type: wire.DataTypeArray, Subtype: wire.DataTypeUint8, Length: BacklightZones},
	{ID: AttrCapsLockLight, Name: "KEY_LIGHT_CAPS", Type: wire.DataTypeBool},
	{ID: AttrRMKeyLight, Name: "KEY_LIGHT_RM", Type: wire.DataTypeBool},
}

// Lookup returns the descriptor of a known attribute.
func Lookup(id AttributeID) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Descriptors returns all known attribute descriptors in ID order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors[:])
	return out
}
