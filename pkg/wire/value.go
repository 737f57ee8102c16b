package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// DataType is the storage type of an attribute value on the wire.
type DataType uint8

const (
	DataTypeUnknown DataType = iota
	DataTypeBool
	DataTypeUint8
	DataTypeUint16
	DataTypeUint32
	DataTypeData32
	DataTypeEnum8
	DataTypeArray
	DataTypeString
)

// String returns the data type name.
func (d DataType) String() string {
	names := []string{
		"unknown", "bool", "uint8", "uint16", "uint32",
		"data32", "enum8", "array", "string",
	}
	if int(d) < len(names) {
		return names[d]
	}
	return "unknown"
}

// Width returns the encoded size of a scalar type in bytes, or 0 for
// variable length and unknown types.
func (d DataType) Width() int {
	switch d {
	case DataTypeBool, DataTypeUint8, DataTypeEnum8:
		return 1
	case DataTypeUint16:
		return 2
	case DataTypeUint32, DataTypeData32:
		return 4
	default:
		return 0
	}
}

// IsScalar returns true for fixed-width integer, enum and boolean types.
func (d DataType) IsScalar() bool {
	return d.Width() > 0
}

// MaxVariableLength is the largest array or string a value can carry.
const MaxVariableLength = 255

// Value errors.
var (
	ErrValueTruncated  = errors.New("value truncated")
	ErrValueTrailing   = errors.New("trailing bytes after value")
	ErrUnknownDataType = errors.New("unknown data type")
	ErrValueTooLong    = errors.New("value too long")
)

// Value is a decoded attribute value. Which fields are meaningful depends
// on Type:
//   - scalar types: Uint (Bool for DataTypeBool)
//   - DataTypeArray: Subtype and Items
//   - DataTypeString: Octets
type Value struct {
	Type    DataType
	Uint    uint32
	Bool    bool
	Subtype DataType
	Items   []uint32
	Octets  []byte
}

// Uint8Value returns an unsigned 8-bit value.
func Uint8Value(v uint8) Value { return Value{Type: DataTypeUint8, Uint: uint32(v)} }

// Uint16Value returns an unsigned 16-bit value.
func Uint16Value(v uint16) Value { return Value{Type: DataTypeUint16, Uint: uint32(v)} }

// Uint32Value returns an unsigned 32-bit value.
func Uint32Value(v uint32) Value { return Value{Type: DataTypeUint32, Uint: v} }

// Data32Value returns an opaque 32-bit value.
func Data32Value(v uint32) Value { return Value{Type: DataTypeData32, Uint: v} }

// Enum8Value returns an 8-bit enumeration value.
func Enum8Value(v uint8) Value { return Value{Type: DataTypeEnum8, Uint: uint32(v)} }

// BoolValue returns a boolean value.
func BoolValue(v bool) Value {
	var u uint32
	if v {
		u = 1
	}
	return Value{Type: DataTypeBool, Bool: v, Uint: u}
}

// StringValue returns a length-prefixed string value.
func StringValue(s string) Value {
	return Value{Type: DataTypeString, Octets: []byte(s)}
}

// Uint8ArrayValue returns a fixed array of unsigned bytes.
func Uint8ArrayValue(items []uint8) Value {
	v := Value{Type: DataTypeArray, Subtype: DataTypeUint8, Items: make([]uint32, len(items))}
	for i, b := range items {
		v.Items[i] = uint32(b)
	}
	return v
}

// String renders the value for logs.
func (v Value) String() string {
	switch v.Type {
	case DataTypeBool:
		return fmt.Sprintf("%t", v.Bool)
	case DataTypeArray:
		return fmt.Sprintf("%s%v", v.Subtype, v.Items)
	case DataTypeString:
		return fmt.Sprintf("%q", v.Octets)
	case DataTypeUnknown:
		return "<unknown>"
	default:
		return fmt.Sprintf("%s(%d)", v.Type, v.Uint)
	}
}

// EncodeValue encodes an attribute value as [type][payload].
func EncodeValue(v Value) ([]byte, error) {
	return AppendValue(nil, v)
}

// AppendValue appends the encoding of v to dst.
func AppendValue(dst []byte, v Value) ([]byte, error) {
	switch v.Type {
	case DataTypeBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return append(dst, byte(v.Type), b), nil
	case DataTypeUint8, DataTypeEnum8, DataTypeUint16, DataTypeUint32, DataTypeData32:
		dst = append(dst, byte(v.Type))
		return appendScalar(dst, v.Type, v.Uint), nil
	case DataTypeArray:
		if !v.Subtype.IsScalar() || v.Subtype == DataTypeBool {
			return nil, fmt.Errorf("%w: array of %s", ErrUnknownDataType, v.Subtype)
		}
		if len(v.Items) > MaxVariableLength {
			return nil, fmt.Errorf("%w: %d items", ErrValueTooLong, len(v.Items))
		}
		dst = append(dst, byte(v.Type), byte(v.Subtype), byte(len(v.Items)))
		for _, it := range v.Items {
			dst = appendScalar(dst, v.Subtype, it)
		}
		return dst, nil
	case DataTypeString:
		if len(v.Octets) > MaxVariableLength {
			return nil, fmt.Errorf("%w: %d bytes", ErrValueTooLong, len(v.Octets))
		}
		dst = append(dst, byte(v.Type), byte(len(v.Octets)))
		return append(dst, v.Octets...), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownDataType, v.Type)
	}
}

func appendScalar(dst []byte, t DataType, u uint32) []byte {
	switch t.Width() {
	case 1:
		return append(dst, byte(u))
	case 2:
		return binary.LittleEndian.AppendUint16(dst, uint16(u))
	default:
		return binary.LittleEndian.AppendUint32(dst, u)
	}
}

func readScalar(t DataType, b []byte) uint32 {
	switch t.Width() {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	default:
		return binary.LittleEndian.Uint32(b)
	}
}

// DecodeValue decodes a [type][payload] attribute value. The whole buffer
// must be consumed.
func DecodeValue(data []byte) (Value, error) {
	if len(data) < 1 {
		return Value{}, ErrValueTruncated
	}
	t := DataType(data[0])
	body := data[1:]

	var v Value
	var n int
	switch t {
	case DataTypeBool, DataTypeUint8, DataTypeEnum8, DataTypeUint16, DataTypeUint32, DataTypeData32:
		n = t.Width()
		if len(body) < n {
			return Value{}, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrValueTruncated, t, n, len(body))
		}
		v = Value{Type: t, Uint: readScalar(t, body)}
		if t == DataTypeBool {
			v.Bool = v.Uint != 0
		}

	case DataTypeArray:
		if len(body) < 2 {
			return Value{}, fmt.Errorf("%w: array header", ErrValueTruncated)
		}
		sub := DataType(body[0])
		if !sub.IsScalar() || sub == DataTypeBool {
			return Value{}, fmt.Errorf("%w: array of %d", ErrUnknownDataType, body[0])
		}
		count := int(body[1])
		w := sub.Width()
		n = 2 + count*w
		if len(body) < n {
			return Value{}, fmt.Errorf("%w: array of %d %s", ErrValueTruncated, count, sub)
		}
		v = Value{Type: t, Subtype: sub, Items: make([]uint32, count)}
		for i := 0; i < count; i++ {
			v.Items[i] = readScalar(sub, body[2+i*w:])
		}

	case DataTypeString:
		if len(body) < 1 {
			return Value{}, fmt.Errorf("%w: string length", ErrValueTruncated)
		}
		size := int(body[0])
		n = 1 + size
		if len(body) < n {
			return Value{}, fmt.Errorf("%w: string of %d bytes", ErrValueTruncated, size)
		}
		v = Value{Type: t, Octets: append([]byte(nil), body[1:n]...)}

	default:
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownDataType, data[0])
	}

	if len(body) != n {
		return Value{}, fmt.Errorf("%w: %d", ErrValueTrailing, len(body)-n)
	}
	return v, nil
}
