// Package version provides accessory firmware version parsing and comparison.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Size is the encoded size of a firmware version on the wire.
const Size = 2

// ErrInvalidSize indicates a version payload of the wrong length.
var ErrInvalidSize = errors.New("invalid firmware version size")

// Version is an accessory firmware version.
type Version struct {
	Major uint8
	Minor uint8
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil || parts[0] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil || parts[1] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Version{Major: uint8(major), Minor: uint8(minor)}, nil
}

// FromBytes decodes the two-byte wire form [major][minor].
func FromBytes(b []byte) (Version, error) {
	if len(b) != Size {
		return Version{}, fmt.Errorf("%w: %d", ErrInvalidSize, len(b))
	}
	return Version{Major: b[0], Minor: b[1]}, nil
}

// Bytes returns the two-byte wire form [major][minor].
func (v Version) Bytes() []byte {
	return []byte{v.Major, v.Minor}
}

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// IsZero returns true if no version has been read yet.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than other.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		if v.Major < other.Major {
			return -1
		}
		return 1
	case v.Minor != other.Minor:
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so versions can be
// read from configuration and manifest files.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
