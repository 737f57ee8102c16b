package model

import (
	"errors"
	"fmt"

	"github.com/hwmon-accessory/kbd-go/pkg/version"
)

// ConnectionState is the lifecycle state of an accessory slot.
type ConnectionState uint8

const (
	StateDisconnected ConnectionState = iota
	StateAuthorizing
	StateConnected
)

// String returns the state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateAuthorizing:
		return "AUTHORIZING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Language is the key cap language reported by the accessory.
type Language uint8

// Valid languages. Values outside LanguageDE..LanguageUS are not languages.
const (
	LanguageDE Language = iota + 1
	LanguageES
	LanguageFR
	LanguageIT
	LanguageNO
	LanguagePT
	LanguageUK
	LanguageUS
)

// ErrInvalidLanguage indicates a language selector outside the valid range.
var ErrInvalidLanguage = errors.New("invalid language")

var languageNames = [...]string{"DE", "ES", "FR", "IT", "NO", "PT", "UK", "US"}

// Valid returns true if l is one of the eight defined languages.
func (l Language) Valid() bool {
	return l >= LanguageDE && l <= LanguageUS
}

// Name returns the language name, or ErrInvalidLanguage when l is out of
// range. The range is checked before the name table is indexed.
func (l Language) Name() (string, error) {
	if !l.Valid() {
		return "", fmt.Errorf("%w: %d", ErrInvalidLanguage, uint8(l))
	}
	return languageNames[l-LanguageDE], nil
}

// String returns the language name, or a placeholder when out of range.
func (l Language) String() string {
	name, err := l.Name()
	if err != nil {
		return fmt.Sprintf("Language(%d)", uint8(l))
	}
	return name
}

// Fingerprint is the firmware build fingerprint: the source revision hash
// in the upper bits and the dirty-tree flag in bit 0.
type Fingerprint uint32

const fingerprintHashShift = 4

// Hash returns the abbreviated revision hash.
func (f Fingerprint) Hash() uint32 {
	return uint32(f) >> fingerprintHashShift
}

// Dirty returns true if the firmware was built from a modified tree.
func (f Fingerprint) Dirty() bool {
	return f&1 != 0
}

// String formats the fingerprint as a seven digit hash with a "-dirty"
// suffix for modified trees.
func (f Fingerprint) String() string {
	s := fmt.Sprintf("%07x", f.Hash())
	if f.Dirty() {
		s += "-dirty"
	}
	return s
}

// Tuning holds the timing, debounce and backlight calibration attributes.
type Tuning struct {
	AliveTimeoutMs      uint16
	MatrixScanDelayUs   uint16
	DebounceTimeMs      uint8
	DebouncePrecisionMs uint8
	BacklightRange      uint8
	BacklightCoeff      uint16
}

// UpdateProgress tracks a firmware update attempt.
type UpdateProgress struct {
	Active      bool
	Phase       string
	Transferred uint32
	Total       uint32
}

// AccessoryState is the record kept for one accessory slot.
type AccessoryState struct {
	State ConnectionState

	// Identity
	ProtocolVersion uint8
	HardwareVersion uint16
	DeviceClass     uint8
	DeviceID        uint32
	DeviceName      string
	Firmware        version.Version
	Fingerprint     Fingerprint
	ImageStart      uint32
	ValidImage      bool

	// Configuration
	KeyLayout        uint8
	Language         Language
	HostSerial       string
	PeripheralSerial string
	ProductionRecord uint8
	Tuning           Tuning

	// Backlight and indicators
	Brightness        uint8
	Zones             [BacklightZones]uint8
	CapsLockLight     bool
	RMKeyLight        bool
	RestoreRMKeyLight bool

	Update UpdateProgress
}

// NewAccessoryState returns the state of a freshly attached, disconnected
// slot.
func NewAccessoryState() *AccessoryState {
	return &AccessoryState{State: StateDisconnected}
}

// ResetIndicators clears the LED and resume flags.
func (s *AccessoryState) ResetIndicators() {
	s.CapsLockLight = false
	s.RMKeyLight = false
	s.RestoreRMKeyLight = false
}

// FillZones replicates level across all backlight zones.
func (s *AccessoryState) FillZones(level uint8) {
	for i := range s.Zones {
		s.Zones[i] = level
	}
}
