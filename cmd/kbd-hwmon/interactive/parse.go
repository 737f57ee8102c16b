package interactive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

func parseLevel(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%q is not a level 0-255", s)
	}
	return uint8(v), nil
}

func parseLED(s string) (keymap.LED, error) {
	switch strings.ToLower(s) {
	case "caps", "capslock":
		return keymap.LEDCapsLock, nil
	case "rm", "misc":
		return keymap.LEDMisc, nil
	default:
		return 0, fmt.Errorf("unknown indicator %q", s)
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("want on or off, got %q", s)
	}
}

func parsePosition(rowArg, colArg string) (uint8, uint8, error) {
	row, err := strconv.ParseUint(rowArg, 10, 8)
	if err != nil || row >= wire.MaxScanRows {
		return 0, 0, fmt.Errorf("row must be 0-%d", wire.MaxScanRows-1)
	}
	col, err := strconv.ParseUint(colArg, 10, 8)
	if err != nil || col >= wire.MaxScanColumns {
		return 0, 0, fmt.Errorf("column must be 0-%d", wire.MaxScanColumns-1)
	}
	return uint8(row), uint8(col), nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
