package wire

import (
	"fmt"
	"strings"
)

// Endpoint identifies the logical protocol channel of one accessory.
type Endpoint uint8

const (
	// EndpointHost is the host controller itself.
	EndpointHost Endpoint = 0x00

	// EndpointKeyboard is the keyboard accessory.
	EndpointKeyboard Endpoint = 0x01
)

// String returns the endpoint name.
func (e Endpoint) String() string {
	switch e {
	case EndpointHost:
		return "HOST"
	case EndpointKeyboard:
		return "KEYBOARD"
	default:
		return "UNKNOWN"
	}
}

// Command is a protocol command number.
type Command uint8

const (
	// CmdAccessoryConnect is sent by the accessory when it is attached.
	CmdAccessoryConnect Command = 0x10

	// CmdAccessoryDisconnect is sent when the accessory is detached.
	CmdAccessoryDisconnect Command = 0x11

	// CmdKeyEvent carries one key matrix scan event (see KeyEvent).
	CmdKeyEvent Command = 0x12

	// CmdAuthorizeRequest asks the accessory to authorize. The accessory
	// answers with the same command and a single status byte.
	CmdAuthorizeRequest Command = 0x13

	// CmdFWUInit opens a firmware update session.
	CmdFWUInit Command = 0x20

	// CmdFWUData transfers one chunk of a firmware image.
	CmdFWUData Command = 0x21

	// CmdFWUValidate asks the accessory to verify the transferred image.
	CmdFWUValidate Command = 0x22

	// CmdFWUActivate marks the transferred image active.
	CmdFWUActivate Command = 0x23
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdAccessoryConnect:
		return "ACCS_CONNECT"
	case CmdAccessoryDisconnect:
		return "ACCS_DISCONNECT"
	case CmdKeyEvent:
		return "KEY_EVENT"
	case CmdAuthorizeRequest:
		return "ACCS_AUTHORIZE_REQUEST"
	case CmdFWUInit:
		return "FWU_INIT"
	case CmdFWUData:
		return "FWU_DATA"
	case CmdFWUValidate:
		return "FWU_VALIDATE"
	case CmdFWUActivate:
		return "FWU_ACTIVATE"
	default:
		return "UNKNOWN"
	}
}

// Commands lists every known command in numeric order.
var Commands = []Command{
	CmdAccessoryConnect,
	CmdAccessoryDisconnect,
	CmdKeyEvent,
	CmdAuthorizeRequest,
	CmdFWUInit,
	CmdFWUData,
	CmdFWUValidate,
	CmdFWUActivate,
}

// ParseCommand returns the command named s (case-insensitive), as printed
// by String.
func ParseCommand(s string) (Command, error) {
	for _, c := range Commands {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", s)
}
