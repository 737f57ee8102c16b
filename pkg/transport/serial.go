package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// DefaultBaudRate is the UART speed of the accessory connector.
const DefaultBaudRate = 1000000

// Opener opens the byte stream a Link runs over.
type Opener func(ctx context.Context) (io.ReadWriteCloser, error)

// SerialConfig configures a serial port.
type SerialConfig struct {
	// Port is the device path, e.g. /dev/ttymxc1.
	Port string

	// BaudRate defaults to DefaultBaudRate.
	BaudRate int
}

// SerialOpener returns an Opener for the configured port.
func SerialOpener(cfg SerialConfig) Opener {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return OpenSerial(cfg)
	}
}

// OpenSerial opens the port in 8N1 mode.
func OpenSerial(cfg SerialConfig) (serial.Port, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	return port, nil
}

// IsDisconnect reports whether err means the port went away, as opposed to
// a configuration or permission problem that retrying will not fix.
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrLinkClosed) || errors.Is(err, ErrFrameTruncated) {
		return true
	}

	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.PortClosed, serial.InvalidSerialPort:
			return true
		default:
			return false
		}
	}
	return true
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
