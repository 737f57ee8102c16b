package log

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// TraceFormatVersion is the .klog layout written by FileLogger.
const TraceFormatVersion = 1

const traceMagic = "KLOG"

// ErrNotTrace is returned when a file does not start with a .klog header.
var ErrNotTrace = errors.New("not a protocol trace file")

// Header is the first record of every .klog file.
type Header struct {
	Magic   string    `cbor:"1,keyasint"`
	Version uint8     `cbor:"2,keyasint"`
	Created time.Time `cbor:"3,keyasint"`
	Host    string    `cbor:"4,keyasint,omitempty"`
}

func newHeader(host string) Header {
	return Header{
		Magic:   traceMagic,
		Version: TraceFormatVersion,
		Created: time.Now(),
		Host:    host,
	}
}

func (h Header) validate() error {
	if h.Magic != traceMagic {
		return ErrNotTrace
	}
	if h.Version == 0 || h.Version > TraceFormatVersion {
		return fmt.Errorf("unsupported trace version %d", h.Version)
	}
	return nil
}

// Events are written with canonical key order and nanosecond timestamps;
// decoding tolerates indefinite-length items from other writers.
var (
	traceEnc = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	})
	traceDec = mustDecMode(cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: cbor encoder options: %v", err))
	}
	return em
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: cbor decoder options: %v", err))
	}
	return dm
}

// EncodeEvent encodes a single event record.
func EncodeEvent(event Event) ([]byte, error) {
	return traceEnc.Marshal(event)
}

// DecodeEvent decodes a single event record.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := traceDec.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// readHeader consumes and checks the leading header record.
func readHeader(dec *cbor.Decoder) (Header, error) {
	var h Header
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			return Header{}, ErrNotTrace
		}
		return Header{}, fmt.Errorf("%w: %w", ErrNotTrace, err)
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}
