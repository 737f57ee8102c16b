package log

import (
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// Filter selects events by exact match. Zero fields match everything.
type Filter struct {
	ConnectionID string
	Port         string
	Serial       string

	Direction *Direction
	Layer     *Layer
	Category  *Category

	// Command keeps only packets carrying this command.
	Command *wire.Command

	// Since and Until bound the timestamp to [Since, Until).
	Since *time.Time
	Until *time.Time
}

func (f *Filter) matches(e Event) bool {
	switch {
	case f.ConnectionID != "" && e.ConnectionID != f.ConnectionID,
		f.Port != "" && e.Port != f.Port,
		f.Serial != "" && e.Serial != f.Serial,
		f.Direction != nil && e.Direction != *f.Direction,
		f.Layer != nil && e.Layer != *f.Layer,
		f.Category != nil && e.Category != *f.Category,
		f.Since != nil && e.Timestamp.Before(*f.Since),
		f.Until != nil && !e.Timestamp.Before(*f.Until):
		return false
	}
	if f.Command != nil {
		return e.Packet != nil && e.Packet.Command != nil && *e.Packet.Command == *f.Command
	}
	return true
}

// Reader streams events from a .klog file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	header  Header
	filter  Filter
}

// NewReader opens path for reading every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path for reading the events matching filter.
// It fails with ErrNotTrace if the file has no valid header.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec := traceDec.NewDecoder(f)
	header, err := readHeader(dec)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Reader{
		file:    f,
		decoder: dec,
		header:  header,
		filter:  filter,
	}, nil
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next matching event, or io.EOF at the end of the file.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.file.Close()
}
