package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/hwmon-accessory/kbd-go/pkg/log"
)

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "single byte", payload: []byte{0x42}},
		{name: "packet", payload: []byte{0xa5, 0x01, 0x00, 0x02, 0x01, 0x03, 0x01, 0x04, 0x12}},
		{name: "firmware chunk", payload: bytes.Repeat([]byte{0x5a}, 256)},
		{name: "max size", payload: bytes.Repeat([]byte("y"), DefaultMaxFrameSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)

			if err := NewFrameWriter(buf).WriteFrame(tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}
			if buf.Len() != FrameSize(len(tt.payload)) {
				t.Errorf("frame size = %d, want %d", buf.Len(), FrameSize(len(tt.payload)))
			}
			if got := binary.BigEndian.Uint32(buf.Bytes()[:LengthPrefixSize]); got != uint32(len(tt.payload)) {
				t.Errorf("length prefix = %d, want %d", got, len(tt.payload))
			}

			got, err := NewFrameReader(buf).ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d bytes", len(got), len(tt.payload))
			}
		})
	}
}

func TestFrameWriterRejects(t *testing.T) {
	w := NewFrameWriter(new(bytes.Buffer))

	if err := w.WriteFrame(nil); !errors.Is(err, ErrFrameEmpty) {
		t.Errorf("expected ErrFrameEmpty, got %v", err)
	}
	if err := w.WriteFrame(make([]byte, DefaultMaxFrameSize+1)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestFrameReaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{name: "empty stream", input: nil, want: io.EOF},
		{name: "zero length", input: []byte{0, 0, 0, 0}, want: ErrFrameEmpty},
		{name: "too large", input: []byte{0, 0, 0x10, 0x01}, want: ErrFrameTooLarge},
		{name: "truncated prefix", input: []byte{0, 0}, want: ErrFrameTruncated},
		{name: "truncated payload", input: []byte{0, 0, 0, 4, 1, 2}, want: ErrFrameTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFrameReader(bytes.NewReader(tt.input)).ReadFrame()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMultipleFrames(t *testing.T) {
	buf := new(bytes.Buffer)
	framer := NewFramer(struct {
		io.Reader
		io.Writer
	}{buf, buf}, 0)

	frames := [][]byte{{1}, {2, 3}, {4, 5, 6}}
	for _, f := range frames {
		if err := framer.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	for i, want := range frames {
		got, err := framer.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: ReadFrame failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d = %v, want %v", i, got, want)
		}
	}
}

func TestFramerCustomMaxSize(t *testing.T) {
	buf := new(bytes.Buffer)
	framer := NewFramer(struct {
		io.Reader
		io.Writer
	}{buf, buf}, 8)

	if err := framer.WriteFrame(make([]byte, 9)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

// capturingLogger captures log events for testing.
type capturingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *capturingLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *capturingLogger) Events() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}

func TestFramerLogsFrames(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := &capturingLogger{}

	framer := NewFramer(struct {
		io.Reader
		io.Writer
	}{buf, buf}, 0)
	framer.SetLogger(logger, "conn-123", "/dev/ttymxc1")

	payload := bytes.Repeat([]byte{0xab}, log.MaxFrameCapture+10)
	if err := framer.WriteFrame(payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if _, err := framer.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	events := logger.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Direction != log.DirectionOut || events[1].Direction != log.DirectionIn {
		t.Errorf("directions = %v, %v", events[0].Direction, events[1].Direction)
	}
	for _, e := range events {
		if e.ConnectionID != "conn-123" {
			t.Errorf("ConnectionID = %q, want %q", e.ConnectionID, "conn-123")
		}
		if e.Port != "/dev/ttymxc1" {
			t.Errorf("Port = %q", e.Port)
		}
		if e.Layer != log.LayerTransport {
			t.Errorf("Layer = %v, want LayerTransport", e.Layer)
		}
		if e.Frame == nil {
			t.Fatal("Frame is nil")
		}
		if e.Frame.Size != FrameSize(len(payload)) {
			t.Errorf("Frame.Size = %d, want %d", e.Frame.Size, FrameSize(len(payload)))
		}
		if !e.Frame.Truncated || len(e.Frame.Data) != log.MaxFrameCapture {
			t.Errorf("expected truncated capture of %d bytes, got %d", log.MaxFrameCapture, len(e.Frame.Data))
		}
	}
}
