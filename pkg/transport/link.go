package transport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hwmon-accessory/kbd-go/pkg/log"
)

// Link errors.
var (
	ErrLinkClosed = errors.New("link closed")
)

// FrameHandler receives inbound frames on the link's read goroutine.
type FrameHandler func(frame []byte)

// LinkConfig configures a Link.
type LinkConfig struct {
	// MaxFrameSize bounds frames in both directions. Zero uses
	// DefaultMaxFrameSize.
	MaxFrameSize uint32

	// Port names the underlying device in logs.
	Port string

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// ProtocolLogger captures frames and link state changes.
	ProtocolLogger log.Logger
}

// Link carries framed packets over a byte stream such as a serial port.
type Link struct {
	id     string
	config LinkConfig
	rwc    io.ReadWriteCloser
	framer *Framer

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}

	mu  sync.Mutex
	err error
}

// NewLink wraps rwc. Each link gets a fresh connection id.
func NewLink(rwc io.ReadWriteCloser, config LinkConfig) *Link {
	l := &Link{
		id:     uuid.NewString(),
		config: config,
		rwc:    rwc,
		framer: NewFramer(rwc, config.MaxFrameSize),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	l.framer.SetLogger(config.ProtocolLogger, l.id, config.Port)
	l.logState("", "OPEN", "")
	return l
}

// ID returns the connection id used in protocol logs.
func (l *Link) ID() string {
	return l.id
}

// Port returns the configured port name.
func (l *Link) Port() string {
	return l.config.Port
}

// Send writes one frame.
func (l *Link) Send(data []byte) error {
	select {
	case <-l.closed:
		return ErrLinkClosed
	default:
	}
	return l.framer.WriteFrame(data)
}

// Run reads frames and passes them to handler until the link is closed or
// the stream fails. It returns nil after Close and the read error otherwise.
func (l *Link) Run(handler FrameHandler) error {
	defer close(l.done)

	for {
		frame, err := l.framer.ReadFrame()
		if err != nil {
			select {
			case <-l.closed:
				return nil
			default:
			}
			if err == io.EOF {
				err = fmt.Errorf("%w: end of stream", ErrLinkClosed)
			}
			l.setErr(err)
			l.shutdown(err.Error())
			return err
		}
		handler(frame)
	}
}

// Done is closed when Run returns.
func (l *Link) Done() <-chan struct{} {
	return l.done
}

// Err returns the error that ended the read loop, if any.
func (l *Link) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close closes the link and the underlying stream.
func (l *Link) Close() error {
	return l.shutdown("closed")
}

func (l *Link) shutdown(reason string) error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closed)
		err = l.rwc.Close()
		l.logState("OPEN", "CLOSED", reason)
		if l.config.Logger != nil {
			l.config.Logger.Debug("link closed", "port", l.config.Port, "conn", l.id, "reason", reason)
		}
	})
	return err
}

func (l *Link) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *Link) logState(oldState, newState, reason string) {
	if l.config.ProtocolLogger == nil {
		return
	}
	l.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: l.id,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		Port:         l.config.Port,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityLink,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
