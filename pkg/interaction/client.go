package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/log"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// Client errors.
var (
	ErrIO              = errors.New("attribute I/O failed")
	ErrRequestTimeout  = errors.New("request timed out")
	ErrClientClosed    = errors.New("client is closed")
	ErrNoLink          = errors.New("no link attached")
	ErrUnexpectedReply = errors.New("unexpected reply")
	ErrNoHandler       = errors.New("no handler for endpoint")
	ErrEndpointInUse   = errors.New("endpoint already registered")
)

// DefaultTimeout is the per-request timeout used when none is configured.
const DefaultTimeout = 2 * time.Second

// AttributeIO is the attribute I/O service used by accessory drivers.
//
// Transport failures, including timeouts, are returned wrapped in ErrIO.
// A request the accessory answered with a failure status returns a
// *StatusError.
type AttributeIO interface {
	// ReadAttribute reads the raw [type][payload] value of an attribute.
	ReadAttribute(ctx context.Context, ep wire.Endpoint, id uint8) ([]byte, error)

	// WriteAttribute writes a raw [type][payload] value to an attribute.
	WriteAttribute(ctx context.Context, ep wire.Endpoint, id uint8, value []byte) error

	// SendCommand sends a command and waits for it to complete.
	SendCommand(ctx context.Context, ep wire.Endpoint, cmd wire.Command, payload []byte) error
}

// PacketSender sends one encoded packet over the link.
type PacketSender interface {
	Send(data []byte) error
}

// EndpointHandler receives commands sent by an accessory. It runs on the
// inbound path and must not block.
type EndpointHandler func(pkt *wire.Packet) error

// ClientConfig configures a Client.
type ClientConfig struct {
	// Timeout bounds each request. Zero uses DefaultTimeout.
	Timeout time.Duration

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// ProtocolLogger receives wire-layer packet events. Nil disables
	// protocol capture.
	ProtocolLogger log.Logger
}

type result struct {
	pkt *wire.Packet
	err error
}

type pendingRequest struct {
	endpoint wire.Endpoint
	kind     wire.PacketKind
	command  wire.Command
	order    uint64
	ch       chan result
}

// Client correlates host requests with accessory responses and dispatches
// commands sent by the accessory to endpoint handlers.
type Client struct {
	mu sync.RWMutex

	sender  PacketSender
	connID  string
	timeout time.Duration
	logger  *slog.Logger
	plog    log.Logger

	nextSeq   uint16
	nextOrder uint64

	pending   map[uint16]*pendingRequest
	pendingMu sync.Mutex

	handlers map[wire.Endpoint]EndpointHandler

	closed bool
}

// NewClient creates a client with no link attached.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		timeout:  timeout,
		logger:   cfg.Logger,
		plog:     cfg.ProtocolLogger,
		pending:  make(map[uint16]*pendingRequest),
		handlers: make(map[wire.Endpoint]EndpointHandler),
	}
}

// Attach routes outgoing packets to sender. Requests still waiting on a
// previous link fail with ErrIO.
func (c *Client) Attach(sender PacketSender, connID string) {
	c.mu.Lock()
	c.sender = sender
	c.connID = connID
	c.mu.Unlock()

	c.failPending(fmt.Errorf("%w: link replaced", ErrIO))
}

// Detach removes the link. Pending requests fail with ErrIO.
func (c *Client) Detach() {
	c.mu.Lock()
	c.sender = nil
	c.connID = ""
	c.mu.Unlock()

	c.failPending(fmt.Errorf("%w: %w", ErrIO, ErrNoLink))
}

// SetTimeout sets the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// RegisterEndpoint installs the handler for commands sent on ep.
func (c *Client) RegisterEndpoint(ep wire.Endpoint, handler EndpointHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.handlers[ep]; exists {
		return fmt.Errorf("%w: %s", ErrEndpointInUse, ep)
	}
	c.handlers[ep] = handler
	return nil
}

// RemoveEndpoint removes the handler for ep.
func (c *Client) RemoveEndpoint(ep wire.Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, ep)
}

// Close closes the client. Pending requests fail with ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.sender = nil
	c.mu.Unlock()

	c.failPending(fmt.Errorf("%w: %w", ErrIO, ErrClientClosed))
	return nil
}

func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for seq, p := range c.pending {
		select {
		case p.ch <- result{err: err}:
		default:
		}
		delete(c.pending, seq)
	}
}

// nextSequence returns the next request sequence number, skipping the
// unsolicited marker. Must be called with pendingMu held.
func (c *Client) nextSequence() uint16 {
	for {
		c.nextSeq++
		if c.nextSeq == wire.UnsolicitedSeq {
			continue
		}
		if _, busy := c.pending[c.nextSeq]; !busy {
			return c.nextSeq
		}
	}
}

// roundTrip sends a request packet and waits for its completion.
func (c *Client) roundTrip(ctx context.Context, pkt *wire.Packet) (*wire.Packet, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, fmt.Errorf("%w: %w", ErrIO, ErrClientClosed)
	}
	sender := c.sender
	connID := c.connID
	timeout := c.timeout
	c.mu.RUnlock()

	if sender == nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, ErrNoLink)
	}

	ch := make(chan result, 1)

	c.pendingMu.Lock()
	pkt.Seq = c.nextSequence()
	c.nextOrder++
	c.pending[pkt.Seq] = &pendingRequest{
		endpoint: pkt.Endpoint,
		kind:     pkt.Kind,
		command:  pkt.Command,
		order:    c.nextOrder,
		ch:       ch,
	}
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		if p, ok := c.pending[pkt.Seq]; ok && p.ch == ch {
			delete(c.pending, pkt.Seq)
		}
		c.pendingMu.Unlock()
	}()

	data, err := wire.EncodePacket(pkt)
	if err != nil {
		return nil, err
	}

	c.logPacket(connID, log.DirectionOut, pkt)
	if err := sender.Send(data); err != nil {
		return nil, fmt.Errorf("%w: send: %w", ErrIO, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrIO, ctx.Err())
	case <-timer.C:
		return nil, fmt.Errorf("%w: %w", ErrIO, ErrRequestTimeout)
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		if !res.pkt.Status.IsSuccess() {
			return nil, &StatusError{Status: res.pkt.Status}
		}
		return res.pkt, nil
	}
}

// ReadAttribute implements AttributeIO.
func (c *Client) ReadAttribute(ctx context.Context, ep wire.Endpoint, id uint8) ([]byte, error) {
	resp, err := c.roundTrip(ctx, &wire.Packet{Kind: wire.KindRead, Endpoint: ep, Attribute: id})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// WriteAttribute implements AttributeIO.
func (c *Client) WriteAttribute(ctx context.Context, ep wire.Endpoint, id uint8, value []byte) error {
	_, err := c.roundTrip(ctx, &wire.Packet{Kind: wire.KindWrite, Endpoint: ep, Attribute: id, Data: value})
	return err
}

// SendCommand implements AttributeIO. The command completes on a response
// packet with the same sequence number or on a call to Complete.
func (c *Client) SendCommand(ctx context.Context, ep wire.Endpoint, cmd wire.Command, payload []byte) error {
	_, err := c.roundTrip(ctx, wire.NewCommand(0, ep, cmd, payload))
	return err
}

// Complete finishes the oldest command still waiting on ep with err. It is
// called by endpoint handlers when the accessory reports a command result
// as a command of its own. It returns false if no command was waiting.
func (c *Client) Complete(ep wire.Endpoint, err error) bool {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	var oldest *pendingRequest
	var oldestSeq uint16
	for seq, p := range c.pending {
		if p.endpoint != ep || p.kind != wire.KindCommand {
			continue
		}
		if oldest == nil || p.order < oldest.order {
			oldest, oldestSeq = p, seq
		}
	}
	if oldest == nil {
		return false
	}

	res := result{err: err}
	if err == nil {
		res.pkt = &wire.Packet{Seq: oldestSeq, Kind: wire.KindResponse, Endpoint: ep, Command: oldest.command}
	}
	select {
	case oldest.ch <- res:
	default:
	}
	delete(c.pending, oldestSeq)
	return true
}

// HandleFrame decodes one inbound frame and dispatches it.
func (c *Client) HandleFrame(data []byte) error {
	pkt, err := wire.DecodePacket(data)
	if err != nil {
		c.logError("decode packet", err)
		return err
	}
	return c.HandlePacket(pkt)
}

// HandlePacket dispatches one inbound packet: responses complete pending
// requests, commands go to the endpoint's handler.
func (c *Client) HandlePacket(pkt *wire.Packet) error {
	c.mu.RLock()
	connID := c.connID
	c.mu.RUnlock()
	c.logPacket(connID, log.DirectionIn, pkt)

	switch pkt.Kind {
	case wire.KindResponse:
		return c.handleResponse(pkt)
	case wire.KindCommand:
		c.mu.RLock()
		handler := c.handlers[pkt.Endpoint]
		c.mu.RUnlock()
		if handler == nil {
			return fmt.Errorf("%w: %s", ErrNoHandler, pkt.Endpoint)
		}
		return handler(pkt)
	default:
		return fmt.Errorf("%w: %s packet from accessory", ErrUnexpectedReply, pkt.Kind)
	}
}

func (c *Client) handleResponse(pkt *wire.Packet) error {
	c.pendingMu.Lock()
	p, exists := c.pending[pkt.Seq]
	if exists {
		delete(c.pending, pkt.Seq)
	}
	c.pendingMu.Unlock()

	if !exists {
		c.debug("response without request", "seq", pkt.Seq)
		return fmt.Errorf("%w: seq %d", ErrUnexpectedReply, pkt.Seq)
	}

	select {
	case p.ch <- result{pkt: pkt}:
	default:
	}
	return nil
}

func (c *Client) logPacket(connID string, dir log.Direction, pkt *wire.Packet) {
	if c.plog == nil {
		return
	}
	c.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Packet:       log.NewPacketEvent(pkt),
	})
}

func (c *Client) logError(context string, err error) {
	if c.logger != nil {
		c.logger.Warn("inbound packet dropped", "context", context, "error", err)
	}
	if c.plog == nil {
		return
	}
	c.mu.RLock()
	connID := c.connID
	c.mu.RUnlock()
	c.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryError,
		Error:        &log.ErrorEventData{Layer: log.LayerWire, Message: err.Error(), Context: context},
	})
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

// StatusError is returned when the accessory answers with a failure status.
type StatusError struct {
	Status wire.Status
}

func (e *StatusError) Error() string {
	return "accessory returned " + e.Status.String()
}

// IsIOError returns true if err is a transport failure rather than an
// answer from the accessory.
func IsIOError(err error) bool {
	return errors.Is(err, ErrIO)
}

// Compile-time interface satisfaction check.
var _ AttributeIO = (*Client)(nil)
