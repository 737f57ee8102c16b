package interaction

import (
	"context"
	"errors"
	"sync"

	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// ErrDeferred is returned by a CommandHandler that completes its command
// later with an unsolicited packet instead of a response.
var ErrDeferred = errors.New("completion deferred")

// CommandHandler handles one command received by a Server. A non-nil error
// other than ErrDeferred answers with StatusFailure.
type CommandHandler func(ctx context.Context, pkt *wire.Packet) (wire.Status, error)

// WriteHook is called before a write is stored. A failure status rejects
// the write.
type WriteHook func(id uint8, value []byte) wire.Status

// Server answers host requests on behalf of one accessory endpoint. It
// backs the accessory simulator and protocol tests.
type Server struct {
	mu sync.RWMutex

	endpoint wire.Endpoint
	attrs    map[uint8][]byte
	writable map[uint8]bool
	commands map[wire.Command]CommandHandler
	onWrite  WriteHook
	sender   PacketSender
}

// NewServer creates a server for ep with an empty attribute table.
func NewServer(ep wire.Endpoint) *Server {
	return &Server{
		endpoint: ep,
		attrs:    make(map[uint8][]byte),
		writable: make(map[uint8]bool),
		commands: make(map[wire.Command]CommandHandler),
	}
}

// Endpoint returns the endpoint this server answers for.
func (s *Server) Endpoint() wire.Endpoint {
	return s.endpoint
}

// SetSender sets where responses and notifications are sent.
func (s *Server) SetSender(sender PacketSender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = sender
}

// SetAttribute stores the raw [type][payload] value of an attribute.
func (s *Server) SetAttribute(id uint8, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[id] = append([]byte(nil), value...)
}

// SetValue encodes v and stores it as the value of id.
func (s *Server) SetValue(id uint8, v wire.Value) error {
	raw, err := wire.EncodeValue(v)
	if err != nil {
		return err
	}
	s.SetAttribute(id, raw)
	return nil
}

// Attribute returns a copy of the stored value of id.
func (s *Server) Attribute(id uint8) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attrs[id]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// SetWritable marks id as writable by the host.
func (s *Server) SetWritable(id uint8, writable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writable[id] = writable
}

// SetCommandHandler installs the handler for cmd.
func (s *Server) SetCommandHandler(cmd wire.Command, handler CommandHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[cmd] = handler
}

// SetWriteHook installs the hook called before writes are stored.
func (s *Server) SetWriteHook(hook WriteHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWrite = hook
}

// HandleRequest processes a host request and returns the response, or nil
// if no response should be sent.
func (s *Server) HandleRequest(ctx context.Context, req *wire.Packet) *wire.Packet {
	if req.Endpoint != s.endpoint {
		return wire.NewResponse(req, wire.StatusInvalidParameter, nil)
	}

	switch req.Kind {
	case wire.KindRead:
		return s.handleRead(req)
	case wire.KindWrite:
		return s.handleWrite(req)
	case wire.KindCommand:
		return s.handleCommand(ctx, req)
	default:
		return nil
	}
}

func (s *Server) handleRead(req *wire.Packet) *wire.Packet {
	value, ok := s.Attribute(req.Attribute)
	if !ok {
		return wire.NewResponse(req, wire.StatusInvalidAttribute, nil)
	}
	return wire.NewResponse(req, wire.StatusSuccess, value)
}

func (s *Server) handleWrite(req *wire.Packet) *wire.Packet {
	s.mu.RLock()
	_, known := s.attrs[req.Attribute]
	writable := s.writable[req.Attribute]
	hook := s.onWrite
	s.mu.RUnlock()

	if !known {
		return wire.NewResponse(req, wire.StatusInvalidAttribute, nil)
	}
	if !writable {
		return wire.NewResponse(req, wire.StatusReadOnly, nil)
	}
	if _, err := wire.DecodeValue(req.Data); err != nil {
		return wire.NewResponse(req, wire.StatusInvalidParameter, nil)
	}
	if hook != nil {
		if status := hook(req.Attribute, req.Data); !status.IsSuccess() {
			return wire.NewResponse(req, status, nil)
		}
	}

	s.SetAttribute(req.Attribute, req.Data)
	return wire.NewResponse(req, wire.StatusSuccess, nil)
}

func (s *Server) handleCommand(ctx context.Context, req *wire.Packet) *wire.Packet {
	s.mu.RLock()
	handler := s.commands[req.Command]
	s.mu.RUnlock()

	if handler == nil {
		return wire.NewResponse(req, wire.StatusInvalidCommand, nil)
	}

	status, err := handler(ctx, req)
	if errors.Is(err, ErrDeferred) {
		return nil
	}
	if err != nil && status.IsSuccess() {
		status = wire.StatusFailure
	}
	return wire.NewResponse(req, status, nil)
}

// HandleFrame decodes one frame from the host, handles it and sends the
// response, if any.
func (s *Server) HandleFrame(ctx context.Context, data []byte) error {
	req, err := wire.DecodePacket(data)
	if err != nil {
		return err
	}
	resp := s.HandleRequest(ctx, req)
	if resp == nil {
		return nil
	}
	return s.send(resp)
}

// Notify sends an unsolicited command to the host.
func (s *Server) Notify(cmd wire.Command, payload []byte) error {
	return s.send(wire.NewCommand(wire.UnsolicitedSeq, s.endpoint, cmd, payload))
}

func (s *Server) send(pkt *wire.Packet) error {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()
	if sender == nil {
		return ErrNoLink
	}
	data, err := wire.EncodePacket(pkt)
	if err != nil {
		return err
	}
	return sender.Send(data)
}
