// Package simulator provides a simulated keyboard accessory for the daemon's
// simulation mode and for tests.
package simulator

import (
	"context"
	"encoding/binary"
	"hash/crc32"
	"log/slog"
	"sync"

	"github.com/hwmon-accessory/kbd-go/pkg/interaction"
	"github.com/hwmon-accessory/kbd-go/pkg/model"
	"github.com/hwmon-accessory/kbd-go/pkg/version"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

// Config describes the simulated accessory.
type Config struct {
	DeviceName       string
	Firmware         version.Version
	ImageStart       uint32
	Fingerprint      uint32
	KeyLayout        uint8
	Language         model.Language
	HostSerial       string
	PeripheralSerial string
	ProductionRecord uint8

	// MinAuthorized is the oldest firmware the accessory authorizes with.
	MinAuthorized version.Version

	Logger *slog.Logger
}

// DefaultConfig returns an accessory that authorizes with its current
// firmware.
func DefaultConfig() Config {
	return Config{
		DeviceName:       "rM-Keyboard",
		Firmware:         version.Version{Major: 1, Minor: 4},
		ImageStart:       0x00008000,
		Fingerprint:      0x1a2b3c40,
		KeyLayout:        0,
		Language:         model.LanguageUS,
		HostSerial:       "RM110-313-00001",
		PeripheralSerial: "CN0000000001",
		ProductionRecord: 0x2a,
	}
}

// Write records one attribute write from the host.
type Write struct {
	Attribute model.AttributeID
	Value     wire.Value
}

// flashSession is an open firmware update.
type flashSession struct {
	version version.Version
	start   uint32
	data    []byte
}

// Accessory is a simulated keyboard accessory answering on the keyboard
// endpoint.
type Accessory struct {
	mu sync.Mutex

	config Config
	server *interaction.Server

	sequence      uint8
	authRequests  int
	dropAuth      int
	badAuth       int
	badAuthReply  []byte
	reportVersion *version.Version
	flash         *flashSession
	flashedImages int
	writes        []Write
	failWrites    map[model.AttributeID]wire.Status
}

// New creates an accessory from config.
func New(config Config) *Accessory {
	a := &Accessory{
		config:     config,
		server:     interaction.NewServer(wire.EndpointKeyboard),
		failWrites: make(map[model.AttributeID]wire.Status),
	}
	a.loadAttributes()

	a.server.SetWriteHook(a.onWrite)
	a.server.SetCommandHandler(wire.CmdAuthorizeRequest, a.onAuthorize)
	a.server.SetCommandHandler(wire.CmdFWUInit, a.onFWUInit)
	a.server.SetCommandHandler(wire.CmdFWUData, a.onFWUData)
	a.server.SetCommandHandler(wire.CmdFWUValidate, a.onFWUValidate)
	a.server.SetCommandHandler(wire.CmdFWUActivate, a.onFWUActivate)
	return a
}

func (a *Accessory) loadAttributes() {
	c := a.config
	set := func(id model.AttributeID, v wire.Value) {
		_ = a.server.SetValue(uint8(id), v)
	}

	set(model.AttrProtocolVersion, wire.Uint8Value(1))
	set(model.AttrFirmwareVersion, model.FirmwareVersionValue(c.Firmware))
	set(model.AttrHardwareVersion, wire.Uint16Value(0x0100))
	set(model.AttrDeviceClass, wire.Uint8Value(1))
	set(model.AttrDeviceID, wire.Uint32Value(0x00010001))
	set(model.AttrImageStartAddress, wire.Uint32Value(c.ImageStart))
	set(model.AttrDeviceName, wire.StringValue(c.DeviceName))
	set(model.AttrBuildFingerprint, wire.Data32Value(c.Fingerprint))
	set(model.AttrValidImage, wire.BoolValue(true))
	set(model.AttrKeyLayout, wire.Uint8Value(c.KeyLayout))
	set(model.AttrLanguage, wire.Enum8Value(uint8(c.Language)))
	set(model.AttrHostSerial, wire.StringValue(c.HostSerial))
	set(model.AttrPeripheralSerial, wire.StringValue(c.PeripheralSerial))
	set(model.AttrProductionRecord, wire.Uint8Value(c.ProductionRecord))
	set(model.AttrAliveTimeout, wire.Uint16Value(1000))
	set(model.AttrMatrixScanDelay, wire.Uint16Value(500))
	set(model.AttrDebounceTime, wire.Uint8Value(5))
	set(model.AttrDebouncePrecision, wire.Uint8Value(1))
	set(model.AttrBacklightRange, wire.Uint8Value(255))
	set(model.AttrBacklightCoeff, wire.Uint16Value(256))
	set(model.AttrBacklightZones, wire.Uint8ArrayValue(make([]uint8, model.BacklightZones)))
	set(model.AttrCapsLockLight, wire.BoolValue(false))
	set(model.AttrRMKeyLight, wire.BoolValue(false))

	for _, d := range model.Descriptors() {
		a.server.SetWritable(uint8(d.ID), d.ID.Class().Writable())
	}
}

// Server returns the protocol server answering for the accessory.
func (a *Accessory) Server() *interaction.Server {
	return a.server
}

// SetSender sets where the accessory sends responses and commands.
func (a *Accessory) SetSender(sender interaction.PacketSender) {
	a.server.SetSender(sender)
}

// HandleFrame processes one frame from the host.
func (a *Accessory) HandleFrame(ctx context.Context, data []byte) error {
	return a.server.HandleFrame(ctx, data)
}

// Connect announces the accessory to the host.
func (a *Accessory) Connect() error {
	return a.server.Notify(wire.CmdAccessoryConnect, nil)
}

// Disconnect announces that the accessory was detached.
func (a *Accessory) Disconnect() error {
	return a.server.Notify(wire.CmdAccessoryDisconnect, nil)
}

// Key sends a key matrix event.
func (a *Accessory) Key(row, column uint8, pressed bool) error {
	a.mu.Lock()
	a.sequence++
	ev := wire.KeyEvent{Row: row, Column: column, Pressed: pressed, Sequence: a.sequence}
	a.mu.Unlock()
	return a.server.Notify(wire.CmdKeyEvent, ev.Encode())
}

// DropAuthorizations makes the accessory ignore the next n authorization
// requests, which the host sees as timeouts.
func (a *Accessory) DropAuthorizations(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dropAuth = n
}

// MalformAuthorizations makes the accessory answer the next n
// authorization requests with reply instead of a single status byte.
func (a *Accessory) MalformAuthorizations(n int, reply []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.badAuth = n
	a.badAuthReply = make([]byte, len(reply))
	copy(a.badAuthReply, reply)
}

// ReportVersionAfterFlash overrides the version the accessory reports once
// an image has been validated.
func (a *Accessory) ReportVersionAfterFlash(v version.Version) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reportVersion = &v
}

// FailWrites makes writes to id fail with status. StatusSuccess clears it.
func (a *Accessory) FailWrites(id model.AttributeID, status wire.Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if status.IsSuccess() {
		delete(a.failWrites, id)
		return
	}
	a.failWrites[id] = status
}

// Authorizations returns the number of authorization requests received.
func (a *Accessory) Authorizations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authRequests
}

// FlashedImages returns the number of images activated.
func (a *Accessory) FlashedImages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flashedImages
}

// Writes returns the host writes received so far.
func (a *Accessory) Writes() []Write {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Write(nil), a.writes...)
}

// Value returns the current value of an attribute.
func (a *Accessory) Value(id model.AttributeID) (wire.Value, bool) {
	raw, ok := a.server.Attribute(uint8(id))
	if !ok {
		return wire.Value{}, false
	}
	v, err := wire.DecodeValue(raw)
	return v, err == nil
}

// SetValue changes an attribute as if the accessory updated it.
func (a *Accessory) SetValue(id model.AttributeID, v wire.Value) error {
	return a.server.SetValue(uint8(id), v)
}

func (a *Accessory) firmware() version.Version {
	v, _ := a.Value(model.AttrFirmwareVersion)
	return version.Version{Major: uint8(v.Uint), Minor: uint8(v.Uint >> 8)}
}

func (a *Accessory) onWrite(id uint8, value []byte) wire.Status {
	v, err := wire.DecodeValue(value)
	if err != nil {
		return wire.StatusInvalidParameter
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if status, fail := a.failWrites[model.AttributeID(id)]; fail {
		return status
	}
	a.writes = append(a.writes, Write{Attribute: model.AttributeID(id), Value: v})
	return wire.StatusSuccess
}

func (a *Accessory) onAuthorize(ctx context.Context, pkt *wire.Packet) (wire.Status, error) {
	a.mu.Lock()
	a.authRequests++
	if a.dropAuth > 0 {
		a.dropAuth--
		a.mu.Unlock()
		a.debug("authorization request dropped")
		return wire.StatusSuccess, interaction.ErrDeferred
	}
	var reply []byte
	malformed := a.badAuth > 0
	if malformed {
		a.badAuth--
		reply = a.badAuthReply
	}
	minimum := a.config.MinAuthorized
	a.mu.Unlock()

	if !malformed {
		status := wire.StatusSuccess
		if a.firmware().Compare(minimum) < 0 {
			status = wire.StatusNotAuthorized
		}
		a.debug("authorization answered", "status", status.String())
		reply = []byte{byte(status)}
	} else {
		a.debug("authorization answered malformed", "bytes", len(reply))
	}

	// The result travels as a command of its own, not as a response.
	if err := a.server.Notify(wire.CmdAuthorizeRequest, reply); err != nil {
		return wire.StatusFailure, err
	}
	return wire.StatusSuccess, interaction.ErrDeferred
}

func (a *Accessory) onFWUInit(ctx context.Context, pkt *wire.Packet) (wire.Status, error) {
	if len(pkt.Data) != 10 {
		return wire.StatusInvalidParameter, nil
	}
	size := binary.LittleEndian.Uint32(pkt.Data[6:10])

	a.mu.Lock()
	defer a.mu.Unlock()
	a.flash = &flashSession{
		version: version.Version{Major: pkt.Data[0], Minor: pkt.Data[1]},
		start:   binary.LittleEndian.Uint32(pkt.Data[2:6]),
		data:    make([]byte, size),
	}
	return wire.StatusSuccess, nil
}

func (a *Accessory) onFWUData(ctx context.Context, pkt *wire.Packet) (wire.Status, error) {
	if len(pkt.Data) < 4 {
		return wire.StatusInvalidParameter, nil
	}
	offset := binary.LittleEndian.Uint32(pkt.Data[:4])
	chunk := pkt.Data[4:]

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flash == nil {
		return wire.StatusFailure, nil
	}
	if uint64(offset)+uint64(len(chunk)) > uint64(len(a.flash.data)) {
		return wire.StatusInvalidParameter, nil
	}
	copy(a.flash.data[offset:], chunk)
	return wire.StatusSuccess, nil
}

func (a *Accessory) onFWUValidate(ctx context.Context, pkt *wire.Packet) (wire.Status, error) {
	if len(pkt.Data) != 4 {
		return wire.StatusInvalidParameter, nil
	}

	a.mu.Lock()
	session := a.flash
	reported := a.reportVersion
	a.mu.Unlock()

	if session == nil {
		return wire.StatusFailure, nil
	}
	if crc32.ChecksumIEEE(session.data) != binary.LittleEndian.Uint32(pkt.Data) {
		return wire.StatusChecksum, nil
	}

	// A validated image boots on the next reset; the simulator switches
	// immediately so the host's read-back sees it.
	v := session.version
	if reported != nil {
		v = *reported
	}
	_ = a.server.SetValue(uint8(model.AttrFirmwareVersion), model.FirmwareVersionValue(v))
	_ = a.server.SetValue(uint8(model.AttrImageStartAddress), wire.Uint32Value(session.start))
	_ = a.server.SetValue(uint8(model.AttrValidImage), wire.BoolValue(true))
	return wire.StatusSuccess, nil
}

func (a *Accessory) onFWUActivate(ctx context.Context, pkt *wire.Packet) (wire.Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flash == nil || len(pkt.Data) != 4 || binary.LittleEndian.Uint32(pkt.Data) != a.flash.start {
		return wire.StatusInvalidParameter, nil
	}
	a.flash = nil
	a.flashedImages++
	return wire.StatusSuccess, nil
}

func (a *Accessory) debug(msg string, args ...any) {
	if a.config.Logger != nil {
		a.config.Logger.Debug(msg, args...)
	}
}
