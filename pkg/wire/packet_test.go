package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketValidate(t *testing.T) {
	tests := []struct {
		name    string
		pkt     Packet
		wantErr bool
	}{
		{"unsolicited command", Packet{Kind: KindCommand, Endpoint: EndpointKeyboard, Command: CmdAccessoryConnect}, false},
		{"command without command", Packet{Kind: KindCommand, Endpoint: EndpointKeyboard}, true},
		{"read", Packet{Seq: 3, Kind: KindRead, Endpoint: EndpointKeyboard, Attribute: 0x10}, false},
		{"read without attribute", Packet{Seq: 3, Kind: KindRead}, true},
		{"write without seq", Packet{Kind: KindWrite, Attribute: 0x52}, true},
		{"response without seq", Packet{Kind: KindResponse}, true},
		{"unknown kind", Packet{Seq: 1, Kind: 9}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pkt.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEncodePacketIntegerKeys(t *testing.T) {
	pkt := NewCommand(UnsolicitedSeq, EndpointKeyboard, CmdKeyEvent, []byte{0x01, 0x02})

	data, err := EncodePacket(pkt)
	require.NoError(t, err)

	// {1: 0, 2: 1, 3: 1, 4: 0x12, 7: h'0102'}: seq 0 is kept, zero attribute and status are omitted.
	want := []byte{0xa5, 0x01, 0x00, 0x02, 0x01, 0x03, 0x01, 0x04, 0x12, 0x07, 0x42, 0x01, 0x02}
	assert.True(t, bytes.Equal(want, data), "encoded %x, want %x", data, want)

	got, err := DecodePacket(data)
	require.NoError(t, err)
	assert.Equal(t, pkt, got)
}

func TestDecodePacketRejectsInvalid(t *testing.T) {
	// {2: 4} is a response without a sequence number.
	_, err := DecodePacket([]byte{0xa1, 0x02, 0x04})
	assert.Error(t, err)

	_, err = DecodePacket([]byte{0xff})
	assert.Error(t, err)
}

func TestNewResponse(t *testing.T) {
	req := &Packet{Seq: 42, Kind: KindRead, Endpoint: EndpointKeyboard, Attribute: 0x02}
	resp := NewResponse(req, StatusSuccess, []byte{byte(DataTypeUint8), 3})

	assert.Equal(t, uint16(42), resp.Seq)
	assert.Equal(t, KindResponse, resp.Kind)
	assert.Equal(t, uint8(0x02), resp.Attribute)
	assert.NoError(t, resp.Validate())
}
