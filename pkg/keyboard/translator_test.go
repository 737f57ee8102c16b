package keyboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwmon-accessory/kbd-go/pkg/interaction"
	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
	"github.com/hwmon-accessory/kbd-go/pkg/model"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

func TestTranslate(t *testing.T) {
	layout := keymap.Select(0)

	tests := []struct {
		name    string
		ev      wire.KeyEvent
		want    keymap.Code
		wantErr error
	}{
		{"first key", wire.KeyEvent{Row: 0, Column: 0, Pressed: true}, keymap.KeyM, nil},
		{"release", wire.KeyEvent{Row: 0, Column: 1}, keymap.KeyN, nil},
		{"row out of range", wire.KeyEvent{Row: 7, Column: 0}, keymap.KeyReserved, keymap.ErrOutOfBounds},
		{"column in range", wire.KeyEvent{Row: 6, Column: 15}, keymap.KeyReserved, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(layout, tt.ev)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateDeterministic(t *testing.T) {
	layout := keymap.Select(0)
	for row := uint8(0); row < 8; row++ {
		for col := uint8(0); col < 16; col++ {
			ev := wire.KeyEvent{Row: row, Column: col}
			a, errA := Translate(layout, ev)
			b, errB := Translate(layout, ev)
			assert.Equal(t, a, b)
			assert.Equal(t, errA, errB)
		}
	}
}

func TestHandleKeyWithoutSurface(t *testing.T) {
	f := newFixture(t, nil)

	err := f.mgr.HandleKey(wire.KeyEvent{Row: 0, Column: 0, Pressed: true})
	assert.ErrorIs(t, err, ErrUndeliverable)

	// The event scheduled a connect.
	require.NoError(t, f.mgr.WaitIdle())
	assert.Equal(t, model.StateConnected, f.mgr.ConnectionState())
	assert.Empty(t, f.rec.inputEvents())
}

func TestHandleKeyWhileAuthorizing(t *testing.T) {
	f := newFixture(t, nil)
	f.acc.DropAuthorizations(1)

	result := make(chan error, 1)
	go func() {
		result <- f.mgr.Connect(context.Background())
	}()
	require.Eventually(t, func() bool {
		return f.acc.Authorizations() == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, model.StateAuthorizing, f.mgr.ConnectionState())

	err := f.mgr.HandleKey(wire.KeyEvent{Row: 0, Column: 0, Pressed: true})
	assert.ErrorIs(t, err, ErrUndeliverable)

	// The running connect times out; the one the key queued succeeds.
	assert.True(t, interaction.IsIOError(<-result))
	require.NoError(t, f.mgr.WaitIdle())
	assert.Equal(t, model.StateConnected, f.mgr.ConnectionState())
	assert.Equal(t, 2, f.acc.Authorizations())
}

func TestHandleKeyOutOfBounds(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.mgr.Connect(context.Background()))

	err := f.mgr.HandleKey(wire.KeyEvent{Row: 7, Column: 3, Pressed: true})
	assert.ErrorIs(t, err, keymap.ErrOutOfBounds)
	assert.Empty(t, f.rec.inputEvents())
}

func TestHandleKeyPressRelease(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.mgr.Connect(context.Background()))

	require.NoError(t, f.mgr.HandleKey(wire.KeyEvent{Row: 0, Column: 1, Pressed: true}))
	require.NoError(t, f.mgr.HandleKey(wire.KeyEvent{Row: 0, Column: 1, Pressed: false}))

	var keys []int32
	for _, ev := range f.rec.inputEvents() {
		if ev.Code == uint16(keymap.KeyN) {
			keys = append(keys, ev.Value)
		}
	}
	assert.Equal(t, []int32{1, 0}, keys)
}

func TestHandleKeyEventPayload(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.mgr.Connect(context.Background()))

	err := f.mgr.HandlePacket(wire.NewCommand(0, wire.EndpointKeyboard, wire.CmdKeyEvent, []byte{0x01}))
	assert.ErrorIs(t, err, wire.ErrKeyEventSize)
}
