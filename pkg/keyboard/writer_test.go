package keyboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hwmon-accessory/kbd-go/pkg/interaction/mocks"
	"github.com/hwmon-accessory/kbd-go/pkg/model"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

func TestWriterBusyWhilePending(t *testing.T) {
	io := mocks.NewMockAttributeIO(t)
	w := NewWriter(io, wire.EndpointKeyboard, nil)
	defer w.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	io.EXPECT().WriteAttribute(mock.Anything, wire.EndpointKeyboard, uint8(model.AttrCapsLockLight), mock.Anything).
		RunAndReturn(func(ctx context.Context, ep wire.Endpoint, id uint8, value []byte) error {
			close(started)
			<-release
			return nil
		}).Once()

	queued, err := w.WriteIndicator(model.AttrCapsLockLight, true)
	require.NoError(t, err)
	assert.True(t, queued)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("write did not start")
	}

	// The slot stays taken until the running write finishes.
	_, err = w.WriteIndicator(model.AttrRMKeyLight, true)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, w.Write(model.AttrRMKeyLight, []byte{0x01, 0x01}), ErrBusy)

	p, pending := w.Pending()
	require.True(t, pending)
	assert.Equal(t, model.AttrCapsLockLight, p.Attribute)

	close(release)
	require.NoError(t, w.Flush())

	_, pending = w.Pending()
	assert.False(t, pending)
}

func TestWriterReleasesSlotOnFailure(t *testing.T) {
	io := mocks.NewMockAttributeIO(t)
	w := NewWriter(io, wire.EndpointKeyboard, nil)
	defer w.Close()

	failure := errors.New("link down")
	io.EXPECT().WriteAttribute(mock.Anything, wire.EndpointKeyboard, uint8(model.AttrRMKeyLight), mock.Anything).
		Return(failure).Twice()

	done := make(chan error, 2)
	w.OnDone(func(p PendingWrite, err error) { done <- err })

	for range 2 {
		queued, err := w.WriteIndicator(model.AttrRMKeyLight, true)
		require.NoError(t, err)
		require.True(t, queued)

		select {
		case err := <-done:
			assert.ErrorIs(t, err, failure)
		case <-time.After(time.Second):
			t.Fatal("write did not complete")
		}
	}
}

func TestWriterSlumberSuppressesOff(t *testing.T) {
	io := mocks.NewMockAttributeIO(t)
	w := NewWriter(io, wire.EndpointKeyboard, nil)
	defer w.Close()

	w.SetSlumber(true)
	assert.True(t, w.Slumber())

	queued, err := w.WriteIndicator(model.AttrRMKeyLight, false)
	require.NoError(t, err)
	assert.False(t, queued)

	payload, err := wire.EncodeValue(wire.BoolValue(true))
	require.NoError(t, err)
	io.EXPECT().WriteAttribute(mock.Anything, wire.EndpointKeyboard, uint8(model.AttrRMKeyLight), payload).
		Return(nil).Once()

	queued, err = w.WriteIndicator(model.AttrRMKeyLight, true)
	require.NoError(t, err)
	assert.True(t, queued)
	require.NoError(t, w.Flush())
}

func TestWriterClosed(t *testing.T) {
	io := mocks.NewMockAttributeIO(t)
	w := NewWriter(io, wire.EndpointKeyboard, nil)
	w.Close()

	assert.ErrorIs(t, w.Write(model.AttrCapsLockLight, []byte{0x01, 0x00}), ErrDetached)
	_, pending := w.Pending()
	assert.False(t, pending)
}
