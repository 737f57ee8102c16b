package keyboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwmon-accessory/kbd-go/internal/simulator"
	"github.com/hwmon-accessory/kbd-go/pkg/model"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
)

func TestStatusWithoutDevice(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.mgr.Firmware()
	assert.ErrorIs(t, err, ErrNoDevice)
	_, err = f.mgr.HostSerial()
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestStatusConnected(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.mgr.Connect(context.Background()))
	ctx := context.Background()

	fw, err := f.mgr.Firmware()
	require.NoError(t, err)
	assert.Equal(t, "1.4", fw)

	serial, err := f.mgr.HostSerial()
	require.NoError(t, err)
	assert.Equal(t, "RM110-313-00001", serial)

	lang, err := f.mgr.Language()
	require.NoError(t, err)
	assert.Equal(t, "US", lang)

	record, err := f.mgr.ProductionRecord(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2a", record)

	// Peripheral serial and production record are read live.
	require.NoError(t, f.acc.SetValue(model.AttrPeripheralSerial, wire.StringValue("CN0000000042")))
	require.NoError(t, f.acc.SetValue(model.AttrProductionRecord, wire.Uint8Value(0xfe)))

	cn, err := f.mgr.PeripheralSerial(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CN0000000042", cn)

	record, err = f.mgr.ProductionRecord(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fe", record)
}

func TestLanguageOutOfRange(t *testing.T) {
	for _, lang := range []model.Language{0, 9, 0xff} {
		f := newFixture(t, nil, func(_ *Config, s *simulator.Config) {
			s.Language = lang
		})
		require.NoError(t, f.mgr.Connect(context.Background()))

		_, err := f.mgr.Language()
		assert.ErrorIs(t, err, model.ErrInvalidLanguage, "language %d", lang)
	}
}

func TestBrightness(t *testing.T) {
	t.Run("stored while disconnected", func(t *testing.T) {
		f := newFixture(t, nil)

		require.NoError(t, f.mgr.SetBrightness(context.Background(), 128))
		assert.Equal(t, uint8(128), f.mgr.Brightness())
		assert.Empty(t, writesTo(f.acc, model.AttrBacklightZones))

		// The stored level is pushed on connect.
		require.NoError(t, f.mgr.Connect(context.Background()))
		zones := writesTo(f.acc, model.AttrBacklightZones)
		require.Len(t, zones, 1)
		assert.Equal(t, []uint32{128, 128, 128, 128, 128, 128}, zones[0].Items)
	})

	t.Run("written while connected", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.mgr.Connect(context.Background()))

		require.NoError(t, f.mgr.SetBrightness(context.Background(), 255))

		zones := writesTo(f.acc, model.AttrBacklightZones)
		require.Len(t, zones, 2)
		assert.Equal(t, []uint32{255, 255, 255, 255, 255, 255}, zones[1].Items)
		state := f.mgr.State()
		assert.Equal(t, [model.BacklightZones]uint8{255, 255, 255, 255, 255, 255}, state.Zones)
	})

	t.Run("initial level from config", func(t *testing.T) {
		f := newFixture(t, nil, func(c *Config, _ *simulator.Config) {
			c.InitialBrightness = 40
		})
		assert.Equal(t, uint8(40), f.mgr.Brightness())
	})

	t.Run("write failure", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.mgr.Connect(context.Background()))
		f.acc.FailWrites(model.AttrBacklightZones, wire.StatusBusy)

		err := f.mgr.SetBrightness(context.Background(), 10)
		require.Error(t, err)
		assert.Equal(t, uint8(10), f.mgr.Brightness())
		assert.Equal(t, [model.BacklightZones]uint8{}, f.mgr.State().Zones)
	})

	t.Run("failed push does not fail connect", func(t *testing.T) {
		f := newFixture(t, nil)
		f.acc.FailWrites(model.AttrBacklightZones, wire.StatusFailure)

		require.NoError(t, f.mgr.Connect(context.Background()))
		assert.Equal(t, model.StateConnected, f.mgr.ConnectionState())
	})
}
