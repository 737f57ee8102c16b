package firmware

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwmon-accessory/kbd-go/pkg/version"
)

func TestParseImage(t *testing.T) {
	payload := bytes.Repeat([]byte{0xa5, 0x5a}, 300)
	data := BuildImage(version.Version{Major: 1, Minor: 4}, 0x00010000, payload)

	img, err := ParseImage(data)
	require.NoError(t, err)
	assert.Equal(t, version.Version{Major: 1, Minor: 4}, img.Version)
	assert.Equal(t, uint32(0x00010000), img.StartAddress)
	assert.Equal(t, uint32(len(payload)), img.Size)
	assert.Equal(t, payload, img.Payload)

	t.Run("Short", func(t *testing.T) {
		_, err := ParseImage(data[:HeaderSize-1])
		assert.ErrorIs(t, err, ErrShortImage)
	})

	t.Run("BadMagic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] = 'X'
		_, err := ParseImage(bad)
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		_, err := ParseImage(data[:len(data)-1])
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})

	t.Run("CRCMismatch", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[HeaderSize] ^= 0xff
		_, err := ParseImage(bad)
		assert.ErrorIs(t, err, ErrCRCMismatch)
	})
}

func TestApplicable(t *testing.T) {
	bankA := &Image{Name: "a", Header: Header{Version: version.Version{Major: 1, Minor: 4}, StartAddress: 0x8000}}
	bankB := &Image{Name: "b", Header: Header{Version: version.Version{Major: 1, Minor: 4}, StartAddress: 0x40000}}
	images := []*Image{bankA, bankB}

	tests := []struct {
		name    string
		running version.Version
		start   uint32
		want    *Image
	}{
		{"RunningBankA", version.Version{Major: 1, Minor: 3}, 0x8000, bankB},
		{"RunningBankB", version.Version{Major: 1, Minor: 3}, 0x40000, bankA},
		{"AlreadyCurrent", version.Version{Major: 1, Minor: 4}, 0x8000, nil},
		{"Downgrade", version.Version{Major: 2, Minor: 0}, 0x40000, bankA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, Applicable(images, tt.running, tt.start))
		})
	}

	assert.Nil(t, Applicable(nil, version.Version{}, 0))
}
