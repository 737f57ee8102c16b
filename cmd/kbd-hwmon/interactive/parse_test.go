package interactive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwmon-accessory/kbd-go/pkg/keymap"
)

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("200")
	require.NoError(t, err)
	assert.Equal(t, uint8(200), level)

	for _, in := range []string{"256", "-1", "bright"} {
		_, err := parseLevel(in)
		assert.Error(t, err, in)
	}
}

func TestParseLED(t *testing.T) {
	tests := []struct {
		in   string
		want keymap.LED
	}{
		{"caps", keymap.LEDCapsLock},
		{"CapsLock", keymap.LEDCapsLock},
		{"rm", keymap.LEDMisc},
		{"misc", keymap.LEDMisc},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			led, err := parseLED(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, led)
		})
	}

	_, err := parseLED("num")
	assert.Error(t, err)
}

func TestParseOnOff(t *testing.T) {
	on, err := parseOnOff("ON")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = parseOnOff("0")
	require.NoError(t, err)
	assert.False(t, on)

	_, err = parseOnOff("maybe")
	assert.Error(t, err)
}

func TestParsePosition(t *testing.T) {
	row, col, err := parsePosition("6", "15")
	require.NoError(t, err)
	assert.Equal(t, uint8(6), row)
	assert.Equal(t, uint8(15), col)

	_, _, err = parsePosition("8", "0")
	assert.Error(t, err)
	_, _, err = parsePosition("0", "16")
	assert.Error(t, err)
	_, _, err = parsePosition("a", "1")
	assert.Error(t, err)
}

type fakeTrace struct{ on bool }

func (f *fakeTrace) SetTrace(on bool) { f.on = on }
func (f *fakeTrace) Trace() bool      { return f.on }

func TestExecute(t *testing.T) {
	t.Run("quit", func(t *testing.T) {
		var out bytes.Buffer
		assert.True(t, execute(&out, Target{}, "quit"))
		assert.True(t, execute(&out, Target{}, "  EXIT "))
	})

	t.Run("blank line", func(t *testing.T) {
		var out bytes.Buffer
		assert.False(t, execute(&out, Target{}, "   "))
		assert.Empty(t, out.String())
	})

	t.Run("unknown command", func(t *testing.T) {
		var out bytes.Buffer
		assert.False(t, execute(&out, Target{}, "frobnicate"))
		assert.Contains(t, out.String(), "Unknown command: frobnicate")
	})

	t.Run("simulation commands need simulator", func(t *testing.T) {
		var out bytes.Buffer
		execute(&out, Target{}, "key 0 0")
		execute(&out, Target{}, "plug")
		assert.Contains(t, out.String(), "Key injection needs -simulate")
		assert.Contains(t, out.String(), "Plug simulation needs -simulate")
	})

	t.Run("trace", func(t *testing.T) {
		trace := &fakeTrace{}
		var out bytes.Buffer
		execute(&out, Target{Trace: trace}, "trace on")
		assert.True(t, trace.on)
		assert.Contains(t, out.String(), "Trace on")

		out.Reset()
		execute(&out, Target{Trace: trace}, "trace")
		assert.Equal(t, "Trace: on\n", out.String())

		out.Reset()
		execute(&out, Target{Trace: trace}, "trace sideways")
		assert.True(t, trace.on)
		assert.Contains(t, out.String(), "Invalid state")
	})

	t.Run("led usage", func(t *testing.T) {
		var out bytes.Buffer
		execute(&out, Target{}, "led caps")
		assert.Contains(t, out.String(), "Usage: led")
	})
}
