package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	for _, c := range Commands {
		t.Run(c.String(), func(t *testing.T) {
			got, err := ParseCommand(c.String())
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}

	got, err := ParseCommand("fwu_data")
	require.NoError(t, err)
	assert.Equal(t, CmdFWUData, got)

	_, err = ParseCommand("UNKNOWN")
	assert.Error(t, err)
}
