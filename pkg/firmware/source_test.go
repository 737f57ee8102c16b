package firmware

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwmon-accessory/kbd-go/pkg/version"
)

func writeBundle(t *testing.T, manifest string, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644))
	}
	return dir
}

func TestDirSource(t *testing.T) {
	v := version.Version{Major: 1, Minor: 4}
	imgA := BuildImage(v, 0x8000, []byte("bank a payload"))
	imgB := BuildImage(v, 0x40000, []byte("bank b payload"))

	manifest := `images:
  - device: rM-Keyboard
    file: kbd-a.img
    blake2b: ` + Digest(imgA) + `
  - device: rM-Keyboard
    file: kbd-b.img
  - device: other
    file: other.img
`
	dir := writeBundle(t, manifest, map[string][]byte{
		"kbd-a.img": imgA,
		"kbd-b.img": imgB,
	})
	src := NewDirSource(dir)

	t.Run("Lookup", func(t *testing.T) {
		images, err := src.Images("rM-Keyboard")
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, "kbd-a.img", images[0].Name)
		assert.Equal(t, "rM-Keyboard", images[0].Device)
		assert.Equal(t, uint32(0x8000), images[0].StartAddress)
		assert.Equal(t, uint32(0x40000), images[1].StartAddress)
	})

	t.Run("UnknownDevice", func(t *testing.T) {
		_, err := src.Images("nothing")
		assert.ErrorIs(t, err, ErrNoImage)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := src.Images("other")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDirSourceDigestMismatch(t *testing.T) {
	img := BuildImage(version.Version{Major: 1, Minor: 0}, 0x8000, []byte("payload"))
	manifest := "images:\n  - device: kbd\n    file: kbd.img\n    blake2b: " + Digest([]byte("something else")) + "\n"
	src := NewDirSource(writeBundle(t, manifest, map[string][]byte{"kbd.img": img}))

	_, err := src.Images("kbd")
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestDirSourceNoManifest(t *testing.T) {
	src := NewDirSource(t.TempDir())
	_, err := src.Images("kbd")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"MissingFile", "images:\n  - device: kbd\n"},
		{"PathInFile", "images:\n  - device: kbd\n    file: ../kbd.img\n"},
		{"UnknownField", "images:\n  - device: kbd\n    file: kbd.img\n    sha: abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrManifest)
		})
	}
}

func TestStaticSource(t *testing.T) {
	img := &Image{Name: "a"}
	src := StaticSource{"kbd": {img}}

	images, err := src.Images("kbd")
	require.NoError(t, err)
	assert.Equal(t, []*Image{img}, images)

	_, err = src.Images("none")
	assert.ErrorIs(t, err, ErrNoImage)
}
