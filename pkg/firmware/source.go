package firmware

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest name inside an image directory.
const ManifestFile = "manifest.yaml"

// Source errors.
var (
	ErrNoImage        = errors.New("no firmware image for device")
	ErrDigestMismatch = errors.New("image digest mismatch")
	ErrManifest       = errors.New("invalid firmware manifest")
)

// Source provides bundled firmware images.
type Source interface {
	// Images returns the images bundled for the named device, or
	// ErrNoImage if there are none.
	Images(device string) ([]*Image, error)
}

// ManifestEntry lists one image file.
type ManifestEntry struct {
	Device  string `yaml:"device"`
	File    string `yaml:"file"`
	Blake2b string `yaml:"blake2b,omitempty"`
}

// Manifest lists the images in a directory.
type Manifest struct {
	Images []ManifestEntry `yaml:"images"`
}

// ParseManifest parses manifest yaml.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	for i, e := range m.Images {
		if e.Device == "" || e.File == "" {
			return nil, fmt.Errorf("%w: entry %d needs device and file", ErrManifest, i)
		}
		if filepath.Base(e.File) != e.File {
			return nil, fmt.Errorf("%w: entry %d: file must be a plain name", ErrManifest, i)
		}
	}
	return &m, nil
}

// Digest returns the hex BLAKE2b-256 digest of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DirSource loads images from a directory with a manifest. Images are read
// on every lookup so a replaced bundle is picked up without a restart.
type DirSource struct {
	dir string

	mu sync.Mutex
}

// NewDirSource creates a source for dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Dir returns the image directory.
func (s *DirSource) Dir() string {
	return s.dir
}

// Images implements Source.
func (s *DirSource) Images(device string) ([]*Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (no manifest)", ErrNoImage, device)
		}
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	var images []*Image
	for _, e := range m.Images {
		if e.Device != device {
			continue
		}
		img, err := s.load(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.File, err)
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImage, device)
	}
	return images, nil
}

func (s *DirSource) load(e ManifestEntry) (*Image, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, e.File))
	if err != nil {
		return nil, err
	}
	if e.Blake2b != "" {
		if got := Digest(data); got != e.Blake2b {
			return nil, fmt.Errorf("%w: manifest %s, file %s", ErrDigestMismatch, e.Blake2b, got)
		}
	}
	img, err := ParseImage(data)
	if err != nil {
		return nil, err
	}
	img.Device = e.Device
	img.Name = e.File
	return img, nil
}

// StaticSource serves images held in memory.
type StaticSource map[string][]*Image

// Images implements Source.
func (s StaticSource) Images(device string) ([]*Image, error) {
	images := s[device]
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImage, device)
	}
	return images, nil
}

// Compile-time interface satisfaction checks.
var (
	_ Source = (*DirSource)(nil)
	_ Source = StaticSource(nil)
)
