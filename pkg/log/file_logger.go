package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileConfig configures a FileLogger.
type FileConfig struct {
	// Path of the active trace file.
	Path string

	// MaxBytes rotates the file to Path+".1" once it grows past this size.
	// Zero disables rotation.
	MaxBytes int64

	// Host is recorded in the header of each new file.
	Host string
}

// FileLogger writes protocol events to a .klog file.
// It is safe for concurrent use.
type FileLogger struct {
	config FileConfig

	mu      sync.Mutex
	file    *os.File
	counter *countingWriter
	enc     *cbor.Encoder
	closed  bool
}

// NewFileLogger opens path for appending with rotation disabled.
func NewFileLogger(path string) (*FileLogger, error) {
	return NewFileLoggerWithConfig(FileConfig{Path: path})
}

// NewFileLoggerWithConfig opens config.Path for appending. A header record
// is written when the file is new or empty.
func NewFileLoggerWithConfig(config FileConfig) (*FileLogger, error) {
	l := &FileLogger{config: config}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open() error {
	f, err := os.OpenFile(l.config.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	l.file = f
	l.counter = &countingWriter{w: f, n: info.Size()}
	l.enc = traceEnc.NewEncoder(l.counter)
	if info.Size() == 0 {
		if err := l.enc.Encode(newHeader(l.config.Host)); err != nil {
			f.Close()
			return fmt.Errorf("write trace header: %w", err)
		}
	}
	return nil
}

// Log appends event. Encoding errors are dropped.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	_ = l.enc.Encode(event)

	if l.config.MaxBytes > 0 && l.counter.n >= l.config.MaxBytes {
		l.rotate()
	}
}

// rotate moves the full file aside and starts a new one. On failure the
// logger stays closed.
func (l *FileLogger) rotate() {
	l.file.Close()
	if err := os.Rename(l.config.Path, l.config.Path+".1"); err != nil {
		l.closed = true
		return
	}
	if err := l.open(); err != nil {
		l.closed = true
	}
}

// Close closes the file. Later Log calls are ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
