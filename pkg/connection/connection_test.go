package connection

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hwmon-accessory/kbd-go/pkg/transport"
)

func TestBackoff(t *testing.T) {
	t.Run("Sequence", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{
			Initial: 100 * time.Millisecond,
			Max:     500 * time.Millisecond,
		})

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond,
			500 * time.Millisecond,
		}
		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("Attempt %d: got %v, want %v", i, got, exp)
			}
		}
		if b.Attempts() != len(expected) {
			t.Errorf("Attempts() = %d, want %d", b.Attempts(), len(expected))
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		b := NewBackoff(DefaultBackoffConfig())
		upper := time.Duration(float64(DefaultInitialBackoff) * (1 + DefaultJitter))

		d := b.Next()
		if d < DefaultInitialBackoff || d > upper {
			t.Errorf("delay %v out of range [%v, %v]", d, DefaultInitialBackoff, upper)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff(DefaultBackoffConfig())
		for range 5 {
			b.Next()
		}
		if b.Current() <= DefaultInitialBackoff {
			t.Error("backoff should have increased")
		}

		b.Reset()
		if b.Current() != DefaultInitialBackoff {
			t.Errorf("Current() = %v after reset, want %v", b.Current(), DefaultInitialBackoff)
		}
		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
	})

	t.Run("MaxBelowInitial", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Initial: time.Second, Max: time.Millisecond})
		if got := b.Next(); got != time.Second {
			t.Errorf("Next() = %v, want 1s", got)
		}
	})
}

// recordingHandler records link lifecycle callbacks.
type recordingHandler struct {
	mu     sync.Mutex
	ups    []*transport.Link
	downs  int
	frames [][]byte

	upCh   chan *transport.Link
	downCh chan error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		upCh:   make(chan *transport.Link, 8),
		downCh: make(chan error, 8),
	}
}

func (h *recordingHandler) LinkUp(link *transport.Link) {
	h.mu.Lock()
	h.ups = append(h.ups, link)
	h.mu.Unlock()
	h.upCh <- link
}

func (h *recordingHandler) HandleFrame(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, frame)
}

func (h *recordingHandler) LinkDown(link *transport.Link, err error) {
	h.mu.Lock()
	h.downs++
	h.mu.Unlock()
	h.downCh <- err
}

func TestSupervisorReopensAfterLoss(t *testing.T) {
	var opens atomic.Int32
	peers := make(chan net.Conn, 4)

	sup := NewSupervisor(SupervisorConfig{
		Opener: func(ctx context.Context) (io.ReadWriteCloser, error) {
			n := opens.Add(1)
			if n == 2 {
				return nil, errors.New("port busy")
			}
			host, acc := net.Pipe()
			peers <- acc
			return host, nil
		},
		Backoff: BackoffConfig{Initial: 5 * time.Millisecond, Max: 20 * time.Millisecond},
	}, newRecordingHandler())
	handler := sup.handler.(*recordingHandler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	waitUp := func() *transport.Link {
		t.Helper()
		select {
		case link := <-handler.upCh:
			return link
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for link")
			return nil
		}
	}

	first := waitUp()
	if sup.State() != StateUp {
		t.Errorf("State() = %v, want UP", sup.State())
	}

	// Unplug: the peer side goes away.
	(<-peers).Close()
	select {
	case err := <-handler.downCh:
		if err == nil {
			t.Error("expected link error after unplug")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for link down")
	}

	second := waitUp()
	if first.ID() == second.ID() {
		t.Error("reopened link reused the connection id")
	}
	if opens.Load() != 3 {
		t.Errorf("opens = %d, want 3", opens.Load())
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	if sup.State() != StateStopped {
		t.Errorf("State() = %v, want STOPPED", sup.State())
	}
	if sup.Link() != nil {
		t.Error("Link() should be nil after stop")
	}
}

func TestSupervisorDeliversFrames(t *testing.T) {
	handler := newRecordingHandler()
	peer := make(chan net.Conn, 1)

	sup := NewSupervisor(SupervisorConfig{
		Opener: func(ctx context.Context) (io.ReadWriteCloser, error) {
			host, acc := net.Pipe()
			peer <- acc
			return host, nil
		},
	}, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sup.Run(ctx) }()

	<-handler.upCh
	acc := transport.NewLink(<-peer, transport.LinkConfig{})
	if err := acc.Send([]byte{0xca, 0xfe}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		handler.mu.Lock()
		n := len(handler.frames)
		handler.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("frame not delivered")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSupervisorRunTwice(t *testing.T) {
	block := make(chan struct{})
	sup := NewSupervisor(SupervisorConfig{
		Opener: func(ctx context.Context) (io.ReadWriteCloser, error) {
			<-block
			return nil, ctx.Err()
		},
	}, newRecordingHandler())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = sup.Run(ctx) }()

	deadline := time.After(time.Second)
	for sup.State() != StateOpening {
		select {
		case <-deadline:
			t.Fatal("supervisor did not start")
		case <-time.After(time.Millisecond):
		}
	}

	if err := sup.Run(ctx); !errors.Is(err, ErrSupervisorRunning) {
		t.Errorf("second Run() = %v, want ErrSupervisorRunning", err)
	}
	cancel()
	close(block)
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "IDLE"},
		{StateOpening, "OPENING"},
		{StateUp, "UP"},
		{StateBackoff, "BACKOFF"},
		{StateStopped, "STOPPED"},
		{State(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
