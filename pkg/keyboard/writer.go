package keyboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hwmon-accessory/kbd-go/pkg/interaction"
	"github.com/hwmon-accessory/kbd-go/pkg/model"
	"github.com/hwmon-accessory/kbd-go/pkg/wire"
	"github.com/hwmon-accessory/kbd-go/pkg/workqueue"
)

// PendingWrite is the write held by a Writer until its work runs.
type PendingWrite struct {
	Attribute model.AttributeID
	Payload   []byte
}

// Writer performs attribute writes off the caller's goroutine. It holds at
// most one write; a second request fails with ErrBusy until the first has
// been performed.
type Writer struct {
	io     interaction.AttributeIO
	ep     wire.Endpoint
	queue  *workqueue.Queue
	work   *workqueue.Work
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending *PendingWrite
	slumber bool
	done    func(PendingWrite, error)
}

// NewWriter creates a writer for ep with its own queue.
func NewWriter(aio interaction.AttributeIO, ep wire.Endpoint, logger *slog.Logger) *Writer {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Writer{
		io:     aio,
		ep:     ep,
		queue:  workqueue.New("attribute-writer", logger),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	w.work = workqueue.NewWork("write", w.run)
	return w
}

// OnDone sets a callback run after each write with its result.
func (w *Writer) OnDone(fn func(PendingWrite, error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = fn
}

// SetSlumber records whether the host is about to enter a low-power
// suspend. While set, requests to turn an indicator off are dropped.
func (w *Writer) SetSlumber(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.slumber = on
}

// Slumber returns the slumber flag.
func (w *Writer) Slumber() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.slumber
}

// Pending returns the write waiting to be performed, if any.
func (w *Writer) Pending() (PendingWrite, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return PendingWrite{}, false
	}
	return *w.pending, true
}

// Write schedules a write of payload to id.
func (w *Writer) Write(id model.AttributeID, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitLocked(id, payload)
}

// WriteIndicator schedules a boolean indicator write. It returns false
// without scheduling anything if an off request was dropped for slumber.
func (w *Writer) WriteIndicator(id model.AttributeID, on bool) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		return false, ErrBusy
	}
	if !on && w.slumber {
		return false, nil
	}
	payload, err := wire.EncodeValue(wire.BoolValue(on))
	if err != nil {
		return false, err
	}
	if err := w.submitLocked(id, payload); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Writer) submitLocked(id model.AttributeID, payload []byte) error {
	if w.pending != nil {
		return ErrBusy
	}
	w.pending = &PendingWrite{Attribute: id, Payload: payload}
	if !w.queue.Schedule(w.work) {
		w.pending = nil
		return ErrDetached
	}
	return nil
}

func (w *Writer) run() {
	w.mu.Lock()
	p := w.pending
	w.mu.Unlock()
	if p == nil {
		return
	}

	err := w.io.WriteAttribute(w.ctx, w.ep, uint8(p.Attribute), p.Payload)
	if err != nil && w.logger != nil {
		w.logger.Warn("attribute write failed", "attr", p.Attribute.String(), "error", err)
	}

	w.mu.Lock()
	w.pending = nil
	done := w.done
	w.mu.Unlock()

	if done != nil {
		done(*p, err)
	}
}

// Flush waits until the pending write, if any, has been performed.
func (w *Writer) Flush() error {
	return w.queue.Flush()
}

// Close aborts an in-flight write and stops the writer.
func (w *Writer) Close() {
	w.cancel()
	w.queue.Close()

	w.mu.Lock()
	w.pending = nil
	w.mu.Unlock()
}
