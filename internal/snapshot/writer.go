package snapshot

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kemkem23/raceboard/internal/domain"
	"github.com/kemkem23/raceboard/internal/metrics"
)

// debounceDelay lets a burst of mutations settle before one write.
const debounceDelay = 500 * time.Millisecond

// Source provides the state to persist.
type Source interface {
	Snapshot() domain.Snapshot
}

// Sink receives snapshots.
type Sink interface {
	Save(domain.Snapshot) error
}

// Writer debounces mutation notifications into snapshot writes. A failed
// write is logged and left to the next debounce window; in-memory state is
// never affected.
type Writer struct {
	source Source
	sink   Sink
	clock  clockwork.Clock

	mu     sync.Mutex
	timer  clockwork.Timer
	closed bool
}

func NewWriter(source Source, sink Sink, clock clockwork.Clock) *Writer {
	return &Writer{source: source, sink: sink, clock: clock}
}

// Notify signals that a mutation happened. Each call re-arms the debounce
// timer; the write happens once the last mutation in a burst settles.
func (w *Writer) Notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer == nil {
		w.timer = w.clock.AfterFunc(debounceDelay, w.flush)
		return
	}
	w.timer.Reset(debounceDelay)
}

func (w *Writer) flush() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.write()
}

func (w *Writer) write() {
	start := w.clock.Now()
	if err := w.sink.Save(w.source.Snapshot()); err != nil {
		metrics.SnapshotWrites.WithLabelValues("error").Inc()
		slog.Error("Failed to persist snapshot", "error", err)
		return
	}
	metrics.SnapshotWrites.WithLabelValues("ok").Inc()
	metrics.SnapshotWriteDuration.Observe(w.clock.Since(start).Seconds())
	slog.Debug("Snapshot persisted")
}

// Close cancels the pending timer and performs one final synchronous write.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	w.write()
}
