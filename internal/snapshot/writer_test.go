package snapshot

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemkem23/raceboard/internal/domain"
)

type fakeSource struct {
	snap domain.Snapshot
}

func (f *fakeSource) Snapshot() domain.Snapshot { return f.snap }

type fakeSink struct {
	mu    sync.Mutex
	saves []domain.Snapshot
	err   error
}

func (f *fakeSink) Save(snap domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saves = append(f.saves, snap)
	return nil
}

func (f *fakeSink) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeSink) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Classes: []domain.ClassRoster{
			{ClassName: "รุ่น 1 เวฟ110", Teams: []*domain.Team{{ID: "t1", Name: "Rocket", ClassName: "รุ่น 1 เวฟ110", Number: 7}}},
		},
		Results: []*domain.Result{{TeamID: "t1", ClassName: "รุ่น 1 เวฟ110"}},
	}
}

func waitForSaves(t *testing.T, sink *fakeSink, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return sink.saveCount() == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWriter_DebouncesBurstIntoOneWrite(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &fakeSink{}
	w := NewWriter(&fakeSource{snap: testSnapshot()}, sink, clock)

	w.Notify()
	w.Notify()
	w.Notify()
	clock.Advance(debounceDelay)

	waitForSaves(t, sink, 1)
}

func TestWriter_NotifyReArmsTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &fakeSink{}
	w := NewWriter(&fakeSource{snap: testSnapshot()}, sink, clock)

	w.Notify()
	clock.Advance(debounceDelay / 2)
	w.Notify() // resets the window
	clock.Advance(debounceDelay / 2)
	assert.Equal(t, 0, sink.saveCount(), "write must wait for the full window after the last notify")

	clock.Advance(debounceDelay / 2)
	waitForSaves(t, sink, 1)
}

func TestWriter_SeparateBurstsWriteSeparately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &fakeSink{}
	w := NewWriter(&fakeSource{snap: testSnapshot()}, sink, clock)

	w.Notify()
	clock.Advance(debounceDelay)
	waitForSaves(t, sink, 1)

	w.Notify()
	clock.Advance(debounceDelay)
	waitForSaves(t, sink, 2)
}

func TestWriter_FailedWriteDoesNotRetryUntilNextNotify(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &fakeSink{}
	sink.setErr(errors.New("disk full"))
	w := NewWriter(&fakeSource{snap: testSnapshot()}, sink, clock)

	w.Notify()
	clock.Advance(debounceDelay)
	clock.Advance(debounceDelay)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, sink.saveCount())

	sink.setErr(nil)
	w.Notify()
	clock.Advance(debounceDelay)
	waitForSaves(t, sink, 1)
}

func TestWriter_CloseWritesFinalSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &fakeSink{}
	w := NewWriter(&fakeSource{snap: testSnapshot()}, sink, clock)

	w.Notify()
	w.Close()

	assert.Equal(t, 1, sink.saveCount(), "close flushes synchronously without waiting for the window")

	// Notifications after close are ignored.
	w.Notify()
	clock.Advance(debounceDelay)
	assert.Equal(t, 1, sink.saveCount())
}

func TestWriter_CloseIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &fakeSink{}
	w := NewWriter(&fakeSource{snap: testSnapshot()}, sink, clock)

	w.Close()
	w.Close()
	assert.Equal(t, 1, sink.saveCount())
}
