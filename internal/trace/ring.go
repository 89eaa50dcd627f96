package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the most recent events of a batch in memory so that a fatal
// abort can show what led up to it. It records every event it is handed,
// whatever its scope.
type RingTracer struct {
	mu     sync.Mutex
	buf    []Event
	next   int    // slot the next event overwrites once buf is full
	seen   uint64 // events ever emitted
	level  Level
	limit  int
}

// NewRingTracer returns a ring holding at most capacity events.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{
		buf:   make([]Event, 0, capacity),
		level: level,
		limit: capacity,
	}
}

// Emit stores ev, evicting the oldest event when the ring is full.
func (t *RingTracer) Emit(ev *Event) {
	if !t.Enabled() || ev == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seen++
	if len(t.buf) < t.limit {
		t.buf = append(t.buf, *ev)
		return
	}
	t.buf[t.next] = *ev
	t.next = (t.next + 1) % t.limit
}

// Snapshot returns the retained events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Event, 0, len(t.buf))
	out = append(out, t.buf[t.next:]...)
	return append(out, t.buf[:t.next]...)
}

// Dropped is the number of events evicted to make room for newer ones.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen - uint64(len(t.buf))
}

// Dump writes the retained events to w, oldest first.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }

func (t *RingTracer) Close() error { return nil }

func (t *RingTracer) Level() Level { return t.level }

func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
