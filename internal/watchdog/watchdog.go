// Package watchdog enforces a wall-clock deadline on whichever child process the
// runner is currently waiting for.
package watchdog

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultTimeout is the deadline granted to each child.
	DefaultTimeout = 5 * time.Second
	// DefaultTick is how often the countdown is decremented.
	DefaultTick = time.Second
)

// Watchdog is a single background monitor shared by every run in a batch.
//
// The runner arms it with the child it is about to wait for and disarms it as soon
// as the wait returns. Each tick decrements the countdown; once it drops below
// zero the armed child, if any, is killed.
type Watchdog struct {
	tick   time.Duration
	budget int64 // ticks granted per Arm

	remaining atomic.Int64
	running   atomic.Bool
	kills     atomic.Int64

	mu     sync.Mutex
	proc   *os.Process
	killed bool // the armed child was killed

	// OnKill, when set, is called with the pid of every child the watchdog kills.
	OnKill func(pid int)
}

// New creates a Watchdog that allows timeout per child, checked every tick.
func New(timeout, tick time.Duration) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	budget := int64(timeout / tick)
	if budget < 1 {
		budget = 1
	}
	return &Watchdog{tick: tick, budget: budget}
}

// Arm resets the countdown and makes p the child to kill on expiry.
func (w *Watchdog) Arm(p *os.Process) {
	w.remaining.Store(w.budget)
	w.mu.Lock()
	w.proc = p
	w.killed = false
	w.mu.Unlock()
}

// Disarm clears the armed child and reports whether the watchdog killed it.
func (w *Watchdog) Disarm() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.proc = nil
	return w.killed
}

// Run ticks until ctx is done. It is meant to run in its own goroutine for the
// lifetime of the batch.
func (w *Watchdog) Run(ctx context.Context) error {
	w.running.Store(true)
	defer w.running.Store(false)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.check()
		}
	}
}

// Running reports whether Run is active.
func (w *Watchdog) Running() bool {
	return w.running.Load()
}

// Kills returns how many children the watchdog has killed.
func (w *Watchdog) Kills() int64 {
	return w.kills.Load()
}

// Remaining returns the ticks left before the armed child is killed.
func (w *Watchdog) Remaining() int64 {
	return w.remaining.Load()
}

func (w *Watchdog) check() {
	if w.remaining.Add(-1) >= 0 {
		return
	}
	w.remaining.Store(0)

	// Holding mu across Kill keeps Disarm from racing a kill of a reaped child.
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.proc == nil || w.killed {
		return
	}
	// An already-finished child reports os.ErrProcessDone; nothing to count.
	if err := w.proc.Kill(); err != nil {
		return
	}
	w.killed = true
	w.kills.Add(1)
	if w.OnKill != nil {
		w.OnKill(w.proc.Pid)
	}
}
