// Package watchdog tracks per-subsystem liveness flags, standing in for the
// hardware watchdog of a flight controller. A registered task must kick its
// flag periodically; the monitor reports flags that go quiet.
package watchdog

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Flag is one registered liveness flag. Kick is cheap and safe to call from
// a hard-real-time loop.
type Flag struct {
	name string
	last atomic.Int64 // unix nanos of the most recent kick
}

// Kick marks the owning task as alive.
func (f *Flag) Kick() {
	f.last.Store(time.Now().UnixNano())
}

// Name returns the flag name.
func (f *Flag) Name() string {
	return f.name
}

// LastKick returns the time of the most recent kick.
func (f *Flag) LastKick() time.Time {
	return time.Unix(0, f.last.Load())
}

// Watchdog monitors registered flags. onStarve runs once per starvation
// episode; a nil onStarve logs instead.
type Watchdog struct {
	timeout  time.Duration
	onStarve func(name string, since time.Duration)

	mu      sync.Mutex
	flags   []*Flag
	starved map[string]bool
}

func New(timeout time.Duration, onStarve func(name string, since time.Duration)) *Watchdog {
	if onStarve == nil {
		onStarve = func(name string, since time.Duration) {
			log.Printf("watchdog: flag %q starved for %v", name, since)
		}
	}
	return &Watchdog{
		timeout:  timeout,
		onStarve: onStarve,
		starved:  make(map[string]bool),
	}
}

// Register creates a flag for the named task. The flag starts alive.
func (w *Watchdog) Register(name string) *Flag {
	f := &Flag{name: name}
	f.Kick()
	w.mu.Lock()
	w.flags = append(w.flags, f)
	w.mu.Unlock()
	return f
}

// Start runs the monitor until ctx is cancelled.
func (w *Watchdog) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Watchdog) run(ctx context.Context) {
	ticker := time.NewTicker(w.timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := time.Now()
		w.mu.Lock()
		flags := w.flags
		w.mu.Unlock()

		for _, f := range flags {
			since := now.Sub(time.Unix(0, f.last.Load()))
			w.mu.Lock()
			wasStarved := w.starved[f.name]
			starved := since > w.timeout
			w.starved[f.name] = starved
			w.mu.Unlock()

			if starved && !wasStarved {
				w.onStarve(f.name, since)
			}
		}
	}
}
