package watchdog

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWatchdogReportsStarvedFlagOnce(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	w := New(20*time.Millisecond, func(name string, since time.Duration) {
		mu.Lock()
		events = append(events, name)
		mu.Unlock()
	})
	w.Register("sensors")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// Never kicked again: the flag starves, and onStarve must fire exactly
	// once for the episode no matter how many monitor ticks pass.
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 || events[0] != "sensors" {
		t.Fatalf("onStarve events = %v, want exactly one for \"sensors\"", events)
	}
}

func TestWatchdogQuietWhileKicked(t *testing.T) {
	var (
		mu     sync.Mutex
		events int
	)
	w := New(30*time.Millisecond, func(string, time.Duration) {
		mu.Lock()
		events++
		mu.Unlock()
	})
	f := w.Register("sensors")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	for i := 0; i < 10; i++ {
		f.Kick()
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if events != 0 {
		t.Fatalf("onStarve fired %d times for a live flag", events)
	}
}

func TestWatchdogRecoversAfterKick(t *testing.T) {
	var (
		mu     sync.Mutex
		events int
	)
	w := New(20*time.Millisecond, func(string, time.Duration) {
		mu.Lock()
		events++
		mu.Unlock()
	})
	f := w.Register("sensors")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	time.Sleep(50 * time.Millisecond) // first starvation episode

	// Revive, then starve again: a second episode must report again.
	f.Kick()
	time.Sleep(15 * time.Millisecond)
	f.Kick()
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if events != 2 {
		t.Fatalf("onStarve fired %d times, want 2 (one per episode)", events)
	}
}

func TestFlagName(t *testing.T) {
	w := New(time.Second, func(string, time.Duration) {})
	f := w.Register("sensors")
	if f.Name() != "sensors" {
		t.Fatalf("flag name = %q", f.Name())
	}
}
