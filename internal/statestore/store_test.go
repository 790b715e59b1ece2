package statestore

import "testing"

func TestRecordGetReturnsInitial(t *testing.T) {
	r := New(7)
	if got := r.Get(); got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
	if v := r.Version(); v != 0 {
		t.Fatalf("fresh record version = %d, want 0", v)
	}
}

func TestRecordSetGetVersion(t *testing.T) {
	r := New("a")
	r.Set("b")
	r.Set("c")

	if got := r.Get(); got != "c" {
		t.Fatalf("got %q, want %q", got, "c")
	}
	if v := r.Version(); v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}
}

func TestRecordWatchRunsOnSet(t *testing.T) {
	r := New(0)

	var seen []int
	r.Watch(func(v int) { seen = append(seen, v) })

	r.Set(1)
	r.Set(2)

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("watcher saw %v, want [1 2]", seen)
	}
}

func TestRecordWatchOrderFollowsRegistration(t *testing.T) {
	r := New(0)

	var order []string
	r.Watch(func(int) { order = append(order, "first") })
	r.Watch(func(int) { order = append(order, "second") })

	r.Set(1)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("watcher order %v, want [first second]", order)
	}
}

func TestRecordWatcherMaySetOtherRecord(t *testing.T) {
	// The pipeline chains records: a watcher on one record writes another.
	// Set must not hold the lock while running watchers.
	a := New(0)
	b := New(0)

	a.Watch(func(v int) { b.Set(v * 2) })
	a.Set(21)

	if got := b.Get(); got != 42 {
		t.Fatalf("chained record = %d, want 42", got)
	}
}
