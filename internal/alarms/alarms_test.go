package alarms

import "testing"

func TestRegistryDefaultsToOK(t *testing.T) {
	r := NewRegistry()
	if got := r.Get("sensors"); got != OK {
		t.Fatalf("unset alarm = %v, want OK", got)
	}
}

func TestRegistrySetGetClear(t *testing.T) {
	r := NewRegistry()

	r.Set("sensors", Critical)
	if got := r.Get("sensors"); got != Critical {
		t.Fatalf("got %v, want Critical", got)
	}

	r.Clear("sensors")
	if got := r.Get("sensors"); got != OK {
		t.Fatalf("after clear got %v, want OK", got)
	}
}

func TestRegistryWatcherFiresOnTransitionsOnly(t *testing.T) {
	r := NewRegistry()

	var events int
	r.Watch(func(string, Severity) { events++ })

	// The acquisition loop clears its alarm every healthy cycle; only the
	// actual transitions may notify.
	r.Clear("sensors")
	r.Clear("sensors")
	r.Set("sensors", Critical)
	r.Set("sensors", Critical)
	r.Clear("sensors")
	r.Clear("sensors")

	if events != 2 {
		t.Fatalf("watcher fired %d times, want 2 (raise and clear)", events)
	}
}

func TestRegistrySnapshotCopies(t *testing.T) {
	r := NewRegistry()
	r.Set("sensors", Warning)
	r.Set("gps", Error)

	snap := r.Snapshot()
	if len(snap) != 2 || snap["sensors"] != Warning || snap["gps"] != Error {
		t.Fatalf("snapshot = %v", snap)
	}

	snap["sensors"] = Critical
	if got := r.Get("sensors"); got != Warning {
		t.Fatalf("mutating snapshot leaked into registry: %v", got)
	}
}

func TestSeverityString(t *testing.T) {
	cases := []struct {
		sev  Severity
		want string
	}{
		{OK, "ok"},
		{Warning, "warning"},
		{Error, "error"},
		{Critical, "critical"},
		{Severity(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.sev.String(); got != tc.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tc.sev, got, tc.want)
		}
	}
}
