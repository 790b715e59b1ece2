// Package alarms is the in-process health flag registry read by the rest of
// the system and the operator UI. Flags carry a severity; set and clear are
// fire-and-forget for the caller.
package alarms

import "sync"

// Severity of an alarm flag.
type Severity int

const (
	OK Severity = iota
	Warning
	Error
	Critical
)

func (s Severity) String() string {
	switch s {
	case OK:
		return "ok"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	}
	return "unknown"
}

// Registry tracks named alarm flags. Watchers fire only on actual severity
// transitions, so high-rate callers can clear every cycle without spamming.
type Registry struct {
	mu       sync.RWMutex
	flags    map[string]Severity
	watchers []func(name string, sev Severity)
}

func NewRegistry() *Registry {
	return &Registry{flags: make(map[string]Severity)}
}

// Set raises the named alarm to the given severity.
func (r *Registry) Set(name string, sev Severity) {
	r.mu.Lock()
	if r.flags[name] == sev {
		r.mu.Unlock()
		return
	}
	r.flags[name] = sev
	watchers := r.watchers
	r.mu.Unlock()

	for _, w := range watchers {
		w(name, sev)
	}
}

// Clear lowers the named alarm back to OK.
func (r *Registry) Clear(name string) {
	r.Set(name, OK)
}

// Get returns the current severity of the named alarm.
func (r *Registry) Get(name string) Severity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flags[name]
}

// Snapshot returns a copy of every flag.
func (r *Registry) Snapshot() map[string]Severity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Severity, len(r.flags))
	for k, v := range r.flags {
		out[k] = v
	}
	return out
}

// Watch registers fn to run on every severity transition, on the goroutine
// performing the transition.
func (r *Registry) Watch(fn func(name string, sev Severity)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	watchers := make([]func(string, Severity), len(r.watchers), len(r.watchers)+1)
	copy(watchers, r.watchers)
	r.watchers = append(watchers, fn)
}
