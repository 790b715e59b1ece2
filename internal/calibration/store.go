// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration converts raw sensor samples into calibrated,
// frame-consistent measurements. Parameters live in an immutable snapshot
// that is replaced wholesale on configuration change, so the acquisition
// loop never observes a torn update.
package calibration

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Snapshot is one consistent view of every calibration parameter the
// acquisition loop needs for a cycle. Value semantics: readers hold a copy.
type Snapshot struct {
	AccelScale r3.Vec
	AccelBias  r3.Vec
	GyroScale  r3.Vec
	MagScale   r3.Vec
	MagBias    r3.Vec

	// Rbs maps the sensor-body frame to the vehicle-body frame. Rotate is
	// false when the mounting rotation is zero, skipping the multiply.
	Rbs    Matrix
	Rotate bool

	BiasCorrectGyro    bool
	MagBiasNullingRate float64

	// Initialized reports whether a configuration load has happened yet.
	// Until then every scale is zero and the transforms emit zero output.
	Initialized bool
}

// Store holds the current snapshot behind a read-mostly lock.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStore() *Store {
	return &Store{snap: Snapshot{Rbs: Identity()}}
}

// Snapshot returns the current parameter set by value.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Replace swaps in a complete new parameter set.
func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
