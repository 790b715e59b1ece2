// Package magbias estimates the slowly varying magnetometer offset online by
// nudging the measured field toward the home location's geomagnetic field,
// following Premerlani's offset-cancellation scheme referenced against the
// current attitude estimate. The rate term is small and applied every cycle,
// so noisy single-sample updates average out.
package magbias

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/calibration"
	"github.com/relabs-tech/flight_sensors/internal/flightstate"
)

// Estimator holds the running bias estimate. It is owned by the acquisition
// loop; Reset is called from the settings synchronizer, hence the lock.
type Estimator struct {
	mu   sync.Mutex
	bias r3.Vec
}

func New() *Estimator {
	return &Estimator{}
}

// Bias returns the current running estimate.
func (e *Estimator) Bias() r3.Vec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bias
}

// Reset zeroes the estimate. Called whenever calibration settings change so
// stale adaptation never outlives a reconfiguration.
func (e *Estimator) Reset() {
	e.mu.Lock()
	e.bias = r3.Vec{}
	e.mu.Unlock()
}

// Update removes the running bias estimate from m, then refines the estimate
// by rotating the corrected field into the navigation frame and comparing its
// horizontal magnitude and vertical component against the home field. It
// returns the bias-corrected measurement and whether the estimate moved this
// cycle; a correction with any non-finite component is discarded wholesale.
func (e *Estimator) Update(m r3.Vec, att flightstate.Attitude, home flightstate.HomeLocation, rate float64) (r3.Vec, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m = r3.Sub(m, e.bias)

	rxy := math.Hypot(home.Be.X, home.Be.Y)
	rz := home.Be.Z

	// Rotate the corrected body-frame field into NED.
	rot := calibration.MatrixFromQuaternion(att.Quaternion())
	be := rot.ApplyTranspose(m)

	// Split the horizontal field by the current yaw so the correction
	// preserves the measured direction while driving the magnitude to Rxy.
	yaw := att.YawDeg * math.Pi / 180.0
	cy, sy := math.Cos(yaw), math.Sin(yaw)
	xy0 := cy*be.X + sy*be.Y
	xy1 := -sy*be.X + cy*be.Y

	norm := math.Hypot(xy0, xy1)
	delta := r3.Vec{
		X: -rate * (xy0/norm*rxy - xy0),
		Y: -rate * (xy1/norm*rxy - xy1),
		Z: -rate * (rz - be.Z),
	}

	if math.IsNaN(delta.X) || math.IsNaN(delta.Y) || math.IsNaN(delta.Z) {
		return m, false
	}

	e.bias = r3.Add(e.bias, delta)
	return m, true
}
