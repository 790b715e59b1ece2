package pipeline

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/calibration"
	"github.com/relabs-tech/flight_sensors/internal/flightstate"
	"github.com/relabs-tech/flight_sensors/internal/magbias"
)

// Synchronizer rebuilds the calibration snapshot whenever one of the four
// watched configuration records changes, and resets the running mag bias
// estimate so stale adaptation never outlives a calibration change. The
// callbacks run on the configuration writer's goroutine; the acquisition
// loop observes changes atomically at its next snapshot read.
type Synchronizer struct {
	store *flightstate.Store
	cal   *calibration.Store
	est   *magbias.Estimator
}

func NewSynchronizer(store *flightstate.Store, cal *calibration.Store, est *magbias.Estimator) *Synchronizer {
	return &Synchronizer{store: store, cal: cal, est: est}
}

// Start performs the initial load and wires the change callbacks, so the
// loop's first cycle already sees a consistent snapshot.
func (s *Synchronizer) Start() {
	s.Reload()
	s.store.MagCalibration.Watch(func(flightstate.MagCalibration) { s.Reload() })
	s.store.InertialCalibration.Watch(func(flightstate.InertialCalibration) { s.Reload() })
	s.store.AttitudeSettings.Watch(func(flightstate.AttitudeSettings) { s.Reload() })
	s.store.INSSettings.Watch(func(flightstate.INSSettings) { s.Reload() })
}

// Reload builds a complete new snapshot from the configuration records and
// swaps it in; the loop never observes new scales with a stale rotation.
func (s *Synchronizer) Reload() {
	magCal := s.store.MagCalibration.Get()
	inertial := s.store.InertialCalibration.Get()
	att := s.store.AttitudeSettings.Get()
	ins := s.store.INSSettings.Get()

	snap := calibration.Snapshot{
		AccelScale: inertial.AccelScale,
		AccelBias:  inertial.AccelBias,
		GyroScale:  inertial.GyroScale,
		MagScale:   magCal.Scale,
		MagBias:    magCal.Bias,

		Rbs: calibration.Identity(),

		BiasCorrectGyro:    att.BiasCorrectGyro,
		MagBiasNullingRate: ins.MagBiasNullingRate,

		Initialized: true,
	}

	// A zero rotation triple means no cycles spent on the matrix multiply.
	if r := att.BoardRotation; r[0] != 0 || r[1] != 0 || r[2] != 0 {
		q := calibration.QuaternionFromRPY(r[0], r[1], r[2])
		snap.Rbs = calibration.MatrixFromQuaternion(q)
		snap.Rotate = true
	}

	s.cal.Replace(snap)

	// Zero out any adaptive tracking.
	s.est.Reset()
	s.store.MagBias.Set(r3.Vec{})
}
