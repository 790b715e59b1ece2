package pipeline

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/calibration"
	"github.com/relabs-tech/flight_sensors/internal/flightstate"
	"github.com/relabs-tech/flight_sensors/internal/magbias"
)

func newSyncFixture() (*flightstate.Store, *calibration.Store, *magbias.Estimator, *Synchronizer) {
	store := flightstate.NewStore()
	cal := calibration.NewStore()
	est := magbias.New()
	return store, cal, est, NewSynchronizer(store, cal, est)
}

func TestSynchronizerStartLoadsInitialSnapshot(t *testing.T) {
	store, cal, _, s := newSyncFixture()

	store.InertialCalibration.Set(flightstate.InertialCalibration{
		AccelScale: r3.Vec{X: 1, Y: 2, Z: 3},
		GyroScale:  r3.Vec{X: 4, Y: 5, Z: 6},
	})
	s.Start()

	snap := cal.Snapshot()
	if !snap.Initialized {
		t.Fatal("snapshot not marked initialized after Start")
	}
	if snap.AccelScale != (r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("accel scale = %+v", snap.AccelScale)
	}
	if snap.GyroScale != (r3.Vec{X: 4, Y: 5, Z: 6}) {
		t.Fatalf("gyro scale = %+v", snap.GyroScale)
	}
}

func TestSynchronizerReloadsOnRecordChange(t *testing.T) {
	store, cal, _, s := newSyncFixture()
	s.Start()

	store.MagCalibration.Set(flightstate.MagCalibration{
		Scale: r3.Vec{X: 2, Y: 2, Z: 2},
		Bias:  r3.Vec{X: 10, Y: 20, Z: 30},
	})

	snap := cal.Snapshot()
	if snap.MagScale != (r3.Vec{X: 2, Y: 2, Z: 2}) {
		t.Fatalf("mag scale = %+v after record change", snap.MagScale)
	}
	if snap.MagBias != (r3.Vec{X: 10, Y: 20, Z: 30}) {
		t.Fatalf("mag bias = %+v after record change", snap.MagBias)
	}
}

func TestSynchronizerZeroRotationSkipsMatrix(t *testing.T) {
	store, cal, _, s := newSyncFixture()
	s.Start()

	store.AttitudeSettings.Set(flightstate.AttitudeSettings{})

	snap := cal.Snapshot()
	if snap.Rotate {
		t.Fatal("Rotate set for a zero board rotation")
	}
	if snap.Rbs != calibration.Identity() {
		t.Fatalf("Rbs = %+v, want identity", snap.Rbs)
	}
}

func TestSynchronizerNonzeroRotationBuildsMatrix(t *testing.T) {
	store, cal, _, s := newSyncFixture()
	s.Start()

	store.AttitudeSettings.Set(flightstate.AttitudeSettings{
		BoardRotation: [3]float64{180, 0, 0},
	})

	snap := cal.Snapshot()
	if !snap.Rotate {
		t.Fatal("Rotate not set for a nonzero board rotation")
	}
	got := snap.Rbs.Apply(r3.Vec{Y: 1})
	if got.Y > -0.99 {
		t.Fatalf("rotation matrix did not flip Y: %+v", got)
	}
}

func TestSynchronizerResetsBiasTracking(t *testing.T) {
	store, cal, est, s := newSyncFixture()
	_ = cal
	s.Start()

	store.INSSettings.Set(flightstate.INSSettings{MagBiasNullingRate: 0.1})

	home := flightstate.HomeLocation{Be: r3.Vec{X: 200, Y: 0, Z: -400}, Set: true}
	att := flightstate.Attitude{Q: [4]float64{1, 0, 0, 0}}
	est.Update(r3.Vec{X: 210, Y: 0, Z: -400}, att, home, 0.1)
	if est.Bias() == (r3.Vec{}) {
		t.Fatal("estimator did not accumulate before the settings change")
	}
	store.MagBias.Set(est.Bias())

	// Any calibration change must zero the adaptive state.
	store.MagCalibration.Set(flightstate.MagCalibration{Scale: r3.Vec{X: 1, Y: 1, Z: 1}})

	if est.Bias() != (r3.Vec{}) {
		t.Fatalf("estimator bias = %+v after settings change, want zero", est.Bias())
	}
	if store.MagBias.Get() != (r3.Vec{}) {
		t.Fatalf("mag bias record = %+v after settings change, want zero", store.MagBias.Get())
	}
}
