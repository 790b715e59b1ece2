// Package attitude provides the coarse accelerometer-only attitude reference
// used when no full estimator is running. Roll and pitch come from the
// gravity vector; yaw stays at zero until a proper estimator takes over the
// Attitude record.
package attitude

import (
	"math"

	"github.com/relabs-tech/flight_sensors/internal/calibration"
	"github.com/relabs-tech/flight_sensors/internal/flightstate"
)

// PoseFromAccel computes roll and pitch in degrees from a calibrated
// accelerometer measurement:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func PoseFromAccel(ax, ay, az float64) (rollDeg, pitchDeg float64) {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))
	return rollRad * 180.0 / math.Pi, pitchRad * 180.0 / math.Pi
}

// Provider refreshes the Attitude record from each calibrated accel output.
type Provider struct {
	store *flightstate.Store
}

func NewProvider(store *flightstate.Store) *Provider {
	return &Provider{store: store}
}

// Start wires the provider to the accel output record. The callback runs on
// the acquisition goroutine and is cheap: two atan2 calls and a record set.
func (p *Provider) Start() {
	p.store.Accels.Watch(func(m flightstate.Measurement) {
		roll, pitch := PoseFromAccel(m.X, m.Y, m.Z)
		q := calibration.QuaternionFromRPY(roll, pitch, 0)
		p.store.Attitude.Set(flightstate.Attitude{
			Q:        [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag},
			RollDeg:  roll,
			PitchDeg: pitch,
			YawDeg:   0,
		})
	})
}
