package calibration

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/flightstate"
	"github.com/relabs-tech/flight_sensors/internal/sensors"
)

// Accel applies per-axis scale and bias to a raw accelerometer sample, then
// the board rotation. Temperature passes through unchanged.
func (c Snapshot) Accel(raw sensors.RawSample) flightstate.Measurement {
	out := r3.Vec{
		X: raw.X*c.AccelScale.X - c.AccelBias.X,
		Y: raw.Y*c.AccelScale.Y - c.AccelBias.Y,
		Z: raw.Z*c.AccelScale.Z - c.AccelBias.Z,
	}
	if c.Rotate {
		out = c.Rbs.Apply(out)
	}
	return flightstate.Measurement{X: out.X, Y: out.Y, Z: out.Z, Temperature: raw.Temperature}
}

// Gyro applies per-axis scale (no static bias) and the board rotation. The
// dynamic bias maintained by the attitude estimator is subtracted after
// rotation, and only when bias correction is enabled.
func (c Snapshot) Gyro(raw sensors.RawSample, dynamicBias r3.Vec) flightstate.Measurement {
	out := r3.Vec{
		X: raw.X * c.GyroScale.X,
		Y: raw.Y * c.GyroScale.Y,
		Z: raw.Z * c.GyroScale.Z,
	}
	if c.Rotate {
		out = c.Rbs.Apply(out)
	}
	if c.BiasCorrectGyro {
		out = r3.Sub(out, dynamicBias)
	}
	return flightstate.Measurement{X: out.X, Y: out.Y, Z: out.Z, Temperature: raw.Temperature}
}

// Mag applies per-axis scale, bias, and the board rotation. Running bias
// estimation happens downstream of this transform, in the magbias package.
func (c Snapshot) Mag(raw sensors.RawSample) r3.Vec {
	out := r3.Vec{
		X: raw.X*c.MagScale.X - c.MagBias.X,
		Y: raw.Y*c.MagScale.Y - c.MagBias.Y,
		Z: raw.Z*c.MagScale.Z - c.MagBias.Z,
	}
	if c.Rotate {
		out = c.Rbs.Apply(out)
	}
	return out
}
