// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package flightstate defines the shared records this subsystem reads and
// publishes. Configuration records are written by the operator/configuration
// layer; output records are written once per acquisition cycle.
package flightstate

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/statestore"
)

// MagCalibration holds the per-axis magnetometer scale and static bias.
type MagCalibration struct {
	Scale r3.Vec `json:"scale"`
	Bias  r3.Vec `json:"bias"`
}

// InertialCalibration holds accel scale/bias and gyro scale. The gyro has no
// static bias here; its bias is dynamic and lives in the GyroBias record,
// maintained by the attitude estimator.
type InertialCalibration struct {
	AccelScale r3.Vec `json:"accel_scale"`
	AccelBias  r3.Vec `json:"accel_bias"`
	GyroScale  r3.Vec `json:"gyro_scale"`
}

// AttitudeSettings carries the board mounting rotation (roll/pitch/yaw,
// degrees) and the gyro bias correction toggle.
type AttitudeSettings struct {
	BoardRotation   [3]float64 `json:"board_rotation"`
	BiasCorrectGyro bool       `json:"bias_correct_gyro"`
}

// INSSettings carries the magnetometer bias nulling rate. Zero disables the
// online bias estimator entirely.
type INSSettings struct {
	MagBiasNullingRate float64 `json:"mag_bias_nulling_rate"`
}

// HomeLocation is the home position and its geomagnetic field vector in the
// NED frame.
type HomeLocation struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Be        r3.Vec  `json:"be"`
	Set       bool    `json:"set"`
}

// Attitude is the current attitude estimate: quaternion (w,x,y,z) plus the
// Euler angles in degrees.
type Attitude struct {
	Q        [4]float64 `json:"q"`
	RollDeg  float64    `json:"roll"`
	PitchDeg float64    `json:"pitch"`
	YawDeg   float64    `json:"yaw"`
}

// Quaternion returns the attitude as a gonum quaternion.
func (a Attitude) Quaternion() quat.Number {
	return quat.Number{Real: a.Q[0], Imag: a.Q[1], Jmag: a.Q[2], Kmag: a.Q[3]}
}

// Measurement is one calibrated sensor output. The magnetometer record
// leaves Temperature at zero.
type Measurement struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Vec returns the measurement axes as a vector.
func (m Measurement) Vec() r3.Vec {
	return r3.Vec{X: m.X, Y: m.Y, Z: m.Z}
}

// Store bundles every shared record of the subsystem.
type Store struct {
	// Configuration, individually change-notifiable.
	MagCalibration      *statestore.Record[MagCalibration]
	InertialCalibration *statestore.Record[InertialCalibration]
	AttitudeSettings    *statestore.Record[AttitudeSettings]
	INSSettings         *statestore.Record[INSSettings]

	// External read-only inputs.
	HomeLocation *statestore.Record[HomeLocation]
	Attitude     *statestore.Record[Attitude]
	GyroBias     *statestore.Record[r3.Vec]

	// Outputs of the acquisition pipeline.
	Accels       *statestore.Record[Measurement]
	Gyros        *statestore.Record[Measurement]
	Magnetometer *statestore.Record[Measurement]
	MagBias      *statestore.Record[r3.Vec]
}

func NewStore() *Store {
	return &Store{
		MagCalibration:      statestore.New(MagCalibration{}),
		InertialCalibration: statestore.New(InertialCalibration{}),
		AttitudeSettings:    statestore.New(AttitudeSettings{}),
		INSSettings:         statestore.New(INSSettings{}),

		HomeLocation: statestore.New(HomeLocation{}),
		Attitude:     statestore.New(Attitude{Q: [4]float64{1, 0, 0, 0}}),
		GyroBias:     statestore.New(r3.Vec{}),

		Accels:       statestore.New(Measurement{}),
		Gyros:        statestore.New(Measurement{}),
		Magnetometer: statestore.New(Measurement{}),
		MagBias:      statestore.New(r3.Vec{}),
	}
}
