package calibration

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Matrix is a row-major 3x3 rotation matrix.
type Matrix [3][3]float64

// Identity returns the identity rotation.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply returns m·v.
func (m Matrix) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// ApplyTranspose returns mᵀ·v, the inverse rotation for an orthonormal m.
func (m Matrix) ApplyTranspose(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0]*v.X + m[1][0]*v.Y + m[2][0]*v.Z,
		Y: m[0][1]*v.X + m[1][1]*v.Y + m[2][1]*v.Z,
		Z: m[0][2]*v.X + m[1][2]*v.Y + m[2][2]*v.Z,
	}
}

// QuaternionFromRPY builds the rotation quaternion for a roll/pitch/yaw
// triple in degrees, composing the axis rotations in ZYX order.
func QuaternionFromRPY(rollDeg, pitchDeg, yawDeg float64) quat.Number {
	const halfRad = math.Pi / 360.0
	qr := quat.Number{Real: math.Cos(rollDeg * halfRad), Imag: math.Sin(rollDeg * halfRad)}
	qp := quat.Number{Real: math.Cos(pitchDeg * halfRad), Jmag: math.Sin(pitchDeg * halfRad)}
	qy := quat.Number{Real: math.Cos(yawDeg * halfRad), Kmag: math.Sin(yawDeg * halfRad)}
	return quat.Mul(qy, quat.Mul(qp, qr))
}

// MatrixFromQuaternion expands a unit quaternion into the direction cosine
// matrix that rotates reference-frame vectors into the rotated frame. The
// transpose performs the reverse (body-to-navigation) rotation.
func MatrixFromQuaternion(q quat.Number) Matrix {
	q0, q1, q2, q3 := q.Real, q.Imag, q.Jmag, q.Kmag
	return Matrix{
		{q0*q0 + q1*q1 - q2*q2 - q3*q3, 2 * (q1*q2 + q0*q3), 2 * (q1*q3 - q0*q2)},
		{2 * (q1*q2 - q0*q3), q0*q0 - q1*q1 + q2*q2 - q3*q3, 2 * (q2*q3 + q0*q1)},
		{2 * (q1*q3 + q0*q2), 2 * (q2*q3 - q0*q1), q0*q0 - q1*q1 - q2*q2 + q3*q3},
	}
}
