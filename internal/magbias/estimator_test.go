package magbias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/flightstate"
)

var levelAttitude = flightstate.Attitude{Q: [4]float64{1, 0, 0, 0}}

var testHome = flightstate.HomeLocation{
	Be:  r3.Vec{X: 20, Y: 0, Z: -40},
	Set: true,
}

func TestUpdateConvergesToTrueBias(t *testing.T) {
	e := New()
	trueBias := r3.Vec{X: 5, Y: 0, Z: 3}

	// Level vehicle measuring the home field plus a constant offset: the
	// estimate must walk to the offset and the corrected output to the
	// true field.
	measured := r3.Add(testHome.Be, trueBias)

	var corrected r3.Vec
	for i := 0; i < 2000; i++ {
		var ok bool
		corrected, ok = e.Update(measured, levelAttitude, testHome, 0.01)
		require.True(t, ok, "iteration %d discarded", i)
	}

	b := e.Bias()
	assert.InDelta(t, trueBias.X, b.X, 1e-6)
	assert.InDelta(t, trueBias.Y, b.Y, 1e-6)
	assert.InDelta(t, trueBias.Z, b.Z, 1e-6)

	assert.InDelta(t, testHome.Be.X, corrected.X, 1e-6)
	assert.InDelta(t, testHome.Be.Y, corrected.Y, 1e-6)
	assert.InDelta(t, testHome.Be.Z, corrected.Z, 1e-6)
}

func TestUpdateErrorShrinksEveryStep(t *testing.T) {
	e := New()
	trueBias := r3.Vec{X: -2, Y: 0, Z: 4}
	measured := r3.Add(testHome.Be, trueBias)

	prev := r3.Norm(trueBias)
	for i := 0; i < 50; i++ {
		_, ok := e.Update(measured, levelAttitude, testHome, 0.05)
		require.True(t, ok)

		err := r3.Norm(r3.Sub(trueBias, e.Bias()))
		require.Less(t, err, prev, "error grew at iteration %d", i)
		prev = err
	}
}

func TestUpdateExactFieldIsFixedPoint(t *testing.T) {
	e := New()

	_, ok := e.Update(testHome.Be, levelAttitude, testHome, 0.05)
	require.True(t, ok)

	b := e.Bias()
	assert.InDelta(t, 0, b.X, 1e-12)
	assert.InDelta(t, 0, b.Y, 1e-12)
	assert.InDelta(t, 0, b.Z, 1e-12)
}

func TestUpdateDiscardsNonFiniteCorrection(t *testing.T) {
	e := New()

	// A measurement with no horizontal component makes the magnitude
	// normalization divide by zero; that update must be discarded with the
	// estimate untouched.
	vertical := r3.Vec{X: 0, Y: 0, Z: -37}
	got, ok := e.Update(vertical, levelAttitude, testHome, 0.05)

	assert.False(t, ok)
	assert.Equal(t, vertical, got)
	assert.Equal(t, r3.Vec{}, e.Bias())
}

func TestUpdateSubtractsRunningBiasFromOutput(t *testing.T) {
	e := New()
	measured := r3.Add(testHome.Be, r3.Vec{X: 6})

	first, ok := e.Update(measured, levelAttitude, testHome, 0.1)
	require.True(t, ok)
	// First pass sees a zero estimate: output equals the raw measurement.
	assert.Equal(t, measured, first)

	second, ok := e.Update(measured, levelAttitude, testHome, 0.1)
	require.True(t, ok)
	assert.Less(t, second.X, first.X, "second output should carry the refined bias")
}

func TestReset(t *testing.T) {
	e := New()
	measured := r3.Add(testHome.Be, r3.Vec{X: 6})
	for i := 0; i < 10; i++ {
		e.Update(measured, levelAttitude, testHome, 0.1)
	}
	require.NotEqual(t, r3.Vec{}, e.Bias())

	e.Reset()
	assert.Equal(t, r3.Vec{}, e.Bias())
}
