package app

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/flightstate"
)

func newTestBridge() *bridge {
	return &bridge{
		store:  flightstate.NewStore(),
		staged: make(map[string][]byte),
	}
}

func TestApplySettingMagCalibration(t *testing.T) {
	b := newTestBridge()

	payload := []byte(`{"scale":{"X":1,"Y":1,"Z":1},"bias":{"X":10,"Y":-5,"Z":0}}`)
	if err := b.applySetting("mag_calibration", payload); err != nil {
		t.Fatalf("applySetting: %v", err)
	}

	got := b.store.MagCalibration.Get()
	if got.Scale != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Fatalf("scale = %+v", got.Scale)
	}
	if got.Bias != (r3.Vec{X: 10, Y: -5, Z: 0}) {
		t.Fatalf("bias = %+v", got.Bias)
	}
}

func TestApplySettingAttitude(t *testing.T) {
	b := newTestBridge()

	payload := []byte(`{"board_rotation":[180,0,90],"bias_correct_gyro":true}`)
	if err := b.applySetting("attitude", payload); err != nil {
		t.Fatalf("applySetting: %v", err)
	}

	got := b.store.AttitudeSettings.Get()
	if got.BoardRotation != [3]float64{180, 0, 90} {
		t.Fatalf("board rotation = %v", got.BoardRotation)
	}
	if !got.BiasCorrectGyro {
		t.Fatal("bias correct flag not set")
	}
}

func TestApplySettingGyroBias(t *testing.T) {
	b := newTestBridge()

	if err := b.applySetting("gyro_bias", []byte(`{"X":0.1,"Y":0.2,"Z":0.3}`)); err != nil {
		t.Fatalf("applySetting: %v", err)
	}
	if got := b.store.GyroBias.Get(); got != (r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}) {
		t.Fatalf("gyro bias = %+v", got)
	}
}

func TestApplySettingRejectsUnknownName(t *testing.T) {
	b := newTestBridge()
	if err := b.applySetting("flux_capacitor", []byte(`{}`)); err == nil {
		t.Fatal("expected an error for an unknown setting name")
	}
}

func TestApplySettingRejectsBadPayload(t *testing.T) {
	b := newTestBridge()
	if err := b.applySetting("ins", []byte(`not json`)); err == nil {
		t.Fatal("expected an error for a malformed payload")
	}
}
