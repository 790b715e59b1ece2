package sensors

// RawSample is one uncalibrated 3-axis reading as delivered by a driver.
// Values are in raw sensor units; the calibration layer converts them to
// physical units. Samples are immutable once read from a queue.
type RawSample struct {
	X, Y, Z     float64
	Temperature float64
}

// Kind identifies which physical sensor produced a sample.
type Kind int

const (
	Gyro Kind = iota
	Accel
	Mag
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Gyro:
		return "gyro"
	case Accel:
		return "accel"
	case Mag:
		return "mag"
	}
	return "unknown"
}
