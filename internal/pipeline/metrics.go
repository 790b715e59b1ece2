package pipeline

import "github.com/prometheus/client_golang/prometheus"

var (
	cycleCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensor_cycles_total",
		Help: "Completed acquisition cycles.",
	})
	faultCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensor_faults_total",
		Help: "Cycles aborted because a gyro or accel sample was unavailable.",
	})
	magUpdateCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensor_mag_bias_updates_total",
		Help: "Accepted magnetometer bias estimator updates.",
	})
	magDiscardCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensor_mag_bias_discards_total",
		Help: "Bias estimator updates discarded due to non-finite corrections.",
	})
)

func init() {
	prometheus.MustRegister(cycleCount, faultCount, magUpdateCount, magDiscardCount)
}
