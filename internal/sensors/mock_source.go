// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"math"
	"time"
)

// MockSource generates smooth synthetic gyro/accel/mag samples so the
// pipeline can run on a bench without any hardware attached. The gyro and
// accel queues are fed every tick; the mag queue every magDivider ticks,
// mimicking a low-rate magnetometer.
type MockSource struct {
	start      time.Time
	magDivider int
}

func NewMockSource() *MockSource {
	return &MockSource{start: time.Now(), magDivider: 10}
}

// Run feeds the queues until ctx is cancelled. Nil queues are skipped.
func (m *MockSource) Run(ctx context.Context, gyro, accel, mag *Queue, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		elapsed := time.Since(m.start).Seconds()
		tick++

		if gyro != nil {
			gyro.Offer(RawSample{
				X:           20 * math.Sin(elapsed),
				Y:           15 * math.Cos(elapsed*0.7),
				Z:           5 * math.Sin(elapsed*0.3),
				Temperature: 25,
			})
		}
		if accel != nil {
			accel.Offer(RawSample{
				X:           0.5 * math.Sin(elapsed*0.5),
				Y:           0.5 * math.Cos(elapsed*0.5),
				Z:           -9.81,
				Temperature: 25,
			})
		}
		if mag != nil && tick%m.magDivider == 0 {
			mag.Offer(RawSample{
				X: 220 + 10*math.Sin(elapsed*0.2),
				Y: 30 * math.Cos(elapsed*0.2),
				Z: -430,
			})
		}
	}
}
