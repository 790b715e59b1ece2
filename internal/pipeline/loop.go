// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pipeline runs the periodic sensor acquisition loop and keeps the
// calibration snapshot in sync with configuration changes.
package pipeline

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/flight_sensors/internal/alarms"
	"github.com/relabs-tech/flight_sensors/internal/calibration"
	"github.com/relabs-tech/flight_sensors/internal/flightstate"
	"github.com/relabs-tech/flight_sensors/internal/magbias"
	"github.com/relabs-tech/flight_sensors/internal/sensors"
	"github.com/relabs-tech/flight_sensors/internal/watchdog"
)

// AlarmName is this subsystem's flag in the alarm registry.
const AlarmName = "sensors"

// Config holds the loop timing knobs.
type Config struct {
	// Period is the target cycle period. In steady state the loop is paced
	// by the gyro producer; the period only drives the fault catch-up delay.
	Period time.Duration
	// GyroTimeout bounds the wait for a gyro sample. Accel and mag receives
	// are zero-wait polls.
	GyroTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Period <= 0 {
		c.Period = 2 * time.Millisecond
	}
	if c.GyroTimeout <= 0 {
		c.GyroTimeout = 4 * time.Millisecond
	}
}

// Loop is the acquisition loop: one calibrated gyro+accel publication per
// cycle when data is available, plus an optional magnetometer publication.
type Loop struct {
	cfg    Config
	queues *sensors.Registry
	store  *flightstate.Store
	cal    *calibration.Store
	est    *magbias.Estimator
	alarms *alarms.Registry
	wdg    *watchdog.Flag

	// Per-cycle fault flag: set when a gyro or accel sample is missing,
	// consumed at the top of the next cycle. Never persisted.
	fault    bool
	deadline time.Time

	warnOnce sync.Once
}

func New(cfg Config, queues *sensors.Registry, store *flightstate.Store, cal *calibration.Store, est *magbias.Estimator, al *alarms.Registry, wdg *watchdog.Flag) *Loop {
	cfg.applyDefaults()
	return &Loop{
		cfg:      cfg,
		queues:   queues,
		store:    store,
		cal:      cal,
		est:      est,
		alarms:   al,
		wdg:      wdg,
		deadline: time.Now(),
	}
}

// Run executes acquisition cycles until ctx is cancelled. The loop never
// returns an error: sample dropouts surface through the alarm registry and
// the loop self-heals once data resumes.
func (l *Loop) Run(ctx context.Context) {
	l.alarms.Clear(AlarmName)
	for ctx.Err() == nil {
		l.cycle(ctx)
	}
}

// cycleResult is the outcome of one acquisition attempt. A transient fault
// means a mandatory sample was missing; the cycle after a fault runs the
// catch-up protocol.
type cycleResult int

const (
	cycleOK cycleResult = iota
	cycleFault
)

// cycle runs one iteration of the per-cycle protocol.
func (l *Loop) cycle(ctx context.Context) {
	if l.fault {
		// A fault cycle is followed by exactly one catch-up cycle: kick the
		// watchdog so a missed sample never resets the system, delay to the
		// next period boundary on an absolute deadline, and raise the alarm.
		l.wdg.Kick()
		if l.deadline.Before(time.Now().Add(-l.cfg.Period)) {
			l.deadline = time.Now()
		}
		l.deadline = l.deadline.Add(l.cfg.Period)
		sleepUntil(ctx, l.deadline)
		l.alarms.Set(AlarmName, alarms.Critical)
		l.fault = false
	} else {
		l.alarms.Clear(AlarmName)
	}

	if l.acquire() == cycleFault {
		l.fault = true
		faultCount.Inc()
		return
	}

	l.wdg.Kick()
	cycleCount.Inc()
}

// acquire performs the three sample attempts and publishes the results. Gyro
// and accel are mandatory; mag is opportunistic.
func (l *Loop) acquire() cycleResult {
	gyroRaw, err := l.queues.Receive(sensors.Gyro, l.cfg.GyroTimeout)
	if err != nil {
		return cycleFault
	}

	accelRaw, err := l.queues.Receive(sensors.Accel, 0)
	if err != nil {
		return cycleFault
	}

	snap := l.cal.Snapshot()
	if !snap.Initialized {
		l.warnOnce.Do(func() {
			log.Println("pipeline: calibration not loaded yet, publishing zero output")
		})
	}

	// Accels are published before gyros: downstream consumers of the gyro
	// record expect fresh accel output to already be visible.
	l.store.Accels.Set(snap.Accel(accelRaw))
	l.store.Gyros.Set(snap.Gyro(gyroRaw, l.store.GyroBias.Get()))

	// A missing mag sample is steady-state behavior, not a fault; the mag
	// may legitimately run at a lower rate than the loop.
	if magRaw, err := l.queues.Receive(sensors.Mag, 0); err == nil {
		l.updateMag(snap, magRaw)
	}

	return cycleOK
}

func (l *Loop) updateMag(snap calibration.Snapshot, raw sensors.RawSample) {
	m := snap.Mag(raw)
	if snap.MagBiasNullingRate > 0 {
		corrected, updated := l.est.Update(m, l.store.Attitude.Get(), l.store.HomeLocation.Get(), snap.MagBiasNullingRate)
		m = corrected
		if updated {
			l.store.MagBias.Set(l.est.Bias())
			magUpdateCount.Inc()
		} else {
			magDiscardCount.Inc()
		}
	}
	l.store.Magnetometer.Set(flightstate.Measurement{X: m.X, Y: m.Y, Z: m.Z})
}

func sleepUntil(ctx context.Context, t time.Time) {
	d := time.Until(t)
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
