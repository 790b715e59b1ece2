// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/alarms"
	"github.com/relabs-tech/flight_sensors/internal/attitude"
	"github.com/relabs-tech/flight_sensors/internal/calibration"
	"github.com/relabs-tech/flight_sensors/internal/config"
	"github.com/relabs-tech/flight_sensors/internal/flightstate"
	"github.com/relabs-tech/flight_sensors/internal/magbias"
	"github.com/relabs-tech/flight_sensors/internal/pipeline"
	"github.com/relabs-tech/flight_sensors/internal/sensors"
	"github.com/relabs-tech/flight_sensors/internal/watchdog"
)

// RunPipeline wires the whole acquisition pipeline and runs it until the
// process is told to stop.
func RunPipeline() error {
	log.Println("pipeline: starting flight-sensors acquisition pipeline")

	cfg := config.Get()
	period := time.Duration(cfg.SensorPeriodMS) * time.Millisecond

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := flightstate.NewStore()
	seedRecords(cfg, store)

	cal := calibration.NewStore()
	est := magbias.New()
	reg := alarms.NewRegistry()
	reg.Watch(func(name string, sev alarms.Severity) {
		log.Printf("alarm: %s -> %s", name, sev)
	})

	wdg := watchdog.New(time.Duration(cfg.WatchdogTimeoutMS)*time.Millisecond, nil)
	flag := wdg.Register(pipeline.AlarmName)
	wdg.Start(ctx)

	queues := sensors.NewRegistry()
	gyroQ := queues.Register(sensors.Gyro, 4)
	accelQ := queues.Register(sensors.Accel, 4)
	magQ := queues.Register(sensors.Mag, 2)

	if err := startSources(ctx, cfg, gyroQ, accelQ, magQ, period); err != nil {
		return err
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDPipeline)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Println("pipeline: connected to MQTT broker")

	br := newBridge(client, cfg, store)
	if err := br.Start(ctx); err != nil {
		return err
	}

	// Coarse attitude reference so the bias estimator always has a usable
	// quaternion, even without an external estimator writing the record.
	attitude.NewProvider(store).Start()

	// Optional NMEA home-location feed.
	if cfg.GPSSerialPort != "" {
		go func() {
			if err := RunHomeLocationFeed(ctx, store); err != nil {
				log.Printf("homeloc: feed stopped: %v", err)
			}
		}()
	}

	pipeline.NewSynchronizer(store, cal, est).Start()

	go RunWeb(cfg, store, reg)

	loop := pipeline.New(pipeline.Config{
		Period:      period,
		GyroTimeout: time.Duration(cfg.GyroTimeoutMS) * time.Millisecond,
	}, queues, store, cal, est, reg, flag)

	log.Println("pipeline: acquisition loop running")
	loop.Run(ctx)

	log.Println("pipeline: shutting down")
	return nil
}

// seedRecords loads the configuration file's calibration values into the
// settings records so the first synchronizer pass sees them.
func seedRecords(cfg *config.Config, store *flightstate.Store) {
	vec := func(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

	store.MagCalibration.Set(flightstate.MagCalibration{
		Scale: vec(cfg.MagScale),
		Bias:  vec(cfg.MagBias),
	})
	store.InertialCalibration.Set(flightstate.InertialCalibration{
		AccelScale: vec(cfg.AccelScale),
		AccelBias:  vec(cfg.AccelBias),
		GyroScale:  vec(cfg.GyroScale),
	})
	store.AttitudeSettings.Set(flightstate.AttitudeSettings{
		BoardRotation:   cfg.BoardRotation,
		BiasCorrectGyro: cfg.BiasCorrectGyro,
	})
	store.INSSettings.Set(flightstate.INSSettings{
		MagBiasNullingRate: cfg.MagBiasNullingRate,
	})
	store.HomeLocation.Set(flightstate.HomeLocation{
		Be:  vec(cfg.HomeBe),
		Set: cfg.HomeBe != [3]float64{},
	})
}

// startSources launches the configured driver goroutines feeding the queues.
func startSources(ctx context.Context, cfg *config.Config, gyroQ, accelQ, magQ *sensors.Queue, period time.Duration) error {
	magInterval := time.Duration(cfg.MagIntervalMS) * time.Millisecond

	switch cfg.SensorSource {
	case "mpu6000":
		mpu, err := sensors.NewMPU6000(cfg.MPUI2CBus)
		if err != nil {
			return err
		}
		go mpu.Run(ctx, gyroQ, accelQ, period)

		if cfg.MagI2CBus != "" {
			mag, err := sensors.NewHMC5883(cfg.MagI2CBus)
			if err != nil {
				// Mag is optional at runtime too; run without it.
				log.Printf("pipeline: magnetometer unavailable: %v", err)
				return nil
			}
			go mag.Run(ctx, magQ, magInterval)
		}
	default:
		log.Println("pipeline: using mock sensor source")
		go sensors.NewMockSource().Run(ctx, gyroQ, accelQ, magQ, period)
	}
	return nil
}
