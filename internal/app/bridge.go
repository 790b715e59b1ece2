// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/config"
	"github.com/relabs-tech/flight_sensors/internal/flightstate"
)

// publishInterval bounds how often the bridge flushes staged records to the
// broker. The acquisition loop runs far faster than any MQTT consumer needs.
const publishInterval = 20 * time.Millisecond

// bridge mirrors the output records onto retained MQTT topics and applies
// settings updates arriving on the settings topic tree.
//
// Record watchers only stage the latest payload under a mutex; the actual
// network writes happen on the bridge's own goroutine so broker latency can
// never stall the acquisition loop.
type bridge struct {
	client mqtt.Client
	cfg    *config.Config
	store  *flightstate.Store

	mu     sync.Mutex
	staged map[string][]byte
}

func newBridge(client mqtt.Client, cfg *config.Config, store *flightstate.Store) *bridge {
	return &bridge{
		client: client,
		cfg:    cfg,
		store:  store,
		staged: make(map[string][]byte),
	}
}

// Start registers the record watchers, subscribes to the settings tree and
// launches the publish goroutine.
func (b *bridge) Start(ctx context.Context) error {
	stage := func(topic string) func(v any) {
		return func(v any) {
			payload, err := json.Marshal(v)
			if err != nil {
				log.Printf("bridge: marshal for %s: %v", topic, err)
				return
			}
			b.mu.Lock()
			b.staged[topic] = payload
			b.mu.Unlock()
		}
	}

	stageAccels := stage(b.cfg.TopicAccels)
	b.store.Accels.Watch(func(m flightstate.Measurement) { stageAccels(m) })
	stageGyros := stage(b.cfg.TopicGyros)
	b.store.Gyros.Watch(func(m flightstate.Measurement) { stageGyros(m) })
	stageMag := stage(b.cfg.TopicMag)
	b.store.Magnetometer.Watch(func(m flightstate.Measurement) { stageMag(m) })
	stageMagBias := stage(b.cfg.TopicMagBias)
	b.store.MagBias.Watch(func(v r3.Vec) { stageMagBias(v) })

	filter := b.cfg.TopicSettingsPrefix + "/#"
	token := b.client.Subscribe(filter, 0, func(_ mqtt.Client, msg mqtt.Message) {
		name := strings.TrimPrefix(msg.Topic(), b.cfg.TopicSettingsPrefix+"/")
		if err := b.applySetting(name, msg.Payload()); err != nil {
			log.Printf("bridge: settings update %s: %v", msg.Topic(), err)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", filter, token.Error())
	}
	log.Printf("bridge: subscribed to %s", filter)

	go b.publishLoop(ctx)
	return nil
}

func (b *bridge) publishLoop(ctx context.Context) {
	ticker := time.NewTicker(publishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.flush()
		}
	}
}

func (b *bridge) flush() {
	b.mu.Lock()
	batch := b.staged
	b.staged = make(map[string][]byte)
	b.mu.Unlock()

	for topic, payload := range batch {
		if token := b.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("bridge: publish %s: %v", topic, token.Error())
		}
	}
}

// applySetting decodes a settings payload and writes it into the matching
// record. The synchronizer watching those records then rebuilds the
// calibration snapshot.
func (b *bridge) applySetting(name string, payload []byte) error {
	switch name {
	case "mag_calibration":
		var v flightstate.MagCalibration
		if err := json.Unmarshal(payload, &v); err != nil {
			return err
		}
		b.store.MagCalibration.Set(v)
	case "inertial_calibration":
		var v flightstate.InertialCalibration
		if err := json.Unmarshal(payload, &v); err != nil {
			return err
		}
		b.store.InertialCalibration.Set(v)
	case "attitude":
		var v flightstate.AttitudeSettings
		if err := json.Unmarshal(payload, &v); err != nil {
			return err
		}
		b.store.AttitudeSettings.Set(v)
	case "ins":
		var v flightstate.INSSettings
		if err := json.Unmarshal(payload, &v); err != nil {
			return err
		}
		b.store.INSSettings.Set(v)
	case "home_location":
		var v flightstate.HomeLocation
		if err := json.Unmarshal(payload, &v); err != nil {
			return err
		}
		b.store.HomeLocation.Set(v)
	case "gyro_bias":
		var v r3.Vec
		if err := json.Unmarshal(payload, &v); err != nil {
			return err
		}
		b.store.GyroBias.Set(v)
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
	return nil
}
